package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("ticketmaster", rec)

	scoped.ReportBroken("client.authenticate", errors.New("boom"))
	scoped.ReportWarning("client.fetch-order", "123")
	scoped.ReportCount("poller.orders", 3)

	broken := rec.Reports(REPORT_BROKEN)
	require.Len(t, broken, 1)
	require.Equal(t, "ticketmaster:client.authenticate", broken[0].ID)

	warnings := rec.Reports(REPORT_WARNING)
	require.Len(t, warnings, 1)
	require.Equal(t, "ticketmaster:client.fetch-order", warnings[0].ID)
	require.Equal(t, []any{"123"}, warnings[0].Params)

	counts := rec.Reports(REPORT_COUNT)
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestInstrumentResty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	rec := &Recorder{}
	client := resty.New()
	InstrumentResty(client, rec, "test")

	res, err := client.R().SetContext(context.Background()).Get(srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())

	debug := rec.Reports(REPORT_DEBUG)
	require.Len(t, debug, 2)
	require.Equal(t, report_resty_request, debug[0].ID)
	require.Equal(t, report_resty_response, debug[1].ID)
	require.Equal(t, uint64(1), debug[1].Params[0])
}

func TestInstrumentRestyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &Recorder{}
	client := resty.New()
	InstrumentResty(client, rec, "test")

	_, err := client.R().Get(url)
	require.Error(t, err)

	warnings := rec.Reports(REPORT_WARNING)
	require.Len(t, warnings, 1)
	require.Equal(t, report_resty_response, warnings[0].ID)
}

func TestSetupWithoutExporters(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
