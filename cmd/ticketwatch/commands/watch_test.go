package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingSite struct {
	logins int64
	orders int64
	// onOrder runs after an order page was written
	onOrder func()
}

func (s *countingSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.logins, 1)
		fmt.Fprint(w, "Bem-vindo")
	})
	mux.HandleFunc("/order-detail", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.orders, 1)
		fmt.Fprint(w, "VendaOk")
		if s.onOrder != nil {
			s.onOrder()
		}
	})
	return mux
}

func newWatchArgs(t *testing.T, baseUrl string, extra ...string) []string {
	t.Helper()
	path := writeConfig(t, fmt.Sprintf(`{ base_url: "%s", notify: ["console"] }`, baseUrl))
	args := []string{"watch", "--config", path, "-e", "fan@example.com", "-p", "hunter2", "-o", "1"}
	return append(args, extra...)
}

func TestWatchRejectsInvalidSchedule(t *testing.T) {
	site := &countingSite{}
	srv := httptest.NewServer(site.handler())
	defer srv.Close()

	cmd := newRootCmd(&cliFlags{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(newWatchArgs(t, srv.URL, "--schedule", "every now and then"))

	err := cmd.Execute()
	require.ErrorContains(t, err, "invalid schedule 'every now and then'")
	require.Equal(t, int64(0), atomic.LoadInt64(&site.logins))
	require.Equal(t, int64(0), atomic.LoadInt64(&site.orders))
}

func TestWatchRejectsInvalidConfiguredSchedule(t *testing.T) {
	site := &countingSite{}
	srv := httptest.NewServer(site.handler())
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf(`{ base_url: "%s", notify: ["console"], watch: { schedule: "soon" } }`, srv.URL))

	cmd := newRootCmd(&cliFlags{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", "--config", path, "-e", "fan@example.com", "-p", "x", "-o", "1"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "invalid schedule 'soon'")
	require.Equal(t, int64(0), atomic.LoadInt64(&site.logins))
}

func TestWatchChecksImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	site := &countingSite{onOrder: cancel}
	srv := httptest.NewServer(site.handler())
	defer srv.Close()

	cmd := newRootCmd(&cliFlags{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(newWatchArgs(t, srv.URL, "--schedule", "@every 1h"))

	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop after its context was cancelled")
	}
	require.Equal(t, int64(1), atomic.LoadInt64(&site.logins))
	require.Equal(t, int64(1), atomic.LoadInt64(&site.orders))
}

func TestWatchMissingFlagsPrintUsage(t *testing.T) {
	site := &countingSite{}
	srv := httptest.NewServer(site.handler())
	defer srv.Close()

	path := writeConfig(t, fmt.Sprintf(`{ base_url: "%s" }`, srv.URL))

	out := &bytes.Buffer{}
	cmd := newRootCmd(&cliFlags{})
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"watch", "--config", path, "--schedule", "@every 1m"})

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "--schedule")
	require.Equal(t, int64(0), atomic.LoadInt64(&site.logins))
}
