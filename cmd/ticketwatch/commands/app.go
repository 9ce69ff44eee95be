package commands

import (
	"context"
	"errors"
	"log/slog"
	"ticketwatch/internal/components/chrono"
	"ticketwatch/internal/components/restyutil"
	"ticketwatch/internal/components/telemetry"
	"ticketwatch/internal/notify"
	"ticketwatch/internal/poller"
	"ticketwatch/internal/ticketmaster"
	"time"
)

const (
	report_app_close_notifier = "app.close-notifier"
	report_app_shutdown       = "app.shutdown"
)

// app holds everything a batch needs, the notifier is opened and closed per batch
// so buffering sinks flush after every run.
type app struct {
	cfg        Config
	creds      ticketmaster.Credentials
	auth       poller.Authenticator
	notifyOpts notify.Options
	clock      chrono.StandardImpl
	otel       telemetry.Telemetry
	tel        telemetry.API
}

func newApp(ctx context.Context, cfg Config) (app, error) {
	tel := telemetry.SlogAPI{}

	otel, err := telemetry.Setup(ctx, "ticketwatch", cfg.Telemetry)
	if err != nil {
		return app{}, err
	}

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return app{}, errors.Join(err, otel.Shutdown(ctx))
	}

	var dumper *restyutil.Dumper
	if cfg.DumpHttpDir != "" {
		output, err := restyutil.NewDirectoryOutput(cfg.DumpHttpDir)
		if err != nil {
			return app{}, errors.Join(err, otel.Shutdown(ctx))
		}
		dumper = restyutil.NewDumper(output, tel)
	}

	client, err := ticketmaster.NewClient(ticketmaster.ClientOptions{
		BaseUrl:           cfg.BaseUrl,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		BypassCloudflare:  cfg.BypassCloudflare,
		Dumper:            dumper,
	}, tel)
	if err != nil {
		return app{}, errors.Join(err, otel.Shutdown(ctx))
	}

	return app{
		cfg: cfg,
		creds: ticketmaster.Credentials{
			Email:    cfg.Email,
			Password: cfg.Password,
		},
		auth: poller.FromClient(client),
		notifyOpts: notify.Options{
			Sinks:      cfg.Notify,
			AppName:    cfg.AppName,
			OrdersLink: client.LoginUrl(),
			Email:      cfg.Mail,
			Time:       clock,
		},
		clock: clock,
		otel:  otel,
		tel:   tel,
	}, nil
}

func (a app) check(ctx context.Context) (poller.Report, error) {
	dispatcher, err := notify.Open(a.notifyOpts)
	if err != nil {
		return poller.Report{}, err
	}
	defer func() {
		err := dispatcher.Close()
		if err != nil {
			a.tel.ReportBroken(report_app_close_notifier, err)
		}
	}()

	report, err := poller.New(a.auth, dispatcher, a.tel).Run(ctx, a.creds, a.cfg.OrderIds)
	if err != nil {
		return report, err
	}
	slog.Info(
		"checked orders",
		"batch", report.BatchID,
		"classified", len(report.Results),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (a app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := a.otel.Shutdown(ctx)
	if err != nil {
		a.tel.ReportWarning(report_app_shutdown, err)
	}
}
