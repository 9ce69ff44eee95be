package poller

import (
	"context"
	"errors"
	"fmt"
	"ticketwatch/internal/components/assert"
	"ticketwatch/internal/components/telemetry"
	"ticketwatch/internal/notify"
	"ticketwatch/internal/status"
	"ticketwatch/internal/ticketmaster"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_poller_run         = "poller.run"
	report_poller_notify      = "poller.notify"
	report_poller_orders      = "poller.orders"
	report_poller_failed      = "poller.failed-orders"
	report_poller_fetch_order = "poller.fetch-order"
)

const (
	loginFailedTitle   = "Cannot log into Ticketmaster"
	loginFailedMessage = "Login failed"
	orderTitleFormat   = "Ticketmaster Order %s"
	orderFailedMessage = "Cannot check order status"
)

var tracer = otel.Tracer("ticketwatch/poller")

// Session fetches order pages for an authenticated user.
type Session interface {
	FetchOrder(ctx context.Context, orderId string) (string, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, creds ticketmaster.Credentials) (Session, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds ticketmaster.Credentials) (Session, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds ticketmaster.Credentials) (Session, error) {
	return f(ctx, creds)
}

// FromClient makes the ticketmaster client usable as an Authenticator.
func FromClient(client *ticketmaster.Client) Authenticator {
	return AuthenticatorFunc(func(ctx context.Context, creds ticketmaster.Credentials) (Session, error) {
		session, err := client.Authenticate(ctx, creds)
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

// Report summarizes one batch.
type Report struct {
	BatchID string
	// Results holds a result for every order that could be fetched, in input order.
	Results []status.Result
	// Failed holds the order ids that could not be fetched, in input order.
	Failed []string
	// LoginErr is set when the batch stopped at authentication.
	LoginErr error
}

// Poller runs batches of order checks one order at a time.
type Poller struct {
	auth     Authenticator
	notifier notify.Notifier
	tel      telemetry.API
}

func New(auth Authenticator, notifier notify.Notifier, tel telemetry.API) Poller {
	assert.NotNil(auth)
	assert.NotNil(notifier)
	assert.NotNil(tel)

	return Poller{
		auth:     auth,
		notifier: notifier,
		tel:      telemetry.NewScopedAPI("poller", tel),
	}
}

func newBatchId() string {
	id, err := random.String(8)
	if err != nil {
		return "unknown"
	}
	return id
}

func (p Poller) notify(ctx context.Context, n notify.Notification) {
	err := p.notifier.Notify(ctx, n)
	if err != nil {
		p.tel.ReportBroken(report_poller_notify, err, n.Title)
	}
}

// Run logs in once and then checks every order in sequence. A login failure emits a
// single notification and returns the *ticketmaster.AuthenticationError, a failed
// order emits a failure notification for that order and the batch continues.
func (p Poller) Run(ctx context.Context, creds ticketmaster.Credentials, orderIds []string) (Report, error) {
	report := Report{BatchID: newBatchId()}

	ctx, span := tracer.Start(ctx, "poller:Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch_id", report.BatchID),
		attribute.Int("orders", len(orderIds)),
	)

	session, err := p.auth.Authenticate(ctx, creds)
	if err != nil {
		var authErr *ticketmaster.AuthenticationError
		if !errors.As(err, &authErr) {
			err = &ticketmaster.AuthenticationError{Err: err}
		}
		p.tel.ReportWarning(report_poller_run, report.BatchID, err)
		span.SetStatus(codes.Error, "login failed")

		p.notify(ctx, notify.Notification{
			Title:    loginFailedTitle,
			Message:  loginFailedMessage,
			Severity: status.SEVERITY_CRITICAL,
		})
		report.LoginErr = err
		return report, err
	}

	for _, orderId := range orderIds {
		title := fmt.Sprintf(orderTitleFormat, orderId)

		content, err := session.FetchOrder(ctx, orderId)
		if err != nil {
			p.tel.ReportWarning(report_poller_fetch_order, report.BatchID, orderId, err)
			report.Failed = append(report.Failed, orderId)
			p.notify(ctx, notify.Notification{
				Title:    title,
				Message:  orderFailedMessage,
				Severity: status.SEVERITY_CRITICAL,
			})
			continue
		}

		result := status.Classify(orderId, content)
		report.Results = append(report.Results, result)
		p.notify(ctx, notify.Notification{
			Title:    title,
			Message:  result.Message,
			Severity: result.Severity,
			Linked:   result.Status != status.STATUS_UNKNOWN,
		})
	}

	p.tel.ReportCount(report_poller_orders, int64(len(report.Results)))
	p.tel.ReportCount(report_poller_failed, int64(len(report.Failed)))
	if len(report.Failed) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d orders failed", len(report.Failed)))
	}

	return report, nil
}
