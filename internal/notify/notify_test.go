package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"ticketwatch/internal/components/chrono"
	"ticketwatch/internal/status"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"
)

var fixedTime = chrono.FixedImpl{Time: time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)}

type call struct {
	name string
	args []string
}

func TestDesktopArguments(t *testing.T) {
	var calls []call
	run := func(_ context.Context, name string, args ...string) error {
		calls = append(calls, call{name: name, args: args})
		return nil
	}

	d := newDesktop("", "", "/usr/bin/notify-send", run)
	err := d.Notify(context.Background(), Notification{
		Title:    "Ticketmaster Order 123",
		Message:  "Order billed",
		Severity: status.SEVERITY_NORMAL,
	})
	require.NoError(t, err)

	linked := newDesktop("App", "https://example.com/login", "notify-send", run)
	err = linked.Notify(context.Background(), Notification{
		Title:    "Ticketmaster Order 9",
		Message:  "Order rejected",
		Severity: status.SEVERITY_CRITICAL,
		Linked:   true,
	})
	require.NoError(t, err)

	err = linked.Notify(context.Background(), Notification{
		Title:    "Ticketmaster Order 10",
		Message:  "Cannot check order status",
		Severity: status.SEVERITY_CRITICAL,
	})
	require.NoError(t, err)

	expected := []call{
		{
			name: "/usr/bin/notify-send",
			args: []string{"--app-name", "Ticketmaster Order Status", "--urgency", "normal", "Ticketmaster Order 123", "Order billed"},
		},
		{
			name: "notify-send",
			args: []string{"--app-name", "App", "--urgency", "critical", "Ticketmaster Order 9", `Order rejected. <a href="https://example.com/login">More</a>`},
		},
		{
			name: "notify-send",
			args: []string{"--app-name", "App", "--urgency", "critical", "Ticketmaster Order 10", "Cannot check order status"},
		},
	}
	if diff := cmp.Diff(expected, calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Fatalf("unexpected calls (-want +got):\n%s", diff)
	}
}

func TestConsoleRendersOnClose(t *testing.T) {
	out := &bytes.Buffer{}
	c := NewConsole(out, fixedTime)

	require.NoError(t, c.Notify(context.Background(), Notification{Title: "Ticketmaster Order 1", Message: "Order billed", Severity: status.SEVERITY_NORMAL}))
	require.NoError(t, c.Notify(context.Background(), Notification{Title: "Ticketmaster Order 2", Message: "Order status not found", Severity: status.SEVERITY_CRITICAL}))
	require.Empty(t, out.String())

	require.NoError(t, c.Close())
	rendered := out.String()
	require.Contains(t, rendered, "Ticketmaster Order 1")
	require.Contains(t, rendered, "Order status not found")
	require.Contains(t, rendered, "2024-03-01 18:30:00")

	out.Reset()
	require.NoError(t, c.Close())
	require.Empty(t, out.String())
}

func TestEmailDigest(t *testing.T) {
	var sent []*email.Email
	e, err := NewEmail(EmailConfig{
		Server:       "smtp.example.com",
		EmailAddress: "bot@example.com",
		To:           []string{"fan@example.com"},
		MinSeverity:  "normal",
	}, fixedTime)
	require.NoError(t, err)
	e.send = func(mail *email.Email) error {
		sent = append(sent, mail)
		return nil
	}

	ctx := context.Background()
	require.NoError(t, e.Notify(ctx, Notification{Title: "Ticketmaster Order 1", Message: "Order not processed yet", Severity: status.SEVERITY_LOW}))
	require.NoError(t, e.Notify(ctx, Notification{Title: "Ticketmaster Order 2", Message: "Order billed", Severity: status.SEVERITY_NORMAL}))
	require.NoError(t, e.Notify(ctx, Notification{Title: "Ticketmaster Order 3", Message: "Order rejected", Severity: status.SEVERITY_CRITICAL}))
	require.NoError(t, e.Close())

	require.Len(t, sent, 1)
	mail := sent[0]
	require.Equal(t, []string{"fan@example.com"}, mail.To)
	require.Equal(t, "Ticketmaster order status (2 updates)", mail.Subject)
	body := string(mail.Text)
	require.False(t, strings.Contains(body, "Order not processed yet"))
	require.Contains(t, body, "[normal] Ticketmaster Order 2: Order billed")
	require.Contains(t, body, "[critical] Ticketmaster Order 3: Order rejected")

	// nothing pending, nothing sent
	require.NoError(t, e.Close())
	require.Len(t, sent, 1)
}

func TestEmailConfigValidation(t *testing.T) {
	_, err := NewEmail(EmailConfig{}, nil)
	require.Error(t, err)

	_, err = NewEmail(EmailConfig{Server: "s", EmailAddress: "a@b.c"}, nil)
	require.Error(t, err)

	_, err = NewEmail(EmailConfig{Server: "s", EmailAddress: "a@b.c", To: []string{"x@y.z"}, MinSeverity: "urgent"}, nil)
	require.Error(t, err)

	e, err := NewEmail(EmailConfig{Server: "s", EmailAddress: "a@b.c", To: []string{"x@y.z"}}, nil)
	require.NoError(t, err)
	require.Equal(t, 587, e.config.Port)
}

type fakeSink struct {
	notified []Notification
	closed   bool
	err      error
}

func (f *fakeSink) Notify(_ context.Context, n Notification) error {
	f.notified = append(f.notified, n)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func TestDispatcherFansOut(t *testing.T) {
	failing := &fakeSink{err: errors.New("renderer crashed")}
	ok := &fakeSink{}
	d := NewDispatcher(failing, ok)

	n := Notification{Title: "Ticketmaster Order 1", Message: "Order billed", Severity: status.SEVERITY_NORMAL}
	err := d.Notify(context.Background(), n)
	require.ErrorContains(t, err, "renderer crashed")
	require.Equal(t, []Notification{n}, failing.notified)
	require.Equal(t, []Notification{n}, ok.notified)

	require.NoError(t, d.Close())
	require.True(t, failing.closed)
	require.True(t, ok.closed)
}

func TestOpen(t *testing.T) {
	_, err := Open(Options{})
	require.Error(t, err)

	_, err = Open(Options{Sinks: []string{" ", ""}})
	require.ErrorContains(t, err, "no notification sink configured")

	_, err = Open(Options{Sinks: []string{"pager"}})
	require.ErrorContains(t, err, "unknown notification sink")

	out := &bytes.Buffer{}
	d, err := Open(Options{Sinks: []string{" Console ", "console"}, Console: out, Time: fixedTime})
	require.NoError(t, err)
	require.Len(t, d.sinks, 1)

	require.NoError(t, d.Notify(context.Background(), Notification{Title: "Ticketmaster Order 7", Message: "Charging your tickets"}))
	require.NoError(t, d.Close())
	require.Contains(t, out.String(), "Charging your tickets")
}
