// Package notify surfaces order results to the user. A Dispatcher owns the
// configured sinks from Open until Close.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"ticketwatch/internal/components/chrono"
	"ticketwatch/internal/status"
)

type Notification struct {
	Title    string
	Message  string
	Severity status.Severity
	// Linked notifications report a known order status, sinks that can show the
	// orders link do so only for these.
	Linked bool
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Sink is a Notifier with resources that must be released, sinks that buffer
// flush on Close.
type Sink interface {
	Notifier
	io.Closer
}

const (
	SINK_DESKTOP = "desktop"
	SINK_CONSOLE = "console"
	SINK_EMAIL   = "email"
)

type Options struct {
	// Sinks names the sinks to open, see the SINK_ constants.
	Sinks []string
	// AppName is shown by the desktop renderer.
	AppName string
	// OrdersLink is appended to desktop notifications when set.
	OrdersLink string
	// Console defaults to stdout.
	Console io.Writer
	Email   EmailConfig
	Time    chrono.TimeAPI
}

// Dispatcher fans every notification out to its sinks.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Open initializes every sink named in opts, if one fails the ones already opened
// are closed again.
func Open(opts Options) (*Dispatcher, error) {
	d := &Dispatcher{}
	seen := map[string]bool{}
	for _, name := range opts.Sinks {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		sink, err := openSink(name, opts)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open %s notifier: %w", name, err), d.Close())
		}
		d.sinks = append(d.sinks, sink)
	}
	if len(d.sinks) == 0 {
		return nil, fmt.Errorf("no notification sink configured")
	}
	return d, nil
}

func openSink(name string, opts Options) (Sink, error) {
	switch name {
	case SINK_DESKTOP:
		return NewDesktop(opts.AppName, opts.OrdersLink)
	case SINK_CONSOLE:
		return NewConsole(opts.Console, opts.Time), nil
	case SINK_EMAIL:
		return NewEmail(opts.Email, opts.Time)
	}
	return nil, fmt.Errorf("unknown notification sink '%s'", name)
}

func (d *Dispatcher) Notify(ctx context.Context, n Notification) error {
	var errlist []error
	for _, sink := range d.sinks {
		err := sink.Notify(ctx, n)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func (d *Dispatcher) Close() error {
	var errlist []error
	for _, sink := range d.sinks {
		err := sink.Close()
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	d.sinks = nil
	return errors.Join(errlist...)
}
