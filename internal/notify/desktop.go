package notify

import (
	"context"
	"fmt"
	"os/exec"
)

const desktopCommand = "notify-send"

type runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// Desktop shows notifications through the freedesktop notification daemon.
type Desktop struct {
	appName    string
	ordersLink string
	command    string
	run        runner
}

// NewDesktop fails when no notification renderer is installed.
func NewDesktop(appName, ordersLink string) (*Desktop, error) {
	command, err := exec.LookPath(desktopCommand)
	if err != nil {
		return nil, fmt.Errorf("desktop notifications unavailable: %w", err)
	}
	return newDesktop(appName, ordersLink, command, execRunner), nil
}

func newDesktop(appName, ordersLink, command string, run runner) *Desktop {
	if appName == "" {
		appName = "Ticketmaster Order Status"
	}
	return &Desktop{
		appName:    appName,
		ordersLink: ordersLink,
		command:    command,
		run:        run,
	}
}

func (d *Desktop) body(n Notification) string {
	if !n.Linked || d.ordersLink == "" {
		return n.Message
	}
	return fmt.Sprintf(`%s. <a href="%s">More</a>`, n.Message, d.ordersLink)
}

func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	return d.run(
		ctx,
		d.command,
		"--app-name", d.appName,
		"--urgency", n.Severity.String(),
		n.Title,
		d.body(n),
	)
}

func (d *Desktop) Close() error {
	return nil
}
