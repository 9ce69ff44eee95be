package notify

import (
	"context"
	"io"
	"os"
	"sync"
	"ticketwatch/internal/components/chrono"
	"ticketwatch/internal/status"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type consoleRow struct {
	at time.Time
	n  Notification
}

// Console collects notifications and prints them as one table on Close.
type Console struct {
	out  io.Writer
	time chrono.TimeAPI

	mutex sync.Mutex
	rows  []consoleRow
}

func NewConsole(out io.Writer, clock chrono.TimeAPI) *Console {
	if out == nil {
		out = os.Stdout
	}
	if clock == nil {
		clock, _ = chrono.NewStandardImpl("")
	}
	return &Console{out: out, time: clock}
}

func (c *Console) Notify(_ context.Context, n Notification) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.rows = append(c.rows, consoleRow{at: c.time.Now(), n: n})
	return nil
}

func severityColors(s status.Severity) text.Colors {
	switch s {
	case status.SEVERITY_LOW:
		return text.Colors{text.FgHiBlack}
	case status.SEVERITY_CRITICAL:
		return text.Colors{text.FgRed, text.Bold}
	}
	return text.Colors{text.FgGreen}
}

func (c *Console) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.rows) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"Checked at", "Title", "Message", "Severity"})
	for _, row := range c.rows {
		t.AppendRow(table.Row{
			row.at.Format(time.DateTime),
			row.n.Title,
			row.n.Message,
			severityColors(row.n.Severity).Sprint(row.n.Severity.String()),
		})
	}
	t.Render()

	c.rows = nil
	return nil
}
