// Package restyutil writes the http exchanges of resty clients somewhere a human
// can read them, mostly to see what the site actually answered.
package restyutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"ticketwatch/internal/components/assert"
	"ticketwatch/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_dump_write = "dump.write"

type Output interface {
	Write(id string, contents string) error
}

// DirectoryOutput writes every exchange to its own file.
type DirectoryOutput struct {
	directory string
}

func NewDirectoryOutput(dir string) (DirectoryOutput, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return DirectoryOutput{}, err
	}
	return DirectoryOutput{directory: dir}, nil
}

func (o DirectoryOutput) Write(id string, contents string) error {
	return os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
}

// Dumper numbers exchanges across every client it instruments.
type Dumper struct {
	output  Output
	tel     telemetry.API
	counter *uint64
}

func NewDumper(output Output, tel telemetry.API) *Dumper {
	assert.NotNil(output)
	assert.NotNil(tel)

	var counter uint64
	return &Dumper{
		output:  output,
		tel:     telemetry.NewScopedAPI("restyutil", tel),
		counter: &counter,
	}
}

func (d *Dumper) Instrument(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := fmt.Sprintf("%04d_%s", atomic.AddUint64(d.counter, 1), res.Request.Method)
		err := d.output.Write(id, FormatExchange(res))
		if err != nil {
			d.tel.ReportWarning(report_dump_write, id, err)
		}
		return nil
	})
}
