// Package status classifies a raw order page into an order status by looking for
// the status markers the ticketing site embeds in it.
//
// Matching is substring presence over the whole page, nothing is parsed. A marker
// that shows up incidentally elsewhere on the page (in a script or a link) will
// still match.
package status

import (
	"strings"
)

type Severity int

const (
	SEVERITY_LOW Severity = iota
	SEVERITY_NORMAL
	SEVERITY_CRITICAL
)

func (s Severity) String() string {
	switch s {
	case SEVERITY_LOW:
		return "low"
	case SEVERITY_NORMAL:
		return "normal"
	case SEVERITY_CRITICAL:
		return "critical"
	}
	return "unknown"
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SEVERITY_LOW, true
	case "normal":
		return SEVERITY_NORMAL, true
	case "critical":
		return SEVERITY_CRITICAL, true
	}
	return SEVERITY_LOW, false
}

type Status int

const (
	STATUS_UNKNOWN Status = iota
	STATUS_LIVRE
	STATUS_STD_RESERVA
	STATUS_STD_COBRANCA
	STATUS_VENDA_OK
	STATUS_RECUSADA
)

type descriptor struct {
	marker   string
	message  string
	severity Severity
}

var descriptors = map[Status]descriptor{
	STATUS_UNKNOWN:      {marker: "Unknown", message: "Order status not found", severity: SEVERITY_CRITICAL},
	STATUS_LIVRE:        {marker: "Livre", message: "Order not processed yet", severity: SEVERITY_LOW},
	STATUS_STD_RESERVA:  {marker: "StdReserva", message: "Reserving your tickets", severity: SEVERITY_NORMAL},
	STATUS_STD_COBRANCA: {marker: "StdCobranca", message: "Charging your tickets", severity: SEVERITY_NORMAL},
	STATUS_VENDA_OK:     {marker: "VendaOk", message: "Order billed", severity: SEVERITY_NORMAL},
	STATUS_RECUSADA:     {marker: "Recusada", message: "Order rejected", severity: SEVERITY_CRITICAL},
}

// Priority is the order markers are tested in, the first one present wins.
var Priority = []Status{
	STATUS_LIVRE,
	STATUS_STD_RESERVA,
	STATUS_STD_COBRANCA,
	STATUS_VENDA_OK,
	STATUS_RECUSADA,
}

// Marker is the raw string the site puts on the order page for this status.
func (s Status) Marker() string {
	return descriptors[s].marker
}

func (s Status) Message() string {
	return descriptors[s].message
}

func (s Status) Severity() Severity {
	return descriptors[s].severity
}

func (s Status) String() string {
	d, ok := descriptors[s]
	if !ok {
		return descriptors[STATUS_UNKNOWN].marker
	}
	return d.marker
}

// Result is the classification of one order page.
type Result struct {
	OrderID  string
	Status   Status
	Message  string
	Severity Severity
}

// Match returns the first status in Priority whose marker is present in content.
func Match(content string) Status {
	for _, s := range Priority {
		if strings.Contains(content, s.Marker()) {
			return s
		}
	}
	return STATUS_UNKNOWN
}

// Classify never fails, a page without any known marker is STATUS_UNKNOWN.
func Classify(orderId, content string) Result {
	s := Match(content)
	return Result{
		OrderID:  orderId,
		Status:   s,
		Message:  s.Message(),
		Severity: s.Severity(),
	}
}
