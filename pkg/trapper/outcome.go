package trapper

import (
	"time"

	"szuro.net/zts/pkg/zbx"
)

type Kind int

const (
	// Skipped means there was nothing to send and no connection was made.
	Skipped Kind = iota

	// Delivered means the server answered with a well-formed response,
	// whether or not it accepted every record.
	Delivered

	// TransportFailed means the round trip could not be completed: the
	// request was not encoded or sent, or no answer came back.
	TransportFailed

	// ProtocolFailed means the server answered with bytes that could not be
	// parsed as a response.
	ProtocolFailed
)

func (k Kind) String() string {
	switch k {
	case Skipped:
		return "skipped"
	case Delivered:
		return "delivered"
	case TransportFailed:
		return "transport_failed"
	case ProtocolFailed:
		return "protocol_failed"
	}
	return "unknown"
}

// Outcome is the result of a single Send.
type Outcome struct {
	Kind Kind

	// Response is set only for Delivered.
	Response zbx.Response

	// Err is set for TransportFailed and ProtocolFailed.
	Err error

	// Records is the number of records sent.
	Records int

	Duration time.Duration
}

// Accepted is true for a delivery the server fully accepted.
func (o Outcome) Accepted() bool {
	return o.Kind == Delivered && o.Response.Success()
}
