// Package trapper sends trapper events to a Zabbix server or proxy.
//
// Every call opens its own TCP connection, writes one "sender data" request,
// reads one response and closes the connection. Nothing is pooled, batched
// across calls or retried, so a Client can be shared by any number of
// goroutines.
//
// Send never fails: it reports what happened as an Outcome which the caller
// is expected to log.
//
//	out := trapper.Send(ctx, ep, a.Messages)
//	switch out.Kind {
//	case trapper.Delivered:
//	    if !out.Response.Success() { ... }
//	case trapper.TransportFailed, trapper.ProtocolFailed:
//	    log.Println(out.Err)
//	}
package trapper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/go-hclog"
	"szuro.net/zts/pkg/zbx"
)

const DEFAULT_TIMEOUT = 3 * time.Second

// TransportError means the network round trip could not be completed.
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("zabbix transport: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline.
func (e *TransportError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

type Client struct {
	// Timeout bounds the whole exchange: connect, write and read.
	Timeout time.Duration

	// Compress enables zlib compression of requests.
	Compress bool

	Logger hclog.Logger

	// dial is replaced in tests
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewClient(timeout time.Duration, compress bool, logger hclog.Logger) *Client {
	return &Client{Timeout: timeout, Compress: compress, Logger: logger}
}

var defaultClient = &Client{}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DEFAULT_TIMEOUT
	}
	return c.Timeout
}

func (c *Client) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}

func (c *Client) dialContext(ctx context.Context, addr string) (net.Conn, error) {
	if c.dial != nil {
		return c.dial(ctx, "tcp", addr)
	}
	d := net.Dialer{Timeout: c.timeout()}
	return d.DialContext(ctx, "tcp", addr)
}

// Exchange performs one request/response round trip on a fresh connection.
// Errors are either *TransportError or *zbx.ProtocolError. A request that
// cannot be encoded never reaches the network and is reported as a
// *TransportError with Op "encode".
func (c *Client) Exchange(ctx context.Context, ep zbx.Endpoint, req zbx.Request) (resp zbx.Response, err error) {
	addr := ep.Address()
	frame, err := zbx.EncodeRequest(req, c.Compress)
	if err != nil {
		return resp, &TransportError{Op: "encode", Addr: addr, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	conn, err := c.dialContext(ctx, addr)
	if err != nil {
		return resp, &TransportError{Op: "dial", Addr: addr, Err: err}
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err = conn.SetDeadline(deadline); err != nil {
			return resp, &TransportError{Op: "set deadline", Addr: addr, Err: err}
		}
	}

	c.logger().Trace("sending request", "addr", addr, "records", len(req.Data), "bytes", len(frame))
	if _, err = conn.Write(frame); err != nil {
		return resp, &TransportError{Op: "write", Addr: addr, Err: err}
	}

	resp, err = zbx.DecodeResponse(conn)
	if err != nil {
		var pe *zbx.ProtocolError
		if !errors.As(err, &pe) {
			err = &TransportError{Op: "read", Addr: addr, Err: err}
		}
		return
	}
	c.logger().Trace("received response", "addr", addr, "response", resp.Response, "info", resp.Info)
	return
}

// Send builds one record per message and delivers them in a single request.
// With no messages nothing is sent and the outcome is Skipped.
func (c *Client) Send(ctx context.Context, ep zbx.Endpoint, messages []zbx.Message) (out Outcome) {
	if len(messages) == 0 {
		return Outcome{Kind: Skipped}
	}

	req := zbx.NewRequest(zbx.BuildRecords(ep, messages))
	req.Clock = time.Now().Unix()
	out.Records = len(req.Data)

	start := time.Now()
	resp, err := c.Exchange(ctx, ep, req)
	out.Duration = time.Since(start)
	out.Response = resp
	out.Err = err
	out.Kind = classify(err)

	c.logger().Debug("send finished",
		"addr", ep.Address(),
		"outcome", out.Kind.String(),
		"records", out.Records,
		"duration", out.Duration,
		"info", resp.Info,
		"error", err)
	return
}

func classify(err error) Kind {
	var te *TransportError
	switch {
	case err == nil:
		return Delivered
	case errors.As(err, &te):
		return TransportFailed
	default:
		return ProtocolFailed
	}
}

// Send uses a client with default settings.
func Send[M zbx.Message](ctx context.Context, ep zbx.Endpoint, messages []M) Outcome {
	return defaultClient.Send(ctx, ep, Messages(messages))
}

// Messages converts a typed slice into the form Client.Send accepts.
func Messages[M zbx.Message](messages []M) []zbx.Message {
	m := make([]zbx.Message, len(messages))
	for i := range messages {
		m[i] = messages[i]
	}
	return m
}
