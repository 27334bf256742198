package observer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"szuro.net/zts/pkg/alert"
	"szuro.net/zts/pkg/trapper"
	"szuro.net/zts/pkg/zbx"
)

const (
	STDOUT = "stdout"
	STDERR = "stderr"
)

// Print writes the records it would send instead of sending them.
type Print struct {
	baseObserver
	out io.Writer
}

func NewPrint(name, out string, ep zbx.Endpoint) (p *Print) {
	p = &Print{
		baseObserver: newBaseObserver(name, PRINT_OBSERVER, ep),
	}
	if out == STDERR {
		p.out = os.Stderr
	} else {
		p.out = os.Stdout
	}

	return
}

func (p *Print) Notify(ctx context.Context, a alert.Alert) {
	if !p.accept(a) {
		return
	}
	if len(a.Messages) == 0 {
		p.report(ctx, a, trapper.Outcome{Kind: trapper.Skipped})
		return
	}

	start := time.Now()
	records := zbx.BuildRecords(p.endpoint, a.Messages)
	out := trapper.Outcome{Kind: trapper.Delivered, Records: len(records)}
	for _, r := range records {
		msg := fmt.Sprintf("Host: %s; Key: %s; Clock: %d; Value: %s", r.Host, r.Key, r.Clock, r.Value)
		if _, err := fmt.Fprintln(p.out, msg); err != nil {
			out.Kind = trapper.TransportFailed
			out.Err = err
			break
		}
	}
	if out.Kind == trapper.Delivered {
		out.Response = zbx.Response{
			Response: zbx.SUCCESS,
			Info:     fmt.Sprintf("processed: %d; failed: 0; total: %d", len(records), len(records)),
		}
	}
	out.Duration = time.Since(start)
	p.report(ctx, a, out)
}
