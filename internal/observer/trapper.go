package observer

import (
	"context"
	"time"

	"szuro.net/zts/internal/logger"
	"szuro.net/zts/pkg/alert"
	"szuro.net/zts/pkg/trapper"
	"szuro.net/zts/pkg/zbx"
)

// Trapper forwards the messages of every alert to a Zabbix trapper item.
type Trapper struct {
	baseObserver
	client *trapper.Client
}

func NewTrapper(name string, ep zbx.Endpoint, timeout time.Duration, compress bool) (t *Trapper) {
	t = &Trapper{
		baseObserver: newBaseObserver(name, ZABBIX_OBSERVER, ep),
	}
	hclogger := logger.NewHCLogAdapter().Named("trapper").With("channel", name)
	t.client = trapper.NewClient(timeout, compress, hclogger)
	return
}

func (t *Trapper) Notify(ctx context.Context, a alert.Alert) {
	if !t.accept(a) {
		return
	}
	out := t.client.Send(ctx, t.endpoint, trapper.Messages(a.Messages))
	t.report(ctx, a, out)
}
