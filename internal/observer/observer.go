// Package observer holds the notification channels alerts are fanned out to.
package observer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"szuro.net/zts/internal/config"
	"szuro.net/zts/internal/journal"
	"szuro.net/zts/internal/logger"
	"szuro.net/zts/pkg/alert"
	"szuro.net/zts/pkg/filter"
	"szuro.net/zts/pkg/trapper"
	"szuro.net/zts/pkg/zbx"
)

const (
	FILTERED = "filtered"
	REJECTED = "rejected"
)

const (
	ZABBIX_OBSERVER = "zabbix"
	PRINT_OBSERVER  = "print"
)

// JOURNAL_TIMEOUT bounds a single journal write.
const JOURNAL_TIMEOUT = 5 * time.Second

var (
	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_notifications_total",
			Help: "Total number of alerts handled per channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	recordsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_records_processed_total",
			Help: "Records the Zabbix server reported as processed",
		},
		[]string{"channel"},
	)

	recordsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zts_records_failed_total",
			Help: "Records the Zabbix server reported as failed",
		},
		[]string{"channel"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zts_send_duration_seconds",
			Help:    "Duration of a single trapper exchange",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
)

// Observer receives every alert that passed the global filter.
// Notify must not return before the alert is fully handled and never fails.
type Observer interface {
	Cleanup()
	GetName() string
	Notify(ctx context.Context, a alert.Alert)
}

type baseObserver struct {
	name         string
	observerType string
	endpoint     zbx.Endpoint
	localFilter  filter.Filter
	journal      journal.Journal
	log          *logger.ZTSLogger
}

func newBaseObserver(name, observerType string, ep zbx.Endpoint) baseObserver {
	return baseObserver{
		name:         name,
		observerType: observerType,
		endpoint:     ep,
		localFilter:  filter.NewEmptyFilter(),
		log:          logger.Default().With(slog.String("channel", name), slog.String("type", observerType)),
	}
}

// GetName returns the name of the observer.
func (bo *baseObserver) GetName() string {
	return bo.name
}

// SetFilter sets the local filter for the observer.
func (bo *baseObserver) SetFilter(f filter.Filter) {
	if f == nil {
		f = filter.NewEmptyFilter()
	}
	bo.localFilter = f
}

// SetJournal makes the observer record every outcome. A nil journal disables it.
func (bo *baseObserver) SetJournal(j journal.Journal) {
	bo.journal = j
}

func (bo *baseObserver) Cleanup() {}

func (bo *baseObserver) accept(a alert.Alert) bool {
	if bo.localFilter.AcceptAlert(a) {
		return true
	}
	notifications.WithLabelValues(bo.name, FILTERED).Inc()
	bo.log.Debug("Alert rejected by channel filter", slog.String("stream", a.Stream))
	return false
}

// outcomeLabel splits Delivered into delivered and rejected.
func outcomeLabel(out trapper.Outcome) string {
	if out.Kind == trapper.Delivered && !out.Response.Success() {
		return REJECTED
	}
	return out.Kind.String()
}

// report logs the outcome, updates metrics and writes the journal.
func (bo *baseObserver) report(ctx context.Context, a alert.Alert, out trapper.Outcome) {
	label := outcomeLabel(out)
	notifications.WithLabelValues(bo.name, label).Inc()

	if out.Kind != trapper.Skipped {
		sendDuration.WithLabelValues(bo.name).Observe(out.Duration.Seconds())
	}
	// a dry run has no server counts to report
	if counts, ok := out.Response.Counts(); ok && bo.observerType != PRINT_OBSERVER {
		recordsProcessed.WithLabelValues(bo.name).Add(float64(counts.Processed))
		recordsFailed.WithLabelValues(bo.name).Add(float64(counts.Failed))
	}

	attrs := []any{
		slog.String("stream", a.Stream),
		slog.Int("records", out.Records),
	}
	switch {
	case out.Kind == trapper.Skipped:
		bo.log.Debug("Alert has no messages, nothing sent", attrs...)
	case out.Accepted():
		bo.log.Debug("Alert delivered", append(attrs, slog.String("info", out.Response.Info))...)
	case out.Kind == trapper.Delivered:
		bo.log.Warn("Zabbix did not accept all records",
			append(attrs, slog.String("response", out.Response.Response), slog.String("info", out.Response.Info))...)
	default:
		bo.log.Error("Failed to send alert",
			append(attrs, slog.String("outcome", label), slog.Any("error", out.Err))...)
	}

	if bo.journal == nil {
		return
	}
	entry := journal.Entry{
		Channel: bo.name,
		Stream:  a.Stream,
		Outcome: label,
		Records: out.Records,
		Info:    out.Response.Info,
	}
	if out.Err != nil {
		entry.Error = out.Err.Error()
	}
	jctx, cancel := context.WithTimeout(ctx, JOURNAL_TIMEOUT)
	defer cancel()
	// failures are logged and counted by the journal itself
	_ = bo.journal.Record(jctx, entry)
}

// New builds the observer described by a validated channel config.
func New(conf config.Channel, j journal.Journal) (Observer, error) {
	ep, err := conf.CheckConfiguration()
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", conf.Name, err)
	}

	switch conf.Type {
	case config.PRINT_TYPE:
		p := NewPrint(conf.Name, conf.Output, ep)
		p.SetFilter(conf.Filter.Build())
		p.SetJournal(j)
		return p, nil
	default:
		t := NewTrapper(conf.Name, ep, conf.Timeout, conf.Compress)
		t.SetFilter(conf.Filter.Build())
		t.SetJournal(j)
		return t, nil
	}
}
