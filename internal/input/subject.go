package input

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"szuro.net/zts/internal/observer"
	"szuro.net/zts/pkg/alert"
	"szuro.net/zts/pkg/filter"
)

var (
	bufferSizeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zts_buffer_size",
		Help: "Capacity of the internal alert funnel",
	})

	bufferUsageGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zts_buffer_usage",
		Help: "Alerts waiting in the internal alert funnel",
	})

	alertsFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zts_alerts_filtered_total",
		Help: "Alerts dropped by the global tag filter",
	})
)

type ObserverRegistry map[string]observer.Observer

// Subject fans every accepted alert out to all registered observers.
// Each observer is notified in its own goroutine, once per alert.
type Subject struct {
	observers    ObserverRegistry
	Funnel       chan alert.Alert
	globalFilter filter.Filter

	started   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	inflight  sync.WaitGroup
}

func NewSubject(size int) *Subject {
	bufferSizeGauge.Set(float64(size * 2))
	bufferUsageGauge.Set(0)
	return &Subject{
		observers:    make(ObserverRegistry),
		Funnel:       make(chan alert.Alert, size*2),
		globalFilter: filter.NewEmptyFilter(),
		done:         make(chan struct{}),
	}
}

func (s *Subject) Register(o observer.Observer) {
	//nil observer check
	if o == nil {
		return
	}
	s.observers[o.GetName()] = o
}

func (s *Subject) Deregister(o observer.Observer) {
	delete(s.observers, o.GetName())
}

func (s *Subject) SetFilter(f filter.Filter) {
	if f == nil {
		f = filter.NewEmptyFilter()
	}
	s.globalFilter = f
}

func (s *Subject) NotifyAll(a alert.Alert) {
	for _, o := range s.observers {
		s.inflight.Add(1)
		go func(o observer.Observer) {
			defer s.inflight.Done()
			o.Notify(context.Background(), a)
		}(o)
	}
}

// Start consumes the funnel in the background.
func (s *Subject) Start() {
	if s.started.CompareAndSwap(false, true) {
		go s.AcceptValues()
	}
}

func (s *Subject) AcceptValues() {
	defer close(s.done)
	for a := range s.Funnel {
		bufferUsageGauge.Set(float64(len(s.Funnel)))
		if !s.globalFilter.AcceptAlert(a) {
			alertsFiltered.Inc()
			continue
		}
		s.NotifyAll(a)
	}
}

// Cleanup closes the funnel, waits for queued alerts and in-flight
// notifications, then releases the observers. Nothing may be sent to
// the funnel afterwards.
func (s *Subject) Cleanup() {
	s.closeOnce.Do(func() { close(s.Funnel) })
	if s.started.Load() {
		<-s.done
	}
	s.inflight.Wait()
	for _, o := range s.observers {
		o.Cleanup()
	}
}
