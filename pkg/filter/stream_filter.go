package filter

import (
	"golang.org/x/exp/slices"

	"szuro.net/zts/pkg/alert"
)

// StreamFilter accepts or rejects alerts by the name of the stream that raised them.
type StreamFilter struct {
	AcceptedStreams []string `yaml:"accepted"`
	RejectedStreams []string `yaml:"rejected"`
	active          bool
}

func NewStreamFilter(accepted, rejected []string) *StreamFilter {
	f := &StreamFilter{AcceptedStreams: accepted, RejectedStreams: rejected}
	f.Activate()
	return f
}

func (f *StreamFilter) Activate() {
	f.active = len(f.AcceptedStreams) != 0 || len(f.RejectedStreams) != 0
}

func (f *StreamFilter) AcceptAlert(a alert.Alert) bool {
	return f.streamFilter(a.Stream)
}

func (f *StreamFilter) FilterAlerts(a []alert.Alert) []alert.Alert {
	accepted := make([]alert.Alert, 0, len(a))
	for _, A := range a {
		if f.streamFilter(A.Stream) {
			accepted = append(accepted, A)
		}
	}
	return accepted
}

func (f *StreamFilter) streamFilter(stream string) bool {
	if !f.active {
		return true
	}
	if slices.Contains(f.RejectedStreams, stream) {
		return false
	}
	// whitelist mode when accepted streams are given
	return len(f.AcceptedStreams) == 0 || slices.Contains(f.AcceptedStreams, stream)
}
