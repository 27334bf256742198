package filter

import (
	"golang.org/x/exp/slices"
	"szuro.net/zts/pkg/alert"
)

type Filter interface {
	AcceptAlert(a alert.Alert) bool
	FilterAlerts(a []alert.Alert) []alert.Alert
}

type DefaultFilter struct {
	AcceptedTags []alert.Tag `yaml:"accepted"`
	RejectedTags []alert.Tag `yaml:"rejected"`
	active       bool
}

func NewDefaultFilter(accepted, rejected []alert.Tag) *DefaultFilter {
	f := &DefaultFilter{AcceptedTags: accepted, RejectedTags: rejected}
	f.Activate()
	return f
}

// Activate must be called after the filter is populated by a config decoder.
func (f *DefaultFilter) Activate() {
	f.active = len(f.AcceptedTags) != 0 || len(f.RejectedTags) != 0
}

func (f *DefaultFilter) AcceptAlert(a alert.Alert) bool {
	return f.tagFilter(a.Tags)
}

func (f *DefaultFilter) FilterAlerts(a []alert.Alert) []alert.Alert {
	accepted := make([]alert.Alert, 0, len(a))
	for _, A := range a {
		if f.tagFilter(A.Tags) {
			accepted = append(accepted, A)
		}
	}
	return accepted
}

// Check if alert should be forwarded or not
// No tags specified -> everything is accepted
// only AcceptedTags are provided -> only matching tags are allowed
// only RejectedTags are specified -> everything is allowed except for matching tags
// both AcceptedTags and RejectedTags are provided -> only accepted tags that were not rejected later are accepted
func (f *DefaultFilter) tagFilter(tags []alert.Tag) (accepted bool) {
	if !f.active {
		return true
	}
	if len(f.AcceptedTags) == 0 {
		accepted = true
	}
	for _, tag := range tags {
		if slices.Contains(f.AcceptedTags, tag) {
			accepted = true
		}
	}

	for _, tag := range tags {
		if slices.Contains(f.RejectedTags, tag) {
			accepted = false
		}
	}
	return
}

type chain []Filter

// All returns a filter accepting only alerts every given filter accepts.
// Nil filters are skipped.
func All(filters ...Filter) Filter {
	c := make(chain, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			c = append(c, f)
		}
	}
	if len(c) == 0 {
		return NewEmptyFilter()
	}
	return c
}

func (c chain) AcceptAlert(a alert.Alert) bool {
	for _, f := range c {
		if !f.AcceptAlert(a) {
			return false
		}
	}
	return true
}

func (c chain) FilterAlerts(a []alert.Alert) []alert.Alert {
	accepted := make([]alert.Alert, 0, len(a))
	for _, A := range a {
		if c.AcceptAlert(A) {
			accepted = append(accepted, A)
		}
	}
	return accepted
}
