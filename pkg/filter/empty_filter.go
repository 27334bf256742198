package filter

import "szuro.net/zts/pkg/alert"

type EmptyFilter struct{}

func NewEmptyFilter() *EmptyFilter {
	var f EmptyFilter
	return &f
}

func (f *EmptyFilter) AcceptAlert(a alert.Alert) bool {
	return true
}

func (f *EmptyFilter) FilterAlerts(a []alert.Alert) []alert.Alert {
	return a
}
