package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"szuro.net/zts/pkg/alert"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   DefaultFilter
		tags     []alert.Tag
		expected bool
	}{
		{
			name:     "No tags specified, everything accepted",
			filter:   DefaultFilter{},
			tags:     []alert.Tag{},
			expected: true,
		},
		{
			name:     "Only accepted tags provided, matching tag",
			filter:   DefaultFilter{AcceptedTags: []alert.Tag{{Tag: "env", Value: "prod"}}},
			tags:     []alert.Tag{{Tag: "env", Value: "prod"}},
			expected: true,
		},
		{
			name:     "Only accepted tags provided, non-matching tag",
			filter:   DefaultFilter{AcceptedTags: []alert.Tag{{Tag: "env", Value: "prod"}}},
			tags:     []alert.Tag{{Tag: "env", Value: "dev"}},
			expected: false,
		},
		{
			name:     "Only rejected tags provided, non-matching tag",
			filter:   DefaultFilter{RejectedTags: []alert.Tag{{Tag: "env", Value: "prod"}}},
			tags:     []alert.Tag{{Tag: "env", Value: "dev"}},
			expected: true,
		},
		{
			name:     "Only rejected tags provided, untagged alert",
			filter:   DefaultFilter{RejectedTags: []alert.Tag{{Tag: "env", Value: "prod"}}},
			tags:     nil,
			expected: true,
		},
		{
			name:     "Only rejected tags provided, matching tag",
			filter:   DefaultFilter{RejectedTags: []alert.Tag{{Tag: "env", Value: "prod"}}},
			tags:     []alert.Tag{{Tag: "env", Value: "prod"}},
			expected: false,
		},
		{
			name: "Both accepted and rejected tags provided, matching accepted tag, non-matching rejected tag",
			filter: DefaultFilter{
				AcceptedTags: []alert.Tag{{Tag: "env", Value: "prod"}},
				RejectedTags: []alert.Tag{{Tag: "role", Value: "test"}},
			},
			tags:     []alert.Tag{{Tag: "env", Value: "prod"}},
			expected: true,
		},
		{
			name: "Both accepted and rejected tags provided, matching accepted and rejected tags",
			filter: DefaultFilter{
				AcceptedTags: []alert.Tag{{Tag: "env", Value: "prod"}},
				RejectedTags: []alert.Tag{{Tag: "env", Value: "prod"}},
			},
			tags:     []alert.Tag{{Tag: "env", Value: "prod"}},
			expected: false,
		},
	}

	t.Log("Testing unactivated filters")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := alert.Alert{Tags: tt.tags}
			require.True(t, tt.filter.AcceptAlert(a))
		})
	}

	t.Log("Testing activated filters")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDefaultFilter(tt.filter.AcceptedTags, tt.filter.RejectedTags)
			a := alert.Alert{Tags: tt.tags}
			require.Equal(t, tt.expected, f.AcceptAlert(a))
		})
	}
}

func TestStreamFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   *StreamFilter
		stream   string
		expected bool
	}{
		{"Inactive", NewStreamFilter(nil, nil), "any", true},
		{"Accepted", NewStreamFilter([]string{"nginx"}, nil), "nginx", true},
		{"Not accepted", NewStreamFilter([]string{"nginx"}, nil), "mysql", false},
		{"Rejected", NewStreamFilter(nil, []string{"noise"}), "noise", false},
		{"Not rejected", NewStreamFilter(nil, []string{"noise"}), "nginx", true},
		{"Accepted then rejected", NewStreamFilter([]string{"nginx"}, []string{"nginx"}), "nginx", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.filter.AcceptAlert(alert.Alert{Stream: tt.stream}))
		})
	}
}

func TestFilterSlices(t *testing.T) {
	f := NewDefaultFilter([]alert.Tag{{Tag: "env", Value: "prod"}}, nil)

	alerts := []alert.Alert{
		{Stream: "a", Tags: []alert.Tag{{Tag: "env", Value: "prod"}}},
		{Stream: "b", Tags: []alert.Tag{{Tag: "env", Value: "dev"}}},
	}
	filtered := f.FilterAlerts(alerts)
	require.Len(t, filtered, 1)
	require.Equal(t, "a", filtered[0].Stream)

	require.Len(t, NewEmptyFilter().FilterAlerts(alerts), 2)
}

func TestAll(t *testing.T) {
	f := All(
		NewDefaultFilter([]alert.Tag{{Tag: "env", Value: "prod"}}, nil),
		nil,
		NewStreamFilter(nil, []string{"noise"}),
	)

	prod := []alert.Tag{{Tag: "env", Value: "prod"}}
	require.True(t, f.AcceptAlert(alert.Alert{Stream: "nginx", Tags: prod}))
	require.False(t, f.AcceptAlert(alert.Alert{Stream: "noise", Tags: prod}))
	require.False(t, f.AcceptAlert(alert.Alert{Stream: "nginx"}))

	alerts := []alert.Alert{{Stream: "nginx", Tags: prod}, {Stream: "noise", Tags: prod}}
	require.Len(t, f.FilterAlerts(alerts), 1)

	require.True(t, All().AcceptAlert(alert.Alert{}))
}
