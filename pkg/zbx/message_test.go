package zbx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInfo(t *testing.T) {
	tests := []struct {
		name     string
		info     string
		expected InfoCounts
		ok       bool
	}{
		{
			name:     "Current format",
			info:     "processed: 1; failed: 0; total: 1; seconds spent: 0.000055",
			expected: InfoCounts{Processed: 1, Failed: 0, Total: 1, SecondsSpent: 0.000055},
			ok:       true,
		},
		{
			name:     "Without seconds",
			info:     "processed: 3; failed: 2; total: 5",
			expected: InfoCounts{Processed: 3, Failed: 2, Total: 5},
			ok:       true,
		},
		{
			name:     "Legacy format",
			info:     "Processed 2 Failed 1 Total 3 Seconds spent 0.000120",
			expected: InfoCounts{Processed: 2, Failed: 1, Total: 3, SecondsSpent: 0.00012},
			ok:       true,
		},
		{"Garbage", "hello", InfoCounts{}, false},
		{"Empty", "", InfoCounts{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ParseInfo(tt.info)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, c)
		})
	}
}

func TestResponseSuccess(t *testing.T) {
	tests := []struct {
		name     string
		resp     Response
		expected bool
	}{
		{"Both fields, success", Response{Response: "success", Info: "processed: 1; failed: 0; total: 1"}, true},
		{"Response field only", Response{Response: "success"}, true},
		{"Response failed", Response{Response: "failed", Info: "processed: 1; failed: 0; total: 1"}, false},
		{"Info only, no failures", Response{Info: "processed: 4; failed: 0; total: 4"}, true},
		{"Info only, partial failure", Response{Info: "processed: 3; failed: 1; total: 4"}, false},
		{"Info only, unparseable", Response{Info: "something happened"}, false},
		{"Nothing", Response{}, false},
		{"Success marker with failures in info", Response{Response: "success", Info: "processed: 0; failed: 1; total: 1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.resp.Success())
		})
	}
}
