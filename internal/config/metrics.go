package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set with -ldflags "-X szuro.net/zts/internal/config.Version=..."
var (
	Version, Commit, BuildDate string
)

var (
	ZtsInfo = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zts_build_info",
		Help: "ZTS build information",
		ConstLabels: map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		},
	})
)
