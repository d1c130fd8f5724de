// Package metrics wires up the process-wide tally root scope that every
// other package's per-package Metrics struct is subscoped from, plus the
// HTTP mux that exposes /health and, when enabled, /metrics.
package metrics

import (
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	tallyprom "github.com/uber-go/tally/prometheus"
	tallystatsd "github.com/uber-go/tally/statsd"
)

// Config selects which reporting backend the root scope flushes to. At
// most one of Prometheus/Statsd should be enabled; if neither is, metrics
// are recorded in-process but never reported anywhere.
type Config struct {
	Prometheus *PrometheusConfig `yaml:"prometheus"`
	Statsd     *StatsdConfig     `yaml:"statsd"`
}

// PrometheusConfig enables the /metrics scrape endpoint.
type PrometheusConfig struct {
	Enable bool `yaml:"enable"`
}

// StatsdConfig enables pushing metrics to a statsd endpoint.
type StatsdConfig struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

// Init builds the root tally.Scope and an http.ServeMux carrying /health
// and (if Prometheus is enabled) /metrics. The caller owns starting an
// HTTP server against the returned mux and closing the returned
// tally.Closer on shutdown.
func Init(cfg *Config, rootScopeName string, flushInterval time.Duration) (tally.Scope, io.Closer, *nethttp.ServeMux) {
	mux := nethttp.NewServeMux()
	var reporter tally.StatsReporter
	var promHandler nethttp.Handler
	separator := "."

	switch {
	case cfg.Prometheus != nil && cfg.Prometheus.Enable:
		rootScopeName = strings.Replace(rootScopeName, "-", "_", -1)
		separator = "_"
		promReporter := tallyprom.NewReporter(tallyprom.Options{})
		reporter = promReporter
		promHandler = promReporter.HTTPHandler()
	case cfg.Statsd != nil && cfg.Statsd.Enable:
		log.WithField("endpoint", cfg.Statsd.Endpoint).Info("metrics: statsd backend enabled")
		c, err := statsd.NewClient(cfg.Statsd.Endpoint, "")
		if err != nil {
			log.WithError(err).Fatal("metrics: unable to set up statsd client")
		}
		reporter = tallystatsd.NewReporter(c, tallystatsd.NewOptions())
	default:
		log.Warn("metrics: no reporting backend configured, metrics are recorded but never flushed")
		c, _ := statsd.NewNoopClient()
		reporter = tallystatsd.NewReporter(c, tallystatsd.NewOptions())
	}

	if promHandler != nil {
		mux.Handle("/metrics", promHandler)
	}
	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:    rootScopeName,
		Tags:      map[string]string{},
		Reporter:  reporter,
		Separator: separator,
	}, flushInterval)
	return scope, closer, mux
}
