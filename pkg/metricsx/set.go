package metricsx

import "github.com/VictoriaMetrics/metrics"

// Set groups the counters/histograms for one launchctx.Context. A fresh Set
// per Context (rather than the global default registry) keeps tests
// isolated, following pkg/api/api0/metrics.go's per-Handler metric set.
type Set struct {
	reg *metrics.Set

	DownloadsTotal      *metrics.Counter
	DownloadBytesTotal  *metrics.Counter
	DownloadFailures    *metrics.Counter
	JavaInstallsTotal   *metrics.Counter
	JavaInstallFailures *metrics.Counter
	LaunchesTotal       *metrics.Counter
	LaunchFailures      *metrics.Counter
	AuthRefreshTotal    *metrics.Counter
	AuthRefreshFailures *metrics.Counter
	AuthRefreshSeconds  *metrics.Histogram
}

// NewSet creates an isolated metric set.
func NewSet() *Set {
	reg := metrics.NewSet()
	return &Set{
		reg:                 reg,
		DownloadsTotal:      reg.NewCounter("launchcore_downloads_total"),
		DownloadBytesTotal:  reg.NewCounter("launchcore_download_bytes_total"),
		DownloadFailures:    reg.NewCounter("launchcore_download_failures_total"),
		JavaInstallsTotal:   reg.NewCounter("launchcore_java_installs_total"),
		JavaInstallFailures: reg.NewCounter("launchcore_java_install_failures_total"),
		LaunchesTotal:       reg.NewCounter("launchcore_launches_total"),
		LaunchFailures:      reg.NewCounter("launchcore_launch_failures_total"),
		AuthRefreshTotal:    reg.NewCounter("launchcore_auth_refresh_total"),
		AuthRefreshFailures: reg.NewCounter("launchcore_auth_refresh_failures_total"),
		AuthRefreshSeconds:  reg.NewHistogram("launchcore_auth_refresh_seconds"),
	}
}

// CounterByProvider returns a per-provider-labelled auth refresh counter,
// built with formatName the way pkg/api/api0/metrics.go derives
// labelled series from a single base name.
func (s *Set) CounterByProvider(base, provider string) *metrics.Counter {
	return s.reg.NewCounter(formatName(base, "", "provider", provider))
}

// WritePrometheus writes all metrics in this set in Prometheus exposition
// format, for a shell that wants to expose a debug/metrics endpoint.
func (s *Set) WritePrometheus(w interface{ Write([]byte) (int, error) }) {
	s.reg.WritePrometheus(w)
}
