// Package metrics exposes Prometheus collectors for the device client and
// the bridge.
//
// Metrics implements acwm.Observer, so attaching it to a client is enough to
// count commands, re-logins and retries:
//
//	reg := metrics.NewRegistry()
//	client.Observer = reg.Metrics
//	http.Handle("/metrics", reg.Handler())
package metrics
