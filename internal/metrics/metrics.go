package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muurk/mhacwifi/internal/acwm"
)

const namespace = "mhacwifi"

// Result label values
const (
	ResultSuccess   = "success"
	ResultTransport = "transport_error"
	ResultDecode    = "decode_error"
	ResultAuth      = "auth_error"
	ResultDevice    = "device_error"
	ResultExpired   = "session_expired"
	ResultError     = "error"
)

// Metrics holds the device client and bridge collectors.
// It implements acwm.Observer.
type Metrics struct {
	commandsTotal   *prometheus.CounterVec   // By command and result
	commandDuration *prometheus.HistogramVec // By command
	reauthTotal     *prometheus.CounterVec   // By result
	retriesTotal    *prometheus.CounterVec   // By command

	// Bridge
	httpRequests  *prometheus.CounterVec // By route and status code
	subscribers   prometheus.Gauge
	pollErrors    prometheus.Counter
	lastPollValue *prometheus.GaugeVec // By characteristic
}

var _ acwm.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors without registering them
func NewMetrics() *Metrics {
	return &Metrics{
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of commands sent to the WiFi module",
		}, []string{"command", "result"}),

		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Round trip time of a single command exchange",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"command"}),

		reauthTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reauth_total",
			Help:      "Automatic re-logins after an expired session",
		}, []string{"result"}),

		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Failed attempts followed by another attempt",
		}, []string{"command"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "http_requests_total",
			Help:      "Bridge HTTP requests",
		}, []string{"route", "code"}),

		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "subscribers",
			Help:      "Connected websocket subscribers",
		}),

		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "poll_errors_total",
			Help:      "Failed polls of the unit's data points",
		}),

		lastPollValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "characteristic_value",
			Help:      "Last polled characteristic value",
		}, []string{"name"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.commandsTotal, m.commandDuration, m.reauthTotal, m.retriesTotal,
		m.httpRequests, m.subscribers, m.pollErrors, m.lastPollValue,
	}
}

// CommandCompleted records one command exchange
func (m *Metrics) CommandCompleted(command string, duration time.Duration, err error) {
	m.commandsTotal.WithLabelValues(command, resultLabel(err)).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// Reauthenticated records an automatic re-login
func (m *Metrics) Reauthenticated(_ string, err error) {
	m.reauthTotal.WithLabelValues(resultLabel(err)).Inc()
}

// Retrying records a retried attempt
func (m *Metrics) Retrying(command string, _ int, _ error) {
	m.retriesTotal.WithLabelValues(command).Inc()
}

// HTTPRequest records a bridge request
func (m *Metrics) HTTPRequest(route string, code int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SubscriberConnected increments the subscriber gauge
func (m *Metrics) SubscriberConnected() { m.subscribers.Inc() }

// SubscriberDisconnected decrements the subscriber gauge
func (m *Metrics) SubscriberDisconnected() { m.subscribers.Dec() }

// PollFailed records a failed poll
func (m *Metrics) PollFailed() { m.pollErrors.Inc() }

// CharacteristicValue records the last polled value of a characteristic
func (m *Metrics) CharacteristicValue(name string, value float64) {
	m.lastPollValue.WithLabelValues(name).Set(value)
}

func resultLabel(err error) string {
	if err == nil {
		return ResultSuccess
	}
	var devErr *acwm.DeviceError
	if !errors.As(err, &devErr) {
		return ResultError
	}
	switch devErr.Type {
	case acwm.ErrTypeTransport:
		return ResultTransport
	case acwm.ErrTypeDecode:
		return ResultDecode
	case acwm.ErrTypeAuth:
		return ResultAuth
	default:
		if devErr.Code == acwm.ErrorCodeSessionInvalid {
			return ResultExpired
		}
		return ResultDevice
	}
}

// Registry is a dedicated Prometheus registry carrying the mhacwifi
// collectors and the Go runtime and process collectors
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with every collector registered
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	m := NewMetrics()

	reg.MustRegister(m.collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Registry{prometheusRegistry: reg, Metrics: m}
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler returns the /metrics HTTP handler
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
