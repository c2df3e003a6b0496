package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiz-room-service/internal/domain"
)

// Recorder implements app.Recorder on top of Prometheus collectors.
type Recorder struct {
	registry    *prometheus.Registry
	rooms       prometheus.Gauge
	connections prometheus.Gauge
	closed      *prometheus.CounterVec
	actions     *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewRecorder registers the room collectors on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quiz",
			Name:      "rooms_open",
			Help:      "Rooms currently registered.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quiz",
			Name:      "connections_open",
			Help:      "Room sockets currently attached.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "rooms_closed_total",
			Help:      "Rooms removed, by reason.",
		}, []string{"reason"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "actions_total",
			Help:      "Client actions applied.",
		}, []string{"action"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quiz",
			Name:      "actions_rejected_total",
			Help:      "Client actions rejected, by reason.",
		}, []string{"action", "reason"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.rooms, r.connections, r.closed, r.actions, r.rejections,
	)
	return r
}

// Handler exposes the registry at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) RoomOpened()       { r.rooms.Inc() }
func (r *Recorder) ConnectionOpened() { r.connections.Inc() }
func (r *Recorder) ConnectionClosed() { r.connections.Dec() }

func (r *Recorder) RoomClosed(reason string) {
	r.rooms.Dec()
	r.closed.WithLabelValues(reason).Inc()
}

func (r *Recorder) ActionHandled(action string) {
	r.actions.WithLabelValues(action).Inc()
}

func (r *Recorder) ActionRejected(action string, err error) {
	r.rejections.WithLabelValues(action, reason(err)).Inc()
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrRoomFull):
		return "room_full"
	case errors.Is(err, domain.ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, domain.ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	default:
		return "other"
	}
}
