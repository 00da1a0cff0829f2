package profiler

import "github.com/prometheus/client_golang/prometheus"

var (
	GatewayRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Subsystem: "gateway",
		Help:      "Count of all handshake and forward outcomes on the gateway",
		Name:      "requests_total",
	}, []string{"status", "type"})

	GatewayProtos = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gate",
		Subsystem: "gateway",
		Help:      "Count of negotiated application protocols",
		Name:      "negotiated_protocol",
	}, []string{"proto"})
)
