package profiler

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func StartProfiler(addr string) {
	m := http.NewServeMux()

	r := prometheus.NewRegistry()
	r.MustRegister(GatewayRequests)
	r.MustRegister(GatewayProtos)

	m.Handle("/", debug())
	m.Handle("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}))

	http.ListenAndServe(addr, m)
}

func debug() http.Handler {
	d := http.NewServeMux()
	d.HandleFunc("/debug/pprof/", pprof.Index)
	d.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	d.HandleFunc("/debug/pprof/profile", pprof.Profile)
	d.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	d.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return d
}
