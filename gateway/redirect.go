package gateway

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Redirector answers every plaintext request with a permanent redirect
// to the https equivalent of the same host, path, and query. The host
// comes from the request itself so aliases pointed at this service
// redirect to themselves.
type Redirector struct {
	logger     *zap.Logger
	server     *http.Server
	securePort int
}

func NewRedirector(logger *zap.Logger, securePort int) *Redirector {
	rd := &Redirector{
		logger:     logger,
		securePort: securePort,
	}
	rd.server = &http.Server{
		ReadTimeout:  time.Second * 15,
		WriteTimeout: time.Second * 15,
		IdleTimeout:  time.Second * 60,
		ErrorLog:     zap.NewStdLog(logger),
		Handler:      http.HandlerFunc(rd.redirect),
	}
	return rd
}

func (rd *Redirector) redirect(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if rd.securePort != 443 {
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		host = net.JoinHostPort(host, strconv.Itoa(rd.securePort))
	}
	re := *r.URL
	re.Scheme = "https"
	re.Host = host
	http.Redirect(w, r, re.String(), http.StatusMovedPermanently)
}

// Serve blocks until the listener closes.
func (rd *Redirector) Serve(listener net.Listener) error {
	rd.logger.Info("starting http redirect server",
		zap.String("addr", listener.Addr().String()),
	)
	return rd.server.Serve(listener)
}
