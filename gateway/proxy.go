package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/zllovesuki/gate/profiler"
	"github.com/zllovesuki/gate/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const frameOptionsHeader = "X-Frame-Options"

// proxyHandler streams requests to the single upstream. Bodies are
// never accumulated: copies go chunk by chunk through the buffer pool
// in both directions, so there is no request size limit.
func (g *Gateway) proxyHandler() http.Handler {
	return &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = "http"
			req.URL.Host = g.Upstream
			req.Header.Set("X-Forwarded-Host", req.Host)
			req.Header.Set("X-Forwarded-Proto", "https")
			if req.Body != nil {
				// tear down the upstream write as soon as the client goes away
				req.Body = util.NewCtxReadCloser(req.Context(), req.Body)
			}
		},
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: time.Second * 10,
			}).DialContext,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       g.UpstreamIdleTimeout,
			ResponseHeaderTimeout: g.UpstreamHeaderTimeout,
			ExpectContinueTimeout: time.Second * 3,
		},
		BufferPool:   newBufferPool(),
		ErrorHandler: g.errorHandler,
		ModifyResponse: func(r *http.Response) error {
			// the anti-framing policy holds regardless of what the
			// upstream put there
			r.Header.Set(frameOptionsHeader, "DENY")
			profiler.GatewayRequests.WithLabelValues("success", "forward").Add(1)
			return nil
		},
		ErrorLog: zap.NewStdLog(g.Logger),
	}
}

func (g *Gateway) errorHandler(rw http.ResponseWriter, r *http.Request, e error) {
	if errors.Is(e, context.Canceled) {
		// client went away mid-exchange, nothing left to answer
		profiler.GatewayRequests.WithLabelValues("canceled", "forward").Add(1)
		return
	}
	rw.Header().Set(frameOptionsHeader, "DENY")
	if isTimeout(e) {
		rw.WriteHeader(http.StatusGatewayTimeout)
		fmt.Fprint(rw, "The upstream is taking too long to respond.")
		profiler.GatewayRequests.WithLabelValues("timeout", "forward").Add(1)
		return
	}
	g.Logger.Error("forwarding request to upstream", zap.Error(e))
	rw.WriteHeader(http.StatusBadGateway)
	fmt.Fprint(rw, "An unexpected error has occurred while reaching the upstream.")
	profiler.GatewayRequests.WithLabelValues("error", "forward").Add(1)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t net.Error
	return errors.As(err, &t) && t.Timeout()
}
