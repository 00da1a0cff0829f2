package gateway

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// GatewayConfig describes the immutable inputs of the gateway. All of
// them are fixed before Start and shared read-only across connections.
type GatewayConfig struct {
	Logger *zap.Logger
	// Listener must be a TLS listener created with a config from
	// TLSConfig, or handshakes will never negotiate a protocol.
	Listener net.Listener
	// Hostname is the canonical name this gateway serves. Connections
	// are accepted regardless of SNI; this is informational.
	Hostname string
	// Upstream is the host:port of the backend, reached over plain http.
	Upstream string
	// UpstreamIdleTimeout bounds how long a pooled upstream connection
	// may sit idle before it is closed. Zero means DefaultIdleTimeout.
	UpstreamIdleTimeout time.Duration
	// UpstreamHeaderTimeout bounds how long the upstream may take to
	// start responding. Zero means DefaultHeaderTimeout.
	UpstreamHeaderTimeout time.Duration
}

const (
	DefaultIdleTimeout   = time.Second * 90
	DefaultHeaderTimeout = time.Second * 30
)

type Gateway struct {
	GatewayConfig
	alpn *alpnMux
}

func (c *GatewayConfig) validate() error {
	if c.Logger == nil {
		return errors.New("nil logger is invalid")
	}
	if c.Listener == nil {
		return errors.New("nil listener is invalid")
	}
	if c.Hostname == "" {
		return errors.New("empty hostname is invalid")
	}
	if _, _, err := net.SplitHostPort(c.Upstream); err != nil {
		return errors.Wrap(err, "upstream is not a valid host:port")
	}
	return nil
}

func New(conf GatewayConfig) (*Gateway, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}
	if conf.UpstreamIdleTimeout == 0 {
		conf.UpstreamIdleTimeout = DefaultIdleTimeout
	}
	if conf.UpstreamHeaderTimeout == 0 {
		conf.UpstreamHeaderTimeout = DefaultHeaderTimeout
	}
	return &Gateway{
		GatewayConfig: conf,
		alpn:          newALPNMux(conf.Logger, conf.Listener),
	}, nil
}

// TLSConfig loads the certificate pair and returns the listener
// configuration for the secure port. An absent, unreadable, or
// mismatched pair is a startup error: nothing should listen without it.
func TLSConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "loading certificate pair")
	}
	return &tls.Config{
		Certificates:             []tls.Certificate{cert},
		Rand:                     rand.Reader,
		MinVersion:               tls.VersionTLS12,
		PreferServerCipherSuites: true,
		NextProtos:               []string{alpnH2, alpnHTTP1},
	}, nil
}

// Start accepts TLS connections until the listener closes or ctx is
// done. Each negotiated protocol gets its own serving loop over the
// same proxy handler.
func (g *Gateway) Start(ctx context.Context) {
	handler := g.proxyHandler()

	go http.Serve(g.alpn.For(alpnHTTP1), handler)
	go g.serveH2(g.alpn.For(alpnH2), handler)

	g.Logger.Info("gateway started",
		zap.String("hostname", g.Hostname),
		zap.String("addr", g.Listener.Addr().String()),
		zap.String("upstream", g.Upstream),
	)

	g.alpn.Serve(ctx)
}

func (g *Gateway) serveH2(listener net.Listener, handler http.Handler) {
	h2s := &http2.Server{
		IdleTimeout: DefaultIdleTimeout,
	}
	base := &http.Server{
		Handler:  handler,
		ErrorLog: zap.NewStdLog(g.Logger),
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go h2s.ServeConn(conn, &http2.ServeConnOpts{
			BaseConfig: base,
			Handler:    handler,
		})
	}
}
