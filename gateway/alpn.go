package gateway

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/zllovesuki/gate/profiler"

	"go.uber.org/zap"
)

const (
	alpnH2    = "h2"
	alpnHTTP1 = "http/1.1"

	handshakeTimeout = time.Second * 3
)

type protoListener struct {
	l net.Listener
	c chan net.Conn
	d chan struct{}
}

var _ net.Listener = &protoListener{}

func (p *protoListener) Accept() (net.Conn, error) {
	select {
	case conn, ok := <-p.c:
		if !ok {
			return nil, net.ErrClosed
		}
		return conn, nil
	case <-p.d:
		return nil, net.ErrClosed
	}
}

func (p *protoListener) Close() error {
	return p.l.Close()
}

func (p *protoListener) Addr() net.Addr {
	return p.l.Addr()
}

// alpnMux dispatches handshaked TLS connections by their negotiated
// protocol. Connections that propose nothing are treated as http/1.1.
type alpnMux struct {
	logger   *zap.Logger
	listener net.Listener

	// registrations happen before Serve starts accepting
	protos map[string]chan net.Conn
	done   chan struct{}
}

func newALPNMux(logger *zap.Logger, listener net.Listener) *alpnMux {
	return &alpnMux{
		logger:   logger,
		listener: listener,
		protos:   make(map[string]chan net.Conn),
		done:     make(chan struct{}),
	}
}

func (a *alpnMux) Serve(ctx context.Context) {
	defer close(a.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		conn, err := a.listener.Accept()
		if err != nil {
			a.logger.Error("accepting gateway connection", zap.Error(err))
			return
		}
		tconn, ok := conn.(*tls.Conn)
		if !ok {
			a.logger.Fatal("listener is not returning tls connection")
			return
		}
		go a.handshake(ctx, tconn)
	}
}

func (a *alpnMux) For(protos ...string) net.Listener {
	ch := make(chan net.Conn, 32)
	for _, proto := range protos {
		a.protos[proto] = ch
	}
	return &protoListener{
		l: a.listener,
		c: ch,
		d: a.done,
	}
}

func (a *alpnMux) handshake(pCtx context.Context, conn *tls.Conn) {
	ctx, cancel := context.WithTimeout(pCtx, handshakeTimeout)
	defer cancel()

	err := conn.HandshakeContext(ctx)
	if err != nil {
		a.logger.Debug("tls handshake failed", zap.Error(err), zap.String("remoteAddr", conn.RemoteAddr().String()))
		conn.Close()
		profiler.GatewayRequests.WithLabelValues("error", "handshake").Add(1)
		return
	}

	profiler.GatewayRequests.WithLabelValues("success", "handshake").Add(1)

	cs := conn.ConnectionState()
	proto := cs.NegotiatedProtocol
	if proto == "" {
		proto = alpnHTTP1
	}
	profiler.GatewayProtos.WithLabelValues(proto).Inc()

	ch, ok := a.protos[proto]
	if !ok {
		a.logger.Warn("unknown alpn proposal", zap.String("proposal", proto))
		conn.Close()
		return
	}
	select {
	case ch <- conn:
	case <-a.done:
		conn.Close()
	}
}
