package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zllovesuki/gate/gateway"
	"github.com/zllovesuki/gate/profiler"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Version = "dev"

var (
	configPath = flag.String("config", "config.yaml", "path to the config file")
	debug      = flag.Bool("debug", false, "verbose logging")
)

func main() {
	flag.Parse()

	var logCfg zap.Config
	if *debug {
		logCfg = zap.NewDevelopmentConfig()
	} else {
		logCfg = zap.NewProductionConfig()
	}
	logCfg.OutputPaths = []string{"stderr"}
	logger, err := logCfg.Build()
	if err != nil {
		log.Fatal(err)
	}

	// redirect stdlib log output to logger, since net/http leaks
	// log output on its own
	undo, err := zap.RedirectStdLogAt(logger, zapcore.DebugLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer undo()

	bundle, err := getConfig(*configPath)
	if err != nil {
		logger.Fatal("reading config", zap.Error(err))
	}
	if err := bundle.validate(); err != nil {
		logger.Fatal("validating config", zap.Error(err))
	}

	// fail fast on a bad credential, before anything listens
	tlsCfg, err := gateway.TLSConfig(bundle.TLS.Cert, bundle.TLS.Key)
	if err != nil {
		logger.Fatal("loading tls credential", zap.Error(err))
	}

	securePort, err := bundle.securePort()
	if err != nil {
		logger.Fatal("parsing secure listen address", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	insecure, err := net.Listen("tcp", bundle.Listen.Insecure)
	if err != nil {
		logger.Fatal("listening on insecure port", zap.Error(err))
	}
	defer insecure.Close()

	secure, err := tls.Listen("tcp", bundle.Listen.Secure, tlsCfg)
	if err != nil {
		logger.Fatal("listening on secure port", zap.Error(err))
	}
	defer secure.Close()

	g, err := gateway.New(gateway.GatewayConfig{
		Logger:              logger,
		Listener:            secure,
		Hostname:            bundle.Web.Domain,
		Upstream:            bundle.Upstream.Addr,
		UpstreamIdleTimeout: time.Duration(bundle.Upstream.IdleTimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal("configuring gateway", zap.Error(err))
	}

	rd := gateway.NewRedirector(logger, securePort)
	go rd.Serve(insecure)
	go g.Start(ctx)

	if bundle.Listen.Profiler != "" {
		go profiler.StartProfiler(bundle.Listen.Profiler)
	}

	logger.Info("gate started",
		zap.String("version", Version),
		zap.String("domain", bundle.Web.Domain),
	)

	<-sigs
	logger.Info("shutting down")
}
