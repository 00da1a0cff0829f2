package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
	"github.com/pkg/errors"
)

type WebConfig struct {
	Domain string
}

type ListenConfig struct {
	Insecure string
	Secure   string
	Profiler string
}

type TLSConfig struct {
	Cert string
	Key  string
}

type UpstreamConfig struct {
	Addr string
	// IdleTimeoutSeconds bounds how long a pooled upstream connection
	// may stay idle
	IdleTimeoutSeconds int
}

type ConfigBundle struct {
	Web      WebConfig
	Listen   ListenConfig
	TLS      TLSConfig
	Upstream UpstreamConfig
}

func getConfig(path string) (*ConfigBundle, error) {
	cfg := config.New("gate")
	cfg.AddDriver(yaml.Driver)

	err := cfg.LoadFiles(path)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}

	var bundle ConfigBundle
	cfg.MapStruct("web", &bundle.Web)
	cfg.MapStruct("listen", &bundle.Listen)
	cfg.MapStruct("tls", &bundle.TLS)
	cfg.MapStruct("upstream", &bundle.Upstream)
	if bundle.Listen.Insecure == "" {
		bundle.Listen.Insecure = ":80"
	}
	if bundle.Listen.Secure == "" {
		bundle.Listen.Secure = ":443"
	}

	return &bundle, nil
}

func (c *ConfigBundle) validate() error {
	if c.Web.Domain == "" {
		return errors.New("empty web.domain is invalid")
	}
	if c.TLS.Cert == "" {
		return errors.New("empty tls.cert is invalid")
	}
	if c.TLS.Key == "" {
		return errors.New("empty tls.key is invalid")
	}
	if _, _, err := net.SplitHostPort(c.Upstream.Addr); err != nil {
		return errors.Wrap(err, "upstream.addr is not a valid host:port")
	}
	if _, err := c.securePort(); err != nil {
		return errors.Wrap(err, "listen.secure is not a valid listen address")
	}
	if c.Upstream.IdleTimeoutSeconds < 0 {
		return errors.New("negative upstream.idleTimeoutSeconds is invalid")
	}
	return nil
}

func (c *ConfigBundle) securePort() (int, error) {
	_, port, err := net.SplitHostPort(c.Listen.Secure)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(port)
}
