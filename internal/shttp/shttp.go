// Package shttp runs the http server of the preview and status api
package shttp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"github.com/willie68/go_mapmosaic/internal/logging"
)

// Config of the http server, a port of 0 disables the server
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr the listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprintf("%d", c.Port))
}

// SHttp the background http server of the preview
type SHttp struct {
	log     *slog.Logger
	cfg     Config
	srv     *http.Server
	running chan struct{}
}

// Init provides the server out of the config in the injector
func Init(inj do.Injector) {
	cfg := do.MustInvoke[*Config](inj)
	do.ProvideValue(inj, New(*cfg))
}

// New creates the server, nothing is started yet
func New(cfg Config) *SHttp {
	return &SHttp{
		log: logging.New("shttp"),
		cfg: cfg,
	}
}

// Active true if the server is configured to run
func (s *SHttp) Active() bool {
	return s.cfg.Port > 0
}

// StartServers starts the server in the background, the listener is opened
// before returning
func (s *SHttp) StartServers(router http.Handler) error {
	if !s.Active() {
		s.log.Info("http server disabled")
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return errors.Wrapf(err, "can't listen on %s", s.cfg.Addr())
	}
	s.srv = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.running = make(chan struct{})
	go func() {
		defer close(s.running)
		s.log.Info(fmt.Sprintf("starting http server on %s", ln.Addr()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(fmt.Sprintf("http server stopped: %v", err))
		}
	}()
	return nil
}

// ShutdownServers stops the server gracefully
func (s *SHttp) ShutdownServers() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Error(fmt.Sprintf("error shutting down http server: %v", err))
	}
	<-s.running
	s.srv = nil
	s.log.Info("http server stopped")
}
