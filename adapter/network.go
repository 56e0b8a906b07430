// Package adapter connects a vault to external systems.
package adapter

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srediag/plugin-vault/internal/logger"
	"github.com/srediag/plugin-vault/pkg/health"
)

// MetricsPath serves the Prometheus registry.
const MetricsPath = "/metrics"

// AdminServer exposes liveness, readiness and metrics of a vault.
type AdminServer struct {
	srv *http.Server
	log *logger.Logger

	mu   sync.Mutex
	ln   net.Listener
	done chan struct{}
}

// NewAdminServer routes health.LivePath and health.ReadyPath to healthHandler
// and MetricsPath to gatherer. A nil gatherer leaves MetricsPath unrouted.
func NewAdminServer(addr string, healthHandler http.Handler, gatherer prometheus.Gatherer, logOut io.Writer) *AdminServer {
	mux := http.NewServeMux()
	mux.Handle(health.LivePath, healthHandler)
	mux.Handle(health.ReadyPath, healthHandler)
	if gatherer != nil {
		mux.Handle(MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return &AdminServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.New("admin", logOut),
	}
}

// Start listens and serves in the background.
func (s *AdminServer) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("admin server: %v", err)
		}
	}()
	s.log.Infof("admin server listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address once started.
func (s *AdminServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.srv.Addr
	}
	return s.ln.Addr().String()
}

// Shutdown stops accepting requests and waits for the serve loop.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return err
}
