// Package diag serves a read-only HTTP view of the scheduler: health, task
// statistics, recent events, supervised loops and pprof.
package diag

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	logx "fcsched/pkg/logx"
)

type Config struct {
	Enabled     bool
	Addr        string
	ReadTimeout time.Duration
}

// Service runs the diagnostics server. Reconfigure restarts the listener
// when the address or timeouts change.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	log     logx.Logger
	handler http.Handler
	changed chan struct{}
	addr    string
}

func New(cfg Config, h *Handler, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{cfg: cfg, log: log, handler: h.Router(), changed: make(chan struct{}, 1)}
}

func (s *Service) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Addr returns the bound listener address, or "" when not serving.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Reconfigure applies cfg. Safe to call during hot-reload.
func (s *Service) Reconfigure(cfg Config) {
	s.mu.Lock()
	if s.cfg == cfg {
		s.mu.Unlock()
		return
	}
	s.cfg = cfg
	s.mu.Unlock()
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Run serves until ctx is done, following Reconfigure.
func (s *Service) Run(ctx context.Context) error {
	for {
		cfg := s.config()
		if !cfg.Enabled {
			select {
			case <-ctx.Done():
				return nil
			case <-s.changed:
				continue
			}
		}
		if err := s.serveOnce(ctx, cfg); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *Service) serveOnce(ctx context.Context, cfg Config) error {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = "127.0.0.1:8088"
	}
	if !isLoopbackAddr(addr) {
		s.log.Warn("diagnostics bound to non-loopback addr", logx.String("addr", addr))
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.log.Info("diagnostics listening", logx.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var serveErr error
	select {
	case <-ctx.Done():
	case <-s.changed:
		s.log.Info("diagnostics restarting")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	s.mu.Lock()
	s.addr = ""
	s.mu.Unlock()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
