// Package server exposes the slash command responder over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"lunchbot/internal/bot"
	logx "lunchbot/pkg/logx"
)

const (
	DefaultPath           = "/slack/command"
	DefaultHandlerTimeout = 10 * time.Second
	defaultReadTimeout    = 5 * time.Second
	shutdownTimeout       = 5 * time.Second
	maxBodyBytes          = 1 << 20
)

// CommandHandler answers one slash command event.
type CommandHandler interface {
	Handle(ctx context.Context, ev bot.Event) bot.Response
}

type Config struct {
	Addr string
	Path string
	// SigningSecret enables Slack request signature checks when set.
	SigningSecret  string
	HandlerTimeout time.Duration
	ReadTimeout    time.Duration
}

type Server struct {
	cfg     Config
	handler CommandHandler
	log     logx.Logger
	mux     *http.ServeMux
}

func New(cfg Config, h CommandHandler, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = DefaultPath
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	s := &Server{cfg: cfg, handler: h, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST "+cfg.Path, s.handleCommand)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe listens on cfg.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		// Responses are written after the handler timeout at the latest.
		WriteTimeout: s.cfg.HandlerTimeout + 5*time.Second,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("http server listening", logx.String("addr", ln.Addr().String()), logx.String("path", s.cfg.Path))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		_ = srv.Close()
		s.log.Warn("http shutdown incomplete", logx.Err(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}
