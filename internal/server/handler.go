package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"lunchbot/internal/bot"
	logx "lunchbot/pkg/logx"
)

// handleCommand reads the raw form body, checks the signature when a signing
// secret is configured, and hands the body to the responder unchanged.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", reqID)
	log := s.log.With(logx.String("request_id", reqID))
	start := time.Now()

	body, err := s.readBody(r)
	if err != nil {
		log.Warn("request rejected", logx.Err(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HandlerTimeout)
	defer cancel()
	resp := s.handler.Handle(ctx, bot.Event{Body: string(body)})

	fields := []logx.Field{
		logx.Int("status", resp.Status),
		logx.String("state", string(resp.State)),
		logx.Duration("took", time.Since(start)),
	}
	if resp.Err != nil {
		fields = append(fields, logx.Err(resp.Err))
	}
	log.Info("slash command handled", fields...)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	src := io.LimitReader(r.Body, maxBodyBytes)
	if strings.TrimSpace(s.cfg.SigningSecret) == "" {
		return io.ReadAll(src)
	}
	sv, err := slack.NewSecretsVerifier(r.Header, s.cfg.SigningSecret)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.TeeReader(src, &sv)); err != nil {
		return nil, err
	}
	if err := sv.Ensure(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
