// Package server hosts a local agent behind the same HTTP contract
// the managed agent runtime speaks: POST /invocations returning a
// JSON document or a server-sent event stream, and GET /ping. It is
// the development loop for agents before they are deployed.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/nullpath7/agentcore-cli/api/schemas"
	"github.com/nullpath7/agentcore-cli/internal/agent"
	"github.com/nullpath7/agentcore-cli/internal/auth"
	"github.com/nullpath7/agentcore-cli/internal/config"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const sessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// Server is the local runtime emulator.
type Server struct {
	agent  agent.Agent
	cfg    config.ServeConfig
	logger *zap.Logger
	http   *http.Server
}

// New wires an agent into an emulator instance.
func New(a agent.Agent, cfg config.ServeConfig, logger *zap.Logger) *Server {
	s := &Server{
		agent:  a,
		cfg:    cfg,
		logger: logger.Named("server"),
	}
	s.http = &http.Server{
		Addr:        cfg.Addr(),
		Handler:     s.Handler(),
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Handler builds the route table. Exposed for httptest use.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("POST /invocations", s.withAuth(s.handleInvocations))
	// Data-plane-shaped route so `agentcore invoke --endpoint` can be
	// pointed straight at the emulator.
	mux.HandleFunc("POST /runtimes/{id}/invocations", s.withAuth(s.handleInvocations))
	mux.HandleFunc("GET /runtimes/{id}/ping", s.handlePing)
	return mux
}

// ListenAndServe runs until the context is cancelled, then drains.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Runtime emulator listening",
			zap.String("addr", s.cfg.Addr()),
			zap.String("agent", s.agent.Name()),
			zap.Bool("auth", s.cfg.AuthSecret != ""))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("emulator failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("emulator shutdown failed: %w", err)
		}
		return nil
	}
}

// withAuth enforces bearer-token auth when a secret is configured.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.cfg.AuthSecret == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, http.StatusUnauthorized, "AccessDeniedException", "missing bearer token")
			return
		}
		if _, err := auth.Verify(s.cfg.AuthSecret, s.cfg.AuthIssuer, token); err != nil {
			s.logger.Warn("Rejected invocation token", zap.Error(err))
			s.writeError(w, http.StatusForbidden, "AccessDeniedException", "invalid bearer token")
			return
		}
		next(w, r)
	}
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, schemas.PingStatus{
		Status:        "Healthy",
		TimeOfLastUpd: time.Now().UTC(),
	})
}

func (s *Server) handleInvocations(w http.ResponseWriter, r *http.Request) {
	var req schemas.InvocationRequest
	if err := jsonCodec.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "ValidationException", "invalid JSON payload")
		return
	}
	if req.Prompt == "" {
		s.writeError(w, http.StatusBadRequest, "ValidationException", "prompt is required")
		return
	}
	if sid := r.Header.Get(sessionHeader); sid != "" && len(sid) < schemas.MinSessionIDLength {
		s.writeError(w, http.StatusBadRequest, "ValidationException",
			fmt.Sprintf("runtime session ID must be at least %d characters", schemas.MinSessionIDLength))
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.streamInvocation(w, r, req.Prompt)
		return
	}

	result, err := s.agent.Invoke(r.Context(), req.Prompt)
	if err != nil {
		s.logger.Error("Agent invocation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "InternalServerException", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

// streamInvocation performs the SSE framing over the agent's event
// channel. Every event the agent emits is forwarded, including the
// terminal stream_error, followed by the [DONE] sentinel.
func (s *Server) streamInvocation(w http.ResponseWriter, r *http.Request, prompt string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "InternalServerException", "streaming unsupported")
		return
	}

	events, err := s.agent.InvokeStream(r.Context(), prompt)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "InternalServerException", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		payload, err := jsonCodec.MarshalToString(ev)
		if err != nil {
			// Encoding a chunk should never fail; degrade to an error event.
			payload = fmt.Sprintf(`{"error":%q,"type":"stream_error"}`, err.Error())
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		if ev.IsError() {
			break
		}
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonCodec.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, schemas.APIError{Code: code, Message: message})
}
