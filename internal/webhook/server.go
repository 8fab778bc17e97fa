package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/linegate/internal/auth"
	"github.com/mattjoyce/linegate/internal/config"
	"github.com/mattjoyce/linegate/internal/events"
	"github.com/mattjoyce/linegate/internal/line"
	"github.com/mattjoyce/linegate/internal/log"
	"github.com/mattjoyce/linegate/internal/publish"
	"github.com/mattjoyce/linegate/internal/store"
)

// Server is the webhook HTTP server: it authenticates platform callbacks
// and runs the inbound-message pipeline.
type Server struct {
	cfg        *config.Config
	store      *store.Store
	dispatcher MessageDispatcher
	publisher  *publish.Publisher
	hub        *events.Hub
	logger     *slog.Logger
	server     *http.Server
}

// New creates a webhook server. publisher and hub may be nil.
func New(cfg *config.Config, st *store.Store, d MessageDispatcher, publisher *publish.Publisher, hub *events.Hub) *Server {
	return &Server{
		cfg:        cfg,
		store:      st,
		dispatcher: d,
		publisher:  publisher,
		hub:        hub,
		logger:     log.WithComponent("webhook"),
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.cfg.Server.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post("/webhook", s.handleWebhook)
	r.Get("/healthz", s.handleHealth)

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Middleware(s.cfg.Server.AdminToken))
		r.Get("/users/{lineUserID}", s.handleGetUser)
		r.Get("/messages/recent", s.handleRecentMessages)
		r.Get("/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests (excludes sensitive payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleWebhook runs the inbound-message pipeline for one platform
// callback: signature check, event extraction, normalization, dispatch.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limitedReader := io.LimitReader(r.Body, MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	// The signature covers the raw body byte-for-byte; nothing is parsed
	// before this check passes.
	signature := r.Header.Get(line.SignatureHeader)
	if !line.VerifySignature(body, s.cfg.Line.ChannelSecret, signature) {
		s.logger.Warn("webhook signature verification failed",
			"request_id", middleware.GetReqID(ctx),
		)
		s.respondError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	ev, err := line.Extract(body)
	if err != nil {
		s.handleRejection(ctx, w, err)
		return
	}

	// Journal the event id; a replayed id means the platform retried a
	// delivery we already handled, so stay silent like a redelivery.
	firstDelivery, jerr := s.store.MarkEventProcessed(ctx, ev.EventID)
	if jerr != nil {
		s.logger.Error("event journal failed", "event_id", ev.EventID, "error", jerr)
	} else if !firstDelivery {
		s.logger.Info("replayed event ignored", "event_id", ev.EventID)
		s.respondJSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
		return
	}

	msg := line.Normalize(ev)
	s.publishEvent(events.MessageReceived, ev, msg)

	if !msg.Failed() {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			// Forwarding is best-effort; the pipeline continues.
			s.logger.Error("message forward failed", "message_id", msg.ID, "error", err)
		}
	}

	result := s.dispatcher.Dispatch(ctx, msg)
	s.logger.Info("message dispatched",
		"event_id", ev.EventID,
		"message_id", msg.ID,
		"type", string(msg.Type),
		"success", result.Status.Success,
		"replied", result.Replied,
	)

	s.respondJSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
}

// handleRejection deals with envelopes rejected before a reply token was
// captured. Redeliveries terminate silently; other rejections still flow
// through the dispatcher so the reporter sees them.
func (s *Server) handleRejection(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, line.ErrRedelivery):
		s.logger.Info("redelivered event ignored")
	case errors.Is(err, line.ErrNoUserID):
		s.logger.Warn("event rejected", "reason", err.Error())
		s.dispatcher.Dispatch(ctx, line.InvalidMessage(line.ErrNoUserID.Error(), ""))
	default:
		s.logger.Warn("event rejected", "reason", err.Error())
		s.dispatcher.Dispatch(ctx, line.InvalidMessage(err.Error(), ""))
	}
	s.respondJSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
}

// handleGetUser looks a user up by platform user id.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	lineUserID := chi.URLParam(r, "lineUserID")

	user, err := s.store.FindUserByLineID(r.Context(), lineUserID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}
	if user == nil {
		s.respondError(w, http.StatusNotFound, "user not found")
		return
	}

	s.respondJSON(w, http.StatusOK, UserResponse{
		ID:         user.ID,
		LineUserID: user.LineUserID,
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
	})
}

// handleRecentMessages returns the newest message records.
func (s *Server) handleRecentMessages(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	recs, err := s.store.RecentMessages(r.Context(), limit)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "message lookup failed")
		return
	}

	out := make([]MessageResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, MessageResponse{
			ID:         rec.ID,
			LineUserID: rec.LineUserID,
			Message:    rec.Message,
			Filename:   rec.Filename,
			Filepath:   rec.Filepath,
			Timestamp:  rec.Timestamp.Format(time.RFC3339),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) publishEvent(eventType string, ev *line.Event, msg line.Message) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(eventType, map[string]string{
		"event_id":   ev.EventID,
		"message_id": msg.ID,
		"type":       string(msg.Type),
		"owner_id":   msg.OwnerID,
		"error":      msg.ErrorDescription,
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
