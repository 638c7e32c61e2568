package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sentineld/sentinel/internal/alert"
	"github.com/sentineld/sentinel/internal/config"
	"github.com/sentineld/sentinel/internal/reactive"
)

// Dependencies holds everything the router needs to host the alert-tailing
// and health surface. Unlike the teacher, there is no camera/recording CRUD
// to wire here: the orchestrator owns VideoSource/Subscriber lifecycle
// entirely through internal/source and internal/subscriber, which are
// reached via configuration files and the plugin registry, not HTTP.
type Dependencies struct {
	Config  *config.Config
	DB      *sql.DB
	Alerts  *alert.Manager
	Logger  *zap.Logger
}

// Router is the minimal HTTP surface SPEC_FULL.md carries over from the
// teacher: health/readiness probes and a live alert feed for operators,
// guarded by a single bearer token instead of a login/session system.
type Router struct {
	cfg    *config.Config
	mux    *chi.Mux
	alerts *alert.Manager
	db     *sql.DB
	logger *zap.Logger
}

// NewRouter builds the router and registers every route.
func NewRouter(deps *Dependencies) *Router {
	r := &Router{
		cfg:    deps.Config,
		mux:    chi.NewRouter(),
		alerts: deps.Alerts,
		db:     deps.DB,
		logger: deps.Logger,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupMiddleware() {
	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.RealIP)
	r.mux.Use(zapRequestLogger(r.logger))
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(middleware.Timeout(60 * time.Second))

	if r.cfg.API.EnableCORS {
		r.mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   r.cfg.API.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.mux.Use(middleware.Compress(5))
}

func (r *Router) setupRoutes() {
	r.mux.Get("/health", r.handleHealth)
	r.mux.Get("/ready", r.handleReady)

	r.mux.Route("/api/v1", func(rt chi.Router) {
		rt.Get("/alerts", r.handleListAlerts)

		rt.Group(func(live chi.Router) {
			live.Use(Authenticate(r.cfg.API.AuthToken, r.logger))
			live.Get("/alerts/ws", r.handleAlertsWebSocket)
			live.Get("/alerts/sse", r.handleAlertsSSE)
		})
	})
}

var startTime = time.Now()

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(startTime).String(),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()

	components := map[string]string{"database": "not configured"}
	ready := true

	if r.db != nil {
		if err := r.db.PingContext(ctx); err != nil {
			components["database"] = "unhealthy: " + err.Error()
			ready = false
		} else {
			components["database"] = "healthy"
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]any{"status": status, "components": components})
}

// handleListAlerts serves the lookback query over persisted alerts, a thin
// wrapper over alert.Manager.List. ?source= and ?limit= are both optional.
func (r *Router) handleListAlerts(w http.ResponseWriter, req *http.Request) {
	source := req.URL.Query().Get("source")
	limit := 100
	if raw := req.URL.Query().Get("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer")
			return
		}
	}

	alerts, err := r.alerts.List(req.Context(), source, limit)
	if err != nil {
		r.logger.Error("list alerts failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "LIST_FAILED", "failed to list alerts")
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

// handleAlertsWebSocket tails alert.Manager's live Subject over a WebSocket
// connection, pushing every ManagedAlert as a JSON text frame as it's
// persisted.
func (r *Router) handleAlertsWebSocket(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		r.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "connection closed")

	subID := uuid.New().String()
	sub := r.alerts.Subscribe(ctx, reactive.FuncObserver[alert.ManagedAlert]{
		NextFunc: func(ctx context.Context, a alert.ManagedAlert) error {
			data, err := json.Marshal(a)
			if err != nil {
				return err
			}
			return conn.Write(ctx, websocket.MessageText, data)
		},
	})
	defer sub.Dispose()

	r.logger.Info("alert websocket client connected", zap.String("subscriber", subID))
	<-ctx.Done()
	r.logger.Info("alert websocket client disconnected", zap.String("subscriber", subID))
}

// handleAlertsSSE is the Server-Sent Events alternative to the WebSocket
// endpoint, for clients that can't open a raw socket (browser EventSource).
func (r *Router) handleAlertsSSE(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "streaming not supported")
		return
	}

	subID := uuid.New().String()
	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"subscriber_id\":%q}\n\n", subID)
	flusher.Flush()

	writeErrCh := make(chan error, 1)
	sub := r.alerts.Subscribe(ctx, reactive.FuncObserver[alert.ManagedAlert]{
		NextFunc: func(ctx context.Context, a alert.ManagedAlert) error {
			data, err := json.Marshal(a)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				select {
				case writeErrCh <- err:
				default:
				}
				return err
			}
			flusher.Flush()
			return nil
		},
	})
	defer sub.Dispose()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-writeErrCh:
			return
		case <-ctx.Done():
			r.logger.Info("alert sse client disconnected", zap.String("subscriber", subID))
			return
		}
	}
}

func zapRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
