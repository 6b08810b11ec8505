package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/handler"
	"github.com/elys-network/yieldkeeper/internal/logger"
	"github.com/elys-network/yieldkeeper/internal/state"
	"github.com/elys-network/yieldkeeper/internal/types"
)

// Runner executes one keeper invocation.
type Runner interface {
	Run(ctx context.Context) (*types.RunResult, error)
}

// WebServer exposes the HTTP trigger, health, metrics and the optional ledger API.
type WebServer struct {
	logger        zerolog.Logger
	router        *mux.Router
	port          string
	runner        Runner
	ledgerEnabled bool
	started       time.Time
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, runner Runner, ledgerEnabled bool) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		logger:        logger.GetForComponent("web_server"),
		router:        mux.NewRouter(),
		port:          port,
		runner:        runner,
		ledgerEnabled: ledgerEnabled,
		started:       time.Now(),
	}

	server.setupRoutes()
	return server
}

// Router returns the configured handler, mainly for tests.
func (ws *WebServer) Router() http.Handler {
	return ws.router
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.HandleFunc("/run", ws.handleRun).Methods("POST")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	if ws.ledgerEnabled {
		api := ws.router.PathPrefix("/api").Subrouter()
		api.HandleFunc("/runs", ws.handleGetRuns).Methods("GET")
		api.HandleFunc("/runs/{id}/actions", ws.handleGetRunActions).Methods("GET")
		api.HandleFunc("/summary", ws.handleGetSummary).Methods("GET")
	}

	ws.router.Use(ws.loggingMiddleware)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	ws.logger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:        ":" + ws.port,
		Handler:     ws.router,
		ReadTimeout: 15 * time.Second,
		// A run makes several chain round trips.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		ws.logger.Info().Msg("Shutting down web server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// handleRun triggers one invocation and mirrors the Lambda response.
func (ws *WebServer) handleRun(w http.ResponseWriter, r *http.Request) {
	result, err := ws.runner.Run(r.Context())
	resp := handler.Response(err)

	if result != nil && result.RunID != "" {
		w.Header().Set("X-Run-Id", result.RunID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write([]byte(resp.Body)); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to write run response")
	}
}

// handleHealth reports process and ledger status.
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := "OK"
	statusCode := http.StatusOK
	ledger := map[string]interface{}{"enabled": ws.ledgerEnabled}

	if ws.ledgerEnabled {
		dbHealthy := state.PingDB(r.Context()) == nil
		ledger["database_healthy"] = dbHealthy
		if !dbHealthy {
			status = "DEGRADED"
			statusCode = http.StatusServiceUnavailable
		} else if runs, err := state.GetRecentRuns(r.Context(), 1); err == nil && len(runs) > 0 {
			ledger["last_run"] = map[string]interface{}{
				"run_id":     runs[0].RunID,
				"run_number": runs[0].RunNumber,
				"status":     runs[0].Status,
				"started_at": runs[0].StartedAt,
			}
		}
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"ledger": ledger,
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetRuns returns the latest runs
func (ws *WebServer) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	runs, err := state.GetRecentRuns(r.Context(), limit)
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get recent runs")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
		"limit": limit,
	})
}

// handleGetRunActions returns the transactions submitted by one run
func (ws *WebServer) handleGetRunActions(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	actions, err := state.GetRunActions(r.Context(), runID)
	if err != nil {
		if errors.Is(err, state.ErrRunNotFound) {
			ws.writeErrorResponse(w, http.StatusNotFound, "Run not found")
			return
		}
		ws.logger.Error().Err(err).Str("runId", runID).Msg("Failed to get run actions")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve run actions")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"actions": actions,
	})
}

func (ws *WebServer) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetLedgerSummary(r.Context())
	if err != nil {
		ws.logger.Error().Err(err).Msg("Failed to get ledger summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve ledger summary")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	ws.writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		ws.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
