// Package api provides an HTTP API for the model registry.
// It exposes read endpoints for version metadata and a prediction endpoint
// that serves registered models.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/modelreg/internal/log"
	"github.com/zjrosen/modelreg/internal/predictor"
	"github.com/zjrosen/modelreg/internal/presentation"
	"github.com/zjrosen/modelreg/internal/registry"
	"github.com/zjrosen/modelreg/internal/versions/domain"
)

// MaxPredictBodyBytes caps the size of a /predict request body.
const MaxPredictBodyBytes = 1 << 20

// Registry is the subset of *registry.Registry the handler needs.
type Registry interface {
	ListVersions(ctx context.Context, modelType string) []registry.Summary
	LatestVersion(ctx context.Context, modelType string) (string, bool)
	VersionDetails(ctx context.Context, versionName string) (*domain.ModelVersion, bool)
	Load(ctx context.Context, ref registry.LoadRef) (predictor.Model, bool)
	ModelTypes(ctx context.Context) []string
}

// Handler provides HTTP endpoints for registry operations.
type Handler struct {
	reg    Registry
	tracer trace.Tracer
}

// HandlerConfig configures the API handler.
type HandlerConfig struct {
	// Registry answers every request (required).
	Registry Registry
	// Tracer wraps each request in a server span (optional).
	Tracer trace.Tracer
}

// NewHandler creates a new API handler wrapping the given registry.
func NewHandler(reg Registry) *Handler {
	return &Handler{reg: reg}
}

// NewHandlerWithConfig creates a new API handler with full configuration.
func NewHandlerWithConfig(cfg HandlerConfig) *Handler {
	return &Handler{
		reg:    cfg.Registry,
		tracer: cfg.Tracer,
	}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// Metadata
	mux.HandleFunc("GET /model-types", h.ListModelTypes)
	mux.HandleFunc("GET /model-types/{type}/latest", h.Latest)
	mux.HandleFunc("GET /versions", h.ListVersions)
	mux.HandleFunc("GET /versions/{name}", h.GetVersion)

	// Serving
	mux.HandleFunc("POST /predict", h.Predict)

	// Health check
	mux.HandleFunc("GET /health", h.Health)

	return withRequestID(withTracing(h.tracer, withAccessLog(mux)))
}

// === Request/Response Types ===

// ModelTypesResponse is the response body for listing model types.
type ModelTypesResponse struct {
	ModelTypes []string `json:"model_types"`
}

// LatestResponse is the response body for the latest version of a type.
type LatestResponse struct {
	ModelType   string `json:"model_type"`
	VersionName string `json:"version_name"`
}

// PredictRequest is the request body for predictions.
// VersionName wins over ModelType; ModelType alone selects the latest version.
type PredictRequest struct {
	VersionName string      `json:"version_name,omitempty"`
	ModelType   string      `json:"model_type,omitempty"`
	Features    [][]float64 `json:"features"`
}

// PredictResponse is the response body for predictions.
type PredictResponse struct {
	VersionName string              `json:"version_name"`
	Predictions []predictor.Outcome `json:"predictions"`
}

// HealthResponse is the response body for the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// === Handlers ===

// ListModelTypes returns every model type with at least one version.
// GET /model-types
func (h *Handler) ListModelTypes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, ModelTypesResponse{ModelTypes: h.reg.ModelTypes(r.Context())})
}

// Latest returns the newest version name of a model type.
// GET /model-types/{type}/latest
func (h *Handler) Latest(w http.ResponseWriter, r *http.Request) {
	modelType := r.PathValue("type")

	name, ok := h.reg.LatestVersion(r.Context(), modelType)
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "No versions for model type", modelType)
		return
	}

	h.writeJSON(w, http.StatusOK, LatestResponse{ModelType: modelType, VersionName: name})
}

// ListVersions lists versions newest first, optionally filtered by model type.
// GET /versions?model_type=
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	summaries := h.reg.ListVersions(r.Context(), r.URL.Query().Get("model_type"))
	h.writeJSON(w, http.StatusOK, presentation.FromSummaries(summaries))
}

// GetVersion returns the full record of one version.
// GET /versions/{name}
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	v, ok := h.reg.VersionDetails(r.Context(), name)
	if !ok {
		h.writeError(w, http.StatusNotFound, "not_found", "Version not found", name)
		return
	}

	h.writeJSON(w, http.StatusOK, presentation.FromVersion(v))
}

// Predict loads a model and runs it on the given feature rows.
// POST /predict
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	body := http.MaxBytesReader(w, r.Body, MaxPredictBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request_too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), "")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body", err.Error())
		return
	}

	if req.VersionName == "" && req.ModelType == "" {
		h.writeError(w, http.StatusBadRequest, "insufficient_arguments", registry.ErrInsufficientArguments.Error(), "")
		return
	}
	if len(req.Features) == 0 {
		h.writeError(w, http.StatusBadRequest, "validation_error", "features is required", "")
		return
	}

	// Resolve the name first so the response reports which version answered.
	name := req.VersionName
	if name == "" {
		latest, ok := h.reg.LatestVersion(r.Context(), req.ModelType)
		if !ok {
			h.writeError(w, http.StatusNotFound, "model_unavailable", "No versions for model type", req.ModelType)
			return
		}
		name = latest
	}

	model, ok := h.reg.Load(r.Context(), registry.LoadRef{VersionName: name})
	if !ok {
		h.writeError(w, http.StatusNotFound, "model_unavailable", "Model could not be loaded", name)
		return
	}

	predictions, err := model.Predict(req.Features)
	if err != nil {
		if errors.Is(err, predictor.ErrFeatureMismatch) {
			h.writeError(w, http.StatusBadRequest, "validation_error", "Feature rows do not match the model", err.Error())
			return
		}
		log.ErrorErr(log.CatAPI, "Prediction failed", err, "version", name)
		h.writeError(w, http.StatusInternalServerError, "prediction_failed", "Prediction failed", err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, PredictResponse{VersionName: name, Predictions: predictions})
}

// Health reports that the server is up.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// === Helpers ===

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatAPI, "Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Server wraps the Handler with an http.Server for lifecycle management.
type Server struct {
	handler  *Handler
	server   *http.Server
	listener net.Listener
	addr     string
	port     int // Actual port after binding (useful when using :0)
}

// ServerConfig configures the API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., "localhost:8000").
	Addr string
	// Registry is exposed via HTTP.
	Registry Registry
	// Tracer wraps each request in a server span (optional).
	Tracer trace.Tracer
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
}

// NewServer creates a new API server.
// If Addr uses port 0 (e.g., "localhost:0" or ":0"), the OS will assign an available port.
func NewServer(cfg ServerConfig) (*Server, error) {
	handler := NewHandlerWithConfig(HandlerConfig{
		Registry: cfg.Registry,
		Tracer:   cfg.Tracer,
	})

	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}

	// Create listener first to get the actual port (important for :0)
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	port := 0
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	return &Server{
		handler:  handler,
		addr:     cfg.Addr,
		port:     port,
		listener: listener,
		server: &http.Server{
			Handler:           handler.Routes(),
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
	}, nil
}

// Start starts the HTTP server. It blocks until the server is stopped or fails.
// A graceful Stop is not reported as an error.
func (s *Server) Start() error {
	log.Info(log.CatAPI, "Starting API server", "addr", s.listener.Addr().String(), "port", s.port)
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info(log.CatAPI, "Stopping API server")
	return s.server.Shutdown(ctx)
}

// Port returns the actual port the server is listening on.
func (s *Server) Port() int {
	return s.port
}
