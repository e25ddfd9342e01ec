// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "corep-assist/internal/common/errors"
	"corep-assist/internal/common/logger"
	"corep-assist/internal/common/validation"
	"corep-assist/internal/models"
	"corep-assist/internal/pipeline"
	"corep-assist/pkg/templates"
)

// Processor is the query pipeline as the API layer sees it.
type Processor interface {
	Process(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
	DocumentCount(ctx context.Context) (int, error)
}

type Server struct {
	processor Processor
	registry  *templates.Registry
	version   string
	logger    logger.Logger
}

func New(processor Processor, registry *templates.Registry, version string, log logger.Logger) *Server {
	return &Server{
		processor: processor,
		registry:  registry,
		version:   version,
		logger: log.WithFields(map[string]interface{}{
			"component": "http-server",
		}),
	}
}

// Handler builds the route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/templates", s.handleTemplates)
	mux.HandleFunc("/api/query", s.handleQuery)
	mux.Handle("/metrics", promhttp.Handler())

	return requestID(s.logRequests(cors(mux)))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// The root pattern also catches every unregistered path.
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Regulatory Reporting Assistant API",
		"version": s.version,
		"endpoints": map[string]string{
			"query":     "/api/query",
			"templates": "/api/templates",
			"health":    "/api/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	count, err := s.processor.DocumentCount(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("health check failed", nil)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Health check failed: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"documents_loaded": count,
	})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": s.registry.List(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Reading request body: %v", err))
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if result := validation.ValidateQueryRequest(raw); !result.Valid {
		writeError(w, http.StatusBadRequest, strings.Join(result.GetErrorMessages(), "; "))
		return
	}

	var req models.QueryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	response, err := s.processor.Process(r.Context(), &req)
	if err != nil {
		status, detail := statusForError(err)
		s.logger.WithError(err).Error("query failed", map[string]interface{}{
			"status": status,
		})
		writeError(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// statusForError maps pipeline failures onto the API's status codes and
// caller-facing messages.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrRetrievalEmpty):
		return apperrors.HTTPStatus(apperrors.ErrCodeNoRelevantContext),
			"No relevant regulatory context found. Please ensure documents are ingested."
	case errors.Is(err, pipeline.ErrGeneration):
		detail := strings.TrimPrefix(err.Error(), pipeline.ErrGeneration.Error()+": ")
		return apperrors.HTTPStatus(apperrors.ErrCodeGenerationFailed),
			fmt.Sprintf("LLM processing error: %s", detail)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Query processing error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError keeps every error response on the {"detail": ...} body
// shape clients parse.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
