package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/search/recommendation"
	"github.com/kailas-cloud/scout/internal/logger"
	healthuc "github.com/kailas-cloud/scout/internal/usecase/health"
	searchuc "github.com/kailas-cloud/scout/internal/usecase/search"
	"github.com/kailas-cloud/scout/internal/version"
)

// MaxBodyBytes caps the search request body.
const MaxBodyBytes = 1 << 20

const (
	msgInternal     = "Internal server error"
	msgBodyTooLarge = "request body too large"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
	}
	return s
}

// searchResponse is the envelope of POST /api/search. Results is never null.
type searchResponse struct {
	Results []recommendation.Recommendation `json:"results"`
	Error   string                          `json:"error,omitempty"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type versionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.handleDomainError(w, r, domain.NewValidationError(domain.KindType, msgBodyTooLarge))
			return
		}
		s.handleDomainError(w, r, domain.NewValidationError(domain.KindType, "request body could not be read"))
		return
	}

	out, err := s.search.Search(r.Context(), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results := out.Results
	if results == nil {
		results = []recommendation.Recommendation{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// Tags handles GET /api/tags.
func (s *Server) Tags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tagsResponse{Tags: s.search.Vocabulary().Tags()})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, searchResponse{
		Results: []recommendation.Recommendation{},
		Error:   message,
	})
}

// safeMessage returns the client-facing text of err. Only validation messages are exposed.
func safeMessage(err error) string {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return msgInternal
}

// validationHandler maps request validation failures to 400 with their specific message.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	writeError(w, http.StatusBadRequest, safeMessage(err))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}
