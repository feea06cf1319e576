package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/smartquiz/internal/catalog"
	"github.com/gokatarajesh/smartquiz/internal/logging"
	httperrors "github.com/gokatarajesh/smartquiz/pkg/http/errors"
)

// Catalog lists practice quizzes.
type Catalog interface {
	List(ctx context.Context) ([]catalog.Summary, error)
	Get(ctx context.Context, id string) (catalog.Quiz, error)
}

// HTTPHandler exposes dashboard endpoints.
type HTTPHandler struct {
	catalog  Catalog
	features Features
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a dashboard HTTP handler. A nil features value
// reports everything unavailable.
func NewHTTPHandler(c Catalog, features Features, logger zerolog.Logger) *HTTPHandler {
	if features == nil {
		features = Unavailable{}
	}
	return &HTTPHandler{
		catalog:  c,
		features: features,
		logger:   logger.With().Str("component", "dashboard_http").Logger(),
	}
}

// ListQuizzes handles GET /v1/quizzes
func (h *HTTPHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.catalog.List(r.Context())
	if err != nil {
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("list quizzes failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeCatalogFetchFail, "Failed to load quizzes")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

// GetQuiz handles GET /v1/quizzes/{id}
func (h *HTTPHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	q, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrQuizNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz not found")
			return
		}
		reqLogger := logging.FromContext(r.Context())
		reqLogger.Error().Err(err).Msg("get quiz failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeCatalogFetchFail, "Failed to load quiz")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, q.Summary)
}

// Feature returns a handler gated on feature. Unavailable features answer 501.
func (h *HTTPHandler) Feature(feature Feature, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.features.Check(r.Context(), feature); err != nil {
			var unavailable *FeatureUnavailableError
			if errors.As(err, &unavailable) {
				httperrors.RespondErrorWithDetails(w, http.StatusNotImplemented, httperrors.ErrCodeFeatureNotAvailable,
					"This feature is coming soon", map[string]any{"feature": string(feature)})
				return
			}
			h.logger.Error().Err(err).Str("feature", string(feature)).Msg("feature check failed")
			httperrors.RespondInternalError(w, "Feature check failed")
			return
		}
		if next == nil {
			httperrors.RespondError(w, http.StatusNotImplemented, httperrors.ErrCodeFeatureNotAvailable, "This feature is coming soon")
			return
		}
		next(w, r)
	}
}
