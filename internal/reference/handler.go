package reference

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/pkg/httputil"
)

// Handler handles HTTP requests for catalog search.
type Handler struct {
	service *Service
}

// NewHandler creates a new reference handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the search route. The caller wraps it with the
// admin gate and the write rate limiter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/whiskies/search", h.Search)
}

// CatalogEntryResponse represents a master catalog entry in API responses.
// Absent attributes come back as empty strings; the client decides what to
// pre-fill.
type CatalogEntryResponse struct {
	Name        string `json:"name"`
	Age         string `json:"age"`
	Strength    string `json:"strength"`
	BottleSize  string `json:"bottle_size"`
	YearBottled string `json:"year_bottled"`
}

func toResponse(e *domain.CatalogEntry) CatalogEntryResponse {
	return CatalogEntryResponse{
		Name:        e.Name,
		Age:         orEmpty(e.Age),
		Strength:    orEmpty(e.Strength),
		BottleSize:  orEmpty(e.BottleSize),
		YearBottled: orEmpty(e.YearBottled),
	}
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Search handles GET /whiskies/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	resp := make([]CatalogEntryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, toResponse(&entries[i]))
	}

	httputil.JSON(w, http.StatusOK, resp)
}
