package inventory

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/pkg/httputil"
)

// Placeholder values rendered for absent optional attributes. Storage keeps
// them as NULL; the sentinel is purely presentation.
const (
	placeholderAge     = "Not stated"
	placeholderGeneric = "N/A"
)

// Handler handles HTTP requests for the inventory module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new inventory handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterReadRoutes registers routes available to any authenticated member.
func (h *Handler) RegisterReadRoutes(r chi.Router) {
	r.Get("/bottles", h.List)
}

// RegisterWriteRoutes registers admin-or-above routes. The caller wraps them
// with the write rate limiter.
func (h *Handler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/bottles", h.Create)
	r.Put("/bottles/{id}", h.Update)
	r.Delete("/bottles/{id}", h.Delete)
}

// BottleResponse represents a bottle in API responses, with placeholder
// strings substituted for absent attributes.
type BottleResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Age         string    `json:"age"`
	Strength    string    `json:"strength"`
	BottleSize  string    `json:"bottle_size"`
	YearBottled string    `json:"year_bottled"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}

func toResponse(b *domain.Bottle) BottleResponse {
	return BottleResponse{
		ID:          b.ID.String(),
		Name:        b.Name,
		Age:         orPlaceholder(b.Age, placeholderAge),
		Strength:    orPlaceholder(b.Strength, placeholderGeneric),
		BottleSize:  orPlaceholder(b.BottleSize, placeholderGeneric),
		YearBottled: orPlaceholder(b.YearBottled, placeholderGeneric),
		Price:       b.Price,
		CreatedAt:   b.CreatedAt,
	}
}

func orPlaceholder(s *string, placeholder string) string {
	if s == nil {
		return placeholder
	}
	return *s
}

// List handles GET /bottles.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bottles, err := h.service.List(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	resp := make([]BottleResponse, 0, len(bottles))
	for i := range bottles {
		resp = append(resp, toResponse(&bottles[i]))
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// CreateBottleRequest represents the request body for creating a bottle.
// price is kept raw because clients send it both as a JSON number and as a
// numeric string.
type CreateBottleRequest struct {
	Name        string          `json:"name" validate:"required"`
	Age         string          `json:"age"`
	Strength    string          `json:"strength"`
	BottleSize  string          `json:"bottle_size"`
	YearBottled string          `json:"year_bottled"`
	Price       json.RawMessage `json:"price"`
}

// Create handles POST /bottles.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBottleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if len(req.Price) == 0 {
		httputil.Error(w, http.StatusBadRequest, "price is required")
		return
	}
	price, ok := parsePrice(req.Price)
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "price must be a number")
		return
	}

	bottle, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		Age:         req.Age,
		Strength:    req.Strength,
		BottleSize:  req.BottleSize,
		YearBottled: req.YearBottled,
		Price:       price,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: ErrNameRequired, Status: http.StatusBadRequest},
		})
		return
	}

	httputil.JSON(w, http.StatusCreated, toResponse(bottle))
}

// UpdateBottleRequest represents a partial update: absent fields are left
// untouched.
type UpdateBottleRequest struct {
	Name        *string         `json:"name"`
	Age         *string         `json:"age"`
	Strength    *string         `json:"strength"`
	BottleSize  *string         `json:"bottle_size"`
	YearBottled *string         `json:"year_bottled"`
	Price       json.RawMessage `json:"price"`
}

// Update handles PUT /bottles/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, ErrBottleNotFound.Error())
		return
	}

	var req UpdateBottleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	input := UpdateInput{
		Name:        req.Name,
		Age:         req.Age,
		Strength:    req.Strength,
		BottleSize:  req.BottleSize,
		YearBottled: req.YearBottled,
	}
	if len(req.Price) > 0 {
		price, ok := parsePrice(req.Price)
		if !ok {
			httputil.Error(w, http.StatusBadRequest, "price must be a number")
			return
		}
		input.Price = &price
	}

	bottle, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: ErrNameRequired, Status: http.StatusBadRequest, Message: "name cannot be empty"},
			{Error: ErrNoFields, Status: http.StatusBadRequest},
			{Error: ErrBottleNotFound, Status: http.StatusNotFound},
		})
		return
	}

	httputil.JSON(w, http.StatusOK, toResponse(bottle))
}

// Delete handles DELETE /bottles/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, ErrBottleNotFound.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: ErrBottleNotFound, Status: http.StatusNotFound},
		})
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "bottle deleted"})
}

// parsePrice accepts a JSON number or a numeric string.
func parsePrice(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}
