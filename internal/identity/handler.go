package identity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/maltroom/cellarman/internal/pkg/httputil"
)

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers routes that require no authentication.
// The caller wraps them with the login rate limiter.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

// RegisterAdminRoutes registers routes gated to admin-or-above.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Put("/users/{email}/role", h.UpdateRole)
}

// LoginRequest represents the login request body. Exactly one of token or
// code is expected.
type LoginRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// LoginResponse represents the login response body.
type LoginResponse struct {
	Email   string      `json:"email"`
	Name    string      `json:"name"`
	Role    domain.Role `json:"role"`
	Message string      `json:"message,omitempty"`
	IDToken string      `json:"id_token,omitempty"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: ErrMissingCredential, Status: http.StatusBadRequest},
			{Error: ErrInvalidCredential, Status: http.StatusUnauthorized},
		})
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{
		Email:   result.User.Email,
		Name:    result.User.Name,
		Role:    result.User.Role,
		Message: result.Message,
		IDToken: result.IDToken,
	})
}

// UserResponse represents a member in list responses. Nothing beyond email,
// name and role is ever exposed.
type UserResponse struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, UserResponse{Email: u.Email, Name: u.Name, Role: u.Role})
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// UpdateRoleRequest represents the role update request body.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateRole handles PUT /users/{email}/role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	targetEmail := chi.URLParam(r, "email")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	caller := httputil.GetEmail(r.Context())

	user, err := h.service.UpdateRole(r.Context(), caller, targetEmail, domain.Role(req.Role))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: ErrSelfRoleChange, Status: http.StatusBadRequest},
			{Error: ErrInvalidRole, Status: http.StatusBadRequest},
			{Error: ErrSuperadminImmutable, Status: http.StatusForbidden},
			{Error: ErrUserNotFound, Status: http.StatusNotFound},
		})
		return
	}

	httputil.JSON(w, http.StatusOK, UserResponse{Email: user.Email, Name: user.Name, Role: user.Role})
}
