package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/validation"
)

// Handler exposes HTTP handlers for authentication and account endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth service not configured", nil)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.ValidationFailure(map[string]string{"body": "invalid request payload"}))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(h.validator(), req, registerMessage); err != nil {
		common.WriteError(w, err)
		return
	}
	user, err := h.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": user})
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.ValidationFailure(map[string]string{"body": "invalid request payload"}))
		return
	}
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(h.validator(), req, loginMessage); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "auth service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.WriteError(w, common.Unauthenticated(nil))
		return
	}
	user, err := h.Service.Me(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

var defaultValidate = validation.New()

func (h *Handler) validator() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return defaultValidate
}

func registerMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		return "Name is required."
	case "email":
		return "A valid email is required."
	case "password":
		return "Password must be at least 8 characters long."
	}
	return ""
}

func loginMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "email":
		return "A valid email is required."
	case "password":
		return "Password is required."
	}
	return ""
}
