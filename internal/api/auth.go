package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pesaflow/sacco-api/internal/auth"
	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

// AuthHandler handles registration, login and credential management.
type AuthHandler struct {
	store      *store.Store
	tokens     *auth.Manager
	bcryptCost int
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, tokens *auth.Manager, bcryptCost int) *AuthHandler {
	return &AuthHandler{store: st, tokens: tokens, bcryptCost: bcryptCost}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	memberNumber := models.NormalizeMemberNumber(req.MemberNumber)
	if memberNumber == "" || req.FirstName == "" || req.LastName == "" || req.PhoneNumber == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Member number, name and phone number are required")
		return
	}
	if !models.ValidPhoneNumber(req.PhoneNumber) {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Please enter a valid phone number")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" && !models.ValidEmail(email) {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Please enter a valid email")
		return
	}
	if len(req.Password) < auth.MinPasswordLen {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Password must be at least 8 characters")
		return
	}
	role := models.RoleUser
	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Invalid role")
			return
		}
		role = req.Role
	}

	if _, err := h.store.GetUser(memberNumber); err == nil {
		writeJSONError(w, http.StatusConflict, "conflict", "Member number already in use")
		return
	} else if err != store.ErrNotFound {
		writeDomainError(w, err)
		return
	}
	if email != "" {
		if _, err := h.store.FindUserByEmail(email); err == nil {
			writeJSONError(w, http.StatusConflict, "conflict", "Email already in use")
			return
		} else if err != store.ErrNotFound {
			writeDomainError(w, err)
			return
		}
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	user := &models.User{
		MemberNumber:      memberNumber,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             email,
		PhoneNumber:       req.PhoneNumber,
		DateJoined:        now,
		Role:              role,
		IsActive:          true,
		PasswordHash:      hash,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.MemberNumber, string(user.Role))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	if req.MemberNumber == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Member number and password are required")
		return
	}

	user, err := h.store.GetUser(models.NormalizeMemberNumber(req.MemberNumber))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid member number or password")
		return
	}

	if !user.IsActive {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Account deactivated, please contact administrator")
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.MemberNumber, string(user.Role))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// ChangePassword handles PATCH /api/auth/change-password. Issued
// tokens become invalid once the password changes.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Current password and new password are required")
		return
	}
	if len(req.NewPassword) < auth.MinPasswordLen {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Password must be at least 8 characters")
		return
	}

	user := userFrom(r)
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.bcryptCost)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	user.PasswordHash = hash
	user.PasswordChangedAt = now
	user.UpdatedAt = now

	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Password changed successfully",
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": userFrom(r),
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this
// only exists for clients to hook into.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Logout successful",
	})
}
