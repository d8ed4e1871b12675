package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pesaflow/sacco-api/internal/models"
	"github.com/pesaflow/sacco-api/internal/store"
)

// UsersHandler handles member record endpoints.
type UsersHandler struct {
	store *store.Store
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(st *store.Store) *UsersHandler {
	return &UsersHandler{store: st}
}

// List handles GET /api/users.
// @Summary List users
// @Description Get users with optional search and active-status filter
// @Tags users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Match against member number, name or email"
// @Param status query bool false "Filter by active flag"
// @Success 200 {object} map[string]interface{}
// @Router /api/users [get]
// @Security BearerAuth
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.UserFilter{
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Invalid status")
			return
		}
		filter.Active = &active
	}

	users, err := h.store.ListUsers(filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].MemberNumber < users[j].MemberNumber
	})

	page, limit := parsePagination(r)
	pageUsers, totalPages := paginate(users, page, limit)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":       pageUsers,
		"totalUsers":  len(users),
		"currentPage": page,
		"totalPages":  totalPages,
	})
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	user, err := h.store.GetUser(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Create handles POST /api/users. Users created here have no
// credentials; registration is the self-service path.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
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

	if _, err := h.store.GetUser(memberNumber); err == nil {
		writeJSONError(w, http.StatusConflict, "conflict", "User with this member number already exists")
		return
	} else if err != store.ErrNotFound {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	dateJoined := now
	if req.DateJoined != nil {
		dateJoined = *req.DateJoined
	}

	user := &models.User{
		MemberNumber:      memberNumber,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             email,
		PhoneNumber:       req.PhoneNumber,
		DateJoined:        dateJoined,
		EmergencyContacts: req.EmergencyContacts,
		Role:              models.RoleUser,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Update handles PUT /api/users/{id}. Absent fields are left unchanged.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Failed to parse request body")
		return
	}

	user, err := h.store.GetUser(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != "" && !models.ValidEmail(email) {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Please enter a valid email")
			return
		}
		user.Email = email
	}
	if req.PhoneNumber != nil {
		if !models.ValidPhoneNumber(*req.PhoneNumber) {
			writeJSONError(w, http.StatusBadRequest, "validation_error", "Please enter a valid phone number")
			return
		}
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.DateJoined != nil {
		user.DateJoined = *req.DateJoined
	}
	if req.EmergencyContacts != nil {
		user.EmergencyContacts = *req.EmergencyContacts
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now()

	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}. The default is a soft
// deactivate; permanent=true removes the record entirely.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	user, err := h.store.GetUser(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if r.URL.Query().Get("permanent") == "true" {
		if err := h.store.DeleteUser(memberNumber); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "User permanently deleted",
			"user":    user,
		})
		return
	}

	user.IsActive = false
	user.UpdatedAt = time.Now()
	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deactivated",
		"user":    user,
	})
}

// Restore handles PATCH /api/users/{id}/restore.
func (h *UsersHandler) Restore(w http.ResponseWriter, r *http.Request) {
	memberNumber := models.NormalizeMemberNumber(chi.URLParam(r, "id"))

	user, err := h.store.GetUser(memberNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	user.IsActive = true
	user.UpdatedAt = time.Now()
	if err := h.store.PutUser(user); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User restored",
		"user":    user,
	})
}
