package api

import (
	"net/http"
	"time"

	"github.com/fastprodman/coinmarket/internal/repos/users"
)

type accountResponse struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Deposit  int64  `json:"deposit"`
}

func toAccountResponse(a users.Account) accountResponse {
	return accountResponse{ID: a.ID, Username: a.Username, Role: string(a.Role), Deposit: a.Deposit}
}

type registerRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// Register handles POST /user
func (h *HandlerProvider) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{
		"username": req.Username != nil,
		"password": req.Password != nil,
		"role":     req.Role != nil,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	a, err := h.accounts.Register(r.Context(), *req.Username, *req.Password, users.Role(*req.Role))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toAccountResponse(a))
}

// CurrentUser handles GET /user
func (h *HandlerProvider) CurrentUser(w http.ResponseWriter, r *http.Request) {
	a, _ := accountFrom(r.Context())
	writeJSON(w, r, http.StatusOK, toAccountResponse(a))
}

type updateUserRequest struct {
	Username *string `json:"username"`
}

// UpdateUser handles PUT /user
func (h *HandlerProvider) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{"username": req.Username != nil})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	a, _ := accountFrom(r.Context())

	updated, err := h.accounts.UpdateUsername(r.Context(), a.ID, *req.Username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toAccountResponse(updated))
}

type changePasswordRequest struct {
	OldPassword *string `json:"old_password"`
	NewPassword *string `json:"new_password"`
}

type changePasswordResponse struct {
	Message string `json:"message"`
	accountResponse
}

// ChangePassword handles PUT /change-password
func (h *HandlerProvider) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{
		"old_password": req.OldPassword != nil,
		"new_password": req.NewPassword != nil,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	a, _ := accountFrom(r.Context())

	updated, err := h.accounts.ChangePassword(r.Context(), a.ID, *req.OldPassword, *req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, changePasswordResponse{
		Message:         "Password changed successfully",
		accountResponse: toAccountResponse(updated),
	})
}

type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /login
func (h *HandlerProvider) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{
		"username": req.Username != nil,
		"password": req.Password != nil,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tok, err := h.accounts.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, loginResponse{Token: tok.Token, ExpiresAt: tok.ExpiresAt.UTC()})
}
