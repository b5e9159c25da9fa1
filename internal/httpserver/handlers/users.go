package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/ussm/internal/accounts"
	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ussm/internal/logger"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success  bool        `json:"success"`
	Role     domain.Role `json:"role"`
	ID       string      `json:"id"`
	Username string      `json:"username"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin developer user"`
}

type createUserResponse struct {
	Success bool        `json:"success"`
	User    domain.User `json:"user"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin developer user"`
}

func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}

		u, err := d.Accounts.Authenticate(r.Context(), req.Username, req.Password)
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			d.Logger.Info("login rejected", logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid credentials"})
			return
		}
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Success: true, Role: u.Role, ID: u.ID, Username: u.Username})
	}
}

// ListUsers never exposes password hashes.
func ListUsers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := d.Accounts.List(r.Context())
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func CreateUser(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		u, err := d.Accounts.Register(r.Context(), req.Username, req.Password, domain.Role(req.Role))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		writeJSON(w, http.StatusOK, createUserResponse{Success: true, User: u})
	}
}

func UpdateRole(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roleRequest
		if err := decode(r, d, &req); err != nil {
			writeError(w, r, d, err)
			return
		}
		id, err := pathParam(r, "id")
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		if err := d.Accounts.ChangeRole(r.Context(), id, domain.Role(req.Role)); err != nil {
			writeError(w, r, d, err)
			return
		}
		writeOK(w)
	}
}
