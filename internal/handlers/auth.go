package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"expense-api/internal/auth"
	"expense-api/internal/storage"
)

// Login verifies email/password credentials and returns the user's id
// and email. A missing user and a wrong password produce the identical
// response, so the endpoint cannot be used to enumerate accounts.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return nil
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		http.Error(w, "invalid email or password", http.StatusUnauthorized)
		return nil
	}

	return respondJSON(w, http.StatusOK, struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}{ID: user.ID, Email: user.Email})
}

// Signup registers a new user. Registering an email twice is rejected
// with a conflict and never creates a second row.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return nil
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		http.Error(w, "email, password, firstName and lastName are required", http.StatusBadRequest)
		return nil
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := h.db.CreateUser(req.Email, hash, req.FirstName, req.LastName)
	if errors.Is(err, storage.ErrDuplicate) {
		http.Error(w, "email already registered", http.StatusConflict)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return respondJSON(w, http.StatusCreated, user)
}
