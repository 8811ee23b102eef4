package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xelth-com/facilitymap/internal/models"
	"github.com/xelth-com/facilitymap/internal/store"
	"github.com/xelth-com/facilitymap/internal/utils"
	"go.uber.org/zap"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// RefreshRequest trades a refresh token for a new token pair
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

const minPasswordLength = 8

func (r *Router) respondTokens(w http.ResponseWriter, status int, user *models.UserAuth) {
	accessToken, refreshToken, err := utils.GenerateTokens(user, r.secret)
	if err != nil {
		r.log.Error("token generation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate tokens")
		return
	}
	respondData(w, status, map[string]interface{}{
		"tokens": map[string]string{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		},
		"user": user,
	})
}

// login handles user login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var in LoginRequest
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}

	var user *models.UserAuth
	err := r.store.Tx(req.Context(), func(tx store.Tx) error {
		u, err := tx.GetUserByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
		if err != nil {
			return err
		}
		if !u.IsActive || !utils.CheckPasswordHash(in.Password, u.Password) {
			return store.ErrNotFound
		}
		now := time.Now().UTC()
		u.LastLogin = &now
		user = u
		return tx.UpdateUser(u)
	})
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials")
		return
	}
	if err != nil {
		r.respondErr(w, req, err)
		return
	}

	r.log.Info("user logged in", zap.String("user_id", user.ID))
	r.respondTokens(w, http.StatusOK, user)
}

// refresh issues new tokens for a still-active user. Role changes made
// since the last login take effect here.
func (r *Router) refresh(w http.ResponseWriter, req *http.Request) {
	var in RefreshRequest
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	userID, err := utils.RefreshSubject(in.RefreshToken, r.secret)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired refresh token")
		return
	}

	var user *models.UserAuth
	err = r.store.Tx(req.Context(), func(tx store.Tx) error {
		u, err := tx.GetUser(userID)
		if err != nil {
			return err
		}
		if !u.IsActive {
			return store.ErrNotFound
		}
		user = u
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Account no longer active")
		return
	}
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	r.respondTokens(w, http.StatusOK, user)
}

// register handles user registration. New accounts are never privileged.
func (r *Router) register(w http.ResponseWriter, req *http.Request) {
	var in RegisterRequest
	if err := decode(req, &in); err != nil {
		r.respondErr(w, req, err)
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "A valid email is required")
		return
	}
	if len(in.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Password must be at least 8 characters")
		return
	}
	if in.Username == "" {
		in.Username = in.Email
	}

	user, err := createUser(req.Context(), r.store, in, models.RoleUser)
	if errors.Is(err, store.ErrDuplicate) {
		respondError(w, http.StatusConflict, "CONFLICT", "Email or username already registered")
		return
	}
	if err != nil {
		r.respondErr(w, req, err)
		return
	}

	r.log.Info("user registered", zap.String("user_id", user.ID))
	r.respondTokens(w, http.StatusCreated, user)
}

func createUser(ctx context.Context, st store.Store, in RegisterRequest, role string) (*models.UserAuth, error) {
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.UserAuth{
		ID:       uuid.NewString(),
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		Name:     in.Name,
		Role:     role,
		IsActive: true,
	}
	err = st.Tx(ctx, func(tx store.Tx) error { return tx.CreateUser(user) })
	if err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is
// already registered. Empty credentials skip bootstrapping.
func EnsureAdmin(ctx context.Context, st store.Store, email, password string, log *zap.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	err := st.Tx(ctx, func(tx store.Tx) error {
		_, err := tx.GetUserByEmail(email)
		return err
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	user, err := createUser(ctx, st, RegisterRequest{Username: email, Email: email, Password: password, Name: "Administrator"}, models.RoleAdmin)
	if err != nil {
		return err
	}
	log.Info("bootstrap administrator created", zap.String("user_id", user.ID), zap.String("email", email))
	return nil
}
