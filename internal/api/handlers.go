package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tradedash/tenant-server/internal/models"
	"github.com/tradedash/tenant-server/internal/tenant"
)

// ========== Auth handlers ==========

// HandleLogin handles admin login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	admin := s.config.Admin
	if admin.Email == "" || req.Email != admin.Email {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !s.auth.VerifyPassword(req.Password, admin.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(admin.Email)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	accessToken, refreshToken, err := s.auth.RefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// ========== Tenant handlers ==========

// HandleListTenants lists all tenants
func (s *RESTServer) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.service.List(r.Context())
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"total":   len(tenants),
	})
}

// HandleCreateTenant registers a tenant and provisions its schema
func (s *RESTServer) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusinessName string `json:"business_name" validate:"required,min=2,max=100"`
		Email        string `json:"email" validate:"required,email"`
		Phone        string `json:"phone"`
		TradeType    string `json:"trade_type"`
		Tier         string `json:"subscription_tier"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.TradeType == "" {
		req.TradeType = string(models.TradeGeneral)
	}
	if req.Tier == "" {
		req.Tier = string(models.TierTrial)
	}

	created, err := s.service.Create(r.Context(), tenant.CreateInput{
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Phone:        req.Phone,
		TradeType:    models.TradeType(req.TradeType),
		Tier:         models.SubscriptionTier(req.Tier),
	})
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

// HandleGetTenant gets a tenant by slug
func (s *RESTServer) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, t)
}

// HandleUpdateTenant applies a sparse attribute update. Unknown JSON
// keys are dropped by decoding; slug and schema name cannot change.
func (s *RESTServer) HandleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req struct {
		BusinessName       *string `json:"business_name"`
		Email              *string `json:"email"`
		TradeType          *string `json:"trade_type"`
		SubscriptionTier   *string `json:"subscription_tier"`
		SubscriptionStatus *string `json:"subscription_status"`
		PrimaryColor       *string `json:"primary_color"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changes := models.TenantChanges{
		BusinessName: req.BusinessName,
		Email:        req.Email,
		PrimaryColor: req.PrimaryColor,
	}
	if req.TradeType != nil {
		v := models.TradeType(*req.TradeType)
		changes.TradeType = &v
	}
	if req.SubscriptionTier != nil {
		v := models.SubscriptionTier(*req.SubscriptionTier)
		changes.SubscriptionTier = &v
	}
	if req.SubscriptionStatus != nil {
		v := models.SubscriptionStatus(*req.SubscriptionStatus)
		changes.SubscriptionStatus = &v
	}

	updated, err := s.service.Update(r.Context(), slug, changes)
	if err != nil {
		s.respondEngineError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"slug":    slug,
		"updated": updated,
	})
}

// HandleDeleteTenant removes a tenant and drops its schema. An API
// delete is already confirmed by the caller, so force is implied.
func (s *RESTServer) HandleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if err := s.service.Remove(r.Context(), slug, true); err != nil {
		s.respondEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ========== Helper methods ==========

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot root handler
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": s.config.Server.Name,
		"version": s.config.Server.Version,
		"health":  "/api/v1/health",
	})
}

// respondEngineError maps engine error kinds to HTTP statuses
func (s *RESTServer) respondEngineError(w http.ResponseWriter, err error) {
	var (
		invalidErr *tenant.InvalidArgumentError
		existsErr  *tenant.AlreadyExistsError
	)

	switch {
	case errors.As(err, &invalidErr):
		s.respondError(w, http.StatusBadRequest, invalidErr.Error())
	case errors.As(err, &existsErr):
		s.respondError(w, http.StatusConflict, existsErr.Error())
	case errors.Is(err, tenant.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "tenant not found")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}
