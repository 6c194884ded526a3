package handlers

import (
	"errors"
	"strings"

	"github.com/dimitrije/unity-admin/internal/middleware"
	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/dimitrije/unity-admin/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type AuthHandler struct {
	sessions SessionContextInterface
	store    SessionStoreInterface
}

func NewAuthHandler(sessions SessionContextInterface, store SessionStoreInterface) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		store:    store,
	}
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.BadRequest("email and password are required")
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Unauthorized("invalid email or password")
			return
		}
		c.InternalServerError("failed to sign in")
		return
	}

	_ = c.JSON(200, dto.LoginResponse{
		TokenResponse: dto.TokenResponse{
			AccessToken:  res.Tokens.AccessToken,
			RefreshToken: res.Tokens.RefreshToken,
			ExpiresIn:    res.Tokens.ExpiresIn,
		},
		Profile: dto.NewProfileResponse(res.State.Profile),
		IsAdmin: res.State.IsAdmin(),
	})
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	res, err := h.store.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			c.Unauthorized("invalid refresh token")
			return
		}
		c.InternalServerError("failed to refresh session")
		return
	}

	_ = c.JSON(200, dto.TokenResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresIn:    res.Tokens.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	state := middleware.GetState(c)
	if state == nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), state.User); err != nil {
		c.InternalServerError("failed to sign out")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Me(c *drift.Context) {
	state := middleware.GetState(c)
	if state == nil {
		c.Unauthorized("not authenticated")
		return
	}

	_ = c.JSON(200, dto.MeResponse{
		UserID:      state.User.ID,
		SessionID:   state.User.SessionID,
		Email:       state.User.Email,
		DisplayName: state.User.DisplayName,
		Role:        state.Role,
		IsAdmin:     state.IsAdmin(),
		Profile:     dto.NewProfileResponse(state.Profile),
	})
}
