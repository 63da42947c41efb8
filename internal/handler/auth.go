package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
	"github.com/iliyamo/line-seat-reservation/internal/middleware"
	"github.com/iliyamo/line-seat-reservation/internal/model"
	"github.com/iliyamo/line-seat-reservation/internal/repository"
	"github.com/iliyamo/line-seat-reservation/internal/utils"
)

// OperatorStore looks operators up by username.  Unknown usernames yield
// repository.ErrNotFound.
type OperatorStore interface {
	OperatorByUsername(ctx context.Context, username string) (model.Operator, error)
}

// AuthHandler issues operator access tokens.
type AuthHandler struct {
	Secret       string
	AccessTTLMin int
	Operators    OperatorStore
}

// NewAuthHandler returns a handler signing tokens with secret.
func NewAuthHandler(secret string, accessTTLMin int, operators OperatorStore) *AuthHandler {
	return &AuthHandler{Secret: secret, AccessTTLMin: accessTTLMin, Operators: operators}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	Username string    `json:"username"`
	Role     string    `json:"role"`
	Access   tokenPart `json:"access"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	logger := logging.FromContext(ctx)

	op, err := h.Operators.OperatorByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		utils.VerifyPassword(utils.DummyHash(), req.Password)
		logger.Warn("operator login rejected", slog.String("username", req.Username))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case err != nil:
		logging.LogError(logger, "operator lookup failed", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !op.IsActive || !utils.VerifyPassword(op.PasswordHash, req.Password) {
		logger.Warn("operator login rejected", slog.String("username", req.Username))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	role := op.Role
	if role == "" {
		role = middleware.RoleOperator
	}
	access, err := utils.NewAccessToken(h.Secret, op.Username, role, h.AccessTTLMin)
	if err != nil {
		logging.LogError(logger, "issue access token failed", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	logger.Info("operator logged in", slog.String("username", op.Username))
	return c.JSON(http.StatusOK, loginResp{
		Username: op.Username,
		Role:     role,
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
	})
}
