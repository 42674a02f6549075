package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/dto"
	"github.com/spec-kit/governance-service/internal/auth"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/service"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// AuthHandler manages login and account provisioning endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	account, token, exp, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		Account:   accountResponse(account),
	}})
}

// CreateAccount POST /auth/accounts. Admin-only.
func (h *AuthHandler) CreateAccount(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	account, err := h.service.CreateAccount(c.Context(), actor, req.Email, req.Password, req.PostingID, req.IsAdmin)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": accountResponse(account)})
}

func accountResponse(account *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		PostingID: account.PostingID,
		IsAdmin:   account.IsAdmin,
		CreatedAt: account.CreatedAt,
	}
}

func actorFromContext(c *fiber.Ctx) (domain.ActorRef, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return domain.ActorRef{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.ActorRef(), nil
}
