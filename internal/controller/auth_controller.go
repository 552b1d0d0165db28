package controller

import (
	"design-companion-be/internal/dto"
	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/service"
	"design-companion-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	SelectRole(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IRoleService
	tokens  *serverutils.TokenManager
}

func NewAuthController(service service.IRoleService, tokens *serverutils.TokenManager) IAuthController {
	return &authController{service: service, tokens: tokens}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/v1")
	h.Post("/role", c.SelectRole)
	h.Get("/me", c.tokens.JwtMiddleware, c.Me)
	h.Post("/logout", c.tokens.JwtMiddleware, c.Logout)
}

// SelectRole keeps the workspace of a caller that already holds a valid
// token; anyone else gets a fresh client id.
func (c *authController) SelectRole(ctx *fiber.Ctx) error {
	var req dto.SelectRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	clientID := uuid.NewString()
	if claims := c.tokens.OptionalClaims(ctx); claims != nil {
		clientID = claims.ClientID
	}

	res, err := c.service.SelectRole(ctx.UserContext(), clientID, entity.UserRole(req.Role))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Role selected", res))
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	res := c.service.AuthState(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Auth state", res))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	if err := c.service.Logout(ctx.UserContext(), serverutils.ClientID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Logged out", nil))
}
