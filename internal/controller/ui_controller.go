package controller

import (
	"design-companion-be/internal/dto"
	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/service"
	"design-companion-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type IUIController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	ToggleSidebar(ctx *fiber.Ctx) error
}

type uiController struct {
	service service.IUIService
	tokens  *serverutils.TokenManager
}

func NewUIController(service service.IUIService, tokens *serverutils.TokenManager) IUIController {
	return &uiController{service: service, tokens: tokens}
}

func (c *uiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ui/v1")
	h.Use(c.tokens.JwtMiddleware)
	h.Get("", c.Show)
	h.Patch("", c.Update)
	h.Post("/sidebar/toggle", c.ToggleSidebar)
}

func (c *uiController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("UI state", c.service.GetState(ctx.UserContext(), serverutils.ClientID(ctx))))
}

func (c *uiController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateUIRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), serverutils.ClientID(ctx), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("UI state updated", res))
}

func (c *uiController) ToggleSidebar(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("UI state updated", c.service.ToggleSidebar(ctx.UserContext(), serverutils.ClientID(ctx))))
}
