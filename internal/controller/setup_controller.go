package controller

import (
	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISetupController interface {
	RegisterRoutes(r fiber.Router)
	Status(ctx *fiber.Ctx) error
}

type setupController struct {
	service service.ISetupService
}

func NewSetupController(service service.ISetupService) ISetupController {
	return &setupController{service: service}
}

func (c *setupController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/setup/v1")
	h.Get("/status", c.Status)
}

func (c *setupController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Setup status", c.service.Status()))
}
