package controller

import (
	"design-companion-be/internal/dto"
	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/service"
	"design-companion-be/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type IConsultationController interface {
	RegisterRoutes(r fiber.Router)
	GetSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GetErrors(ctx *fiber.Ctx) error
	ClearErrors(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type consultationController struct {
	service service.IConsultationService
	tokens  *serverutils.TokenManager
	hasKey  func() bool
}

func NewConsultationController(service service.IConsultationService, tokens *serverutils.TokenManager, hasKey func() bool) IConsultationController {
	return &consultationController{service: service, tokens: tokens, hasKey: hasKey}
}

func (c *consultationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/consultation/v1")
	h.Use(c.tokens.JwtMiddleware)
	h.Use(serverutils.RequireCredential(c.hasKey, apperror.MessageFor(apperror.KindCredential)))
	h.Get("/sessions", c.GetSessions)
	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions/:id", c.ShowSession)
	h.Put("/sessions/:id", c.RenameSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Post("/messages", c.SendMessage)
	h.Get("/errors", c.GetErrors)
	h.Delete("/errors", c.ClearErrors)
	h.Post("/reset", c.Reset)
}

func (c *consultationController) GetSessions(ctx *fiber.Ctx) error {
	res := c.service.GetSessions(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *consultationController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return apperror.Wrap(apperror.KindValidation, err, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateNewSession(ctx.UserContext(), serverutils.ClientID(ctx), req.Title)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *consultationController) ShowSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), serverutils.ClientID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *consultationController) RenameSession(ctx *fiber.Ctx) error {
	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RenameSession(ctx.UserContext(), serverutils.ClientID(ctx), ctx.Params("id"), req.Title)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success rename session", res))
}

func (c *consultationController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.UserContext(), serverutils.ClientID(ctx), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

// SendMessage answers 202 with dropped=true when the turn was not taken.
func (c *consultationController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), serverutils.ClientID(ctx), req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Message dropped", dto.SendMessageResponse{Dropped: true}))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *consultationController) GetErrors(ctx *fiber.Ctx) error {
	res := c.service.GetErrors(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Error state", res))
}

func (c *consultationController) ClearErrors(ctx *fiber.Ctx) error {
	c.service.ClearErrors(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Errors cleared", nil))
}

func (c *consultationController) Reset(ctx *fiber.Ctx) error {
	if err := c.service.ResetClient(ctx.UserContext(), serverutils.ClientID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Client data cleared", nil))
}
