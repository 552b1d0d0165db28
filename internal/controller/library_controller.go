package controller

import (
	"io"
	"net/url"

	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/service"
	"design-companion-be/pkg/apperror"
	"design-companion-be/pkg/gemini"

	"github.com/gofiber/fiber/v2"
)

type ILibraryController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Initialize(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	RemoveFile(ctx *fiber.Ctx) error
	StoreInfo(ctx *fiber.Ctx) error
	DeleteStore(ctx *fiber.Ctx) error
	ListStores(ctx *fiber.Ctx) error
	ResetProgress(ctx *fiber.Ctx) error
}

type libraryController struct {
	service service.ILibraryService
	tokens  *serverutils.TokenManager
	hasKey  func() bool
}

func NewLibraryController(service service.ILibraryService, tokens *serverutils.TokenManager, hasKey func() bool) ILibraryController {
	return &libraryController{service: service, tokens: tokens, hasKey: hasKey}
}

func (c *libraryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/library/v1")
	h.Use(c.tokens.JwtMiddleware)
	h.Use(serverutils.RequireCredential(c.hasKey, apperror.MessageFor(apperror.KindCredential)))
	h.Get("", c.Show)
	h.Post("/init", c.Initialize)
	h.Post("/files", c.Upload)
	h.Delete("/files/:name", c.RemoveFile)
	h.Get("/store", c.StoreInfo)
	h.Delete("/store", c.DeleteStore)
	h.Get("/stores", c.ListStores)
	h.Delete("/progress", c.ResetProgress)
}

func (c *libraryController) Show(ctx *fiber.Ctx) error {
	res := c.service.GetLibrary(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Library state", res))
}

func (c *libraryController) Initialize(ctx *fiber.Ctx) error {
	res, err := c.service.InitializeLibrary(ctx.UserContext(), serverutils.ClientID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Library ready", res))
}

// Upload expects multipart form fields "file" and an optional "context".
func (c *libraryController) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("file")
	if err != nil {
		return apperror.Wrap(apperror.KindFile, err, "A file is required")
	}
	f, err := header.Open()
	if err != nil {
		return apperror.Wrap(apperror.KindFile, err, "Failed to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return apperror.Wrap(apperror.KindFile, err, "Failed to read uploaded file")
	}

	file := gemini.UploadFile{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}
	res, err := c.service.UploadDocument(ctx.UserContext(), serverutils.ClientID(ctx), file, ctx.FormValue("context"))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Document indexed", res))
}

func (c *libraryController) RemoveFile(ctx *fiber.Ctx) error {
	name, err := url.PathUnescape(ctx.Params("name"))
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, err, "Invalid file name")
	}
	if err := c.service.RemoveDocument(ctx.UserContext(), serverutils.ClientID(ctx), name); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document removed", nil))
}

func (c *libraryController) StoreInfo(ctx *fiber.Ctx) error {
	res, err := c.service.GetStoreInfo(ctx.UserContext(), serverutils.ClientID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Store info", res))
}

func (c *libraryController) DeleteStore(ctx *fiber.Ctx) error {
	if err := c.service.DeleteStore(ctx.UserContext(), serverutils.ClientID(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Store deleted", nil))
}

func (c *libraryController) ListStores(ctx *fiber.Ctx) error {
	res, err := c.service.ListStores(ctx.UserContext(), serverutils.ClientID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Stores", res))
}

func (c *libraryController) ResetProgress(ctx *fiber.Ctx) error {
	res := c.service.ResetUploadProgress(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Upload progress cleared", res))
}
