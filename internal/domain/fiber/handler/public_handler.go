package handler

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fadilmartias/resume-screener/internal/dto"
	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/fadilmartias/resume-screener/internal/middleware"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/util"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PublicHandler serves the candidate facing routes.
type PublicHandler struct {
	svc        ApplicationService
	logger     *zap.Logger
	applyLimit fiber.Handler
}

func NewPublicHandler(svc ApplicationService, logger *zap.Logger) *PublicHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicHandler{
		svc:        svc,
		logger:     logger,
		applyLimit: middleware.ApplyRateLimiter(5, time.Minute),
	}
}

func (h *PublicHandler) RegisterRoutes(app *fiber.App) {
	public := app.Group("/public")
	public.Get("/jobs/:public_link", h.Job)
	public.Post("/apply/:public_link", h.applyLimit, h.Apply)
}

func (h *PublicHandler) Job(c *fiber.Ctx) error {
	job, err := h.svc.PublicJob(c.UserContext(), c.Params("public_link"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job",
		Data:    dto.NewPublicJobDTO(job),
	})
}

func (h *PublicHandler) Apply(c *fiber.Ctx) error {
	in := usecase.SubmitInput{
		PublicLink: c.Params("public_link"),
		FullName:   c.FormValue("full_name"),
		Email:      c.FormValue("email"),
	}
	if phone := strings.TrimSpace(c.FormValue("phone")); phone != "" {
		in.Phone = &phone
	}
	if raw := strings.TrimSpace(c.FormValue("years_of_experience")); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "years_of_experience", "must be a whole number")
		}
		in.YearsOfExperience = &years
	}

	file, err := c.FormFile("resume")
	if err != nil {
		return badRequest(c, "resume", "resume file is required")
	}
	if file.Size > extractor.MaxPayloadBytes {
		return writeError(c, h.logger, extractor.ErrPayloadTooLarge)
	}

	f, err := file.Open()
	if err != nil {
		return writeError(c, h.logger, err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, extractor.MaxPayloadBytes+1))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	in.Data = data
	in.Filename = file.Filename
	in.ContentType = file.Header.Get(fiber.HeaderContentType)

	app, err := h.svc.Submit(c.UserContext(), in)
	if err != nil {
		if !errors.Is(err, usecase.ErrDuplicateApplication) {
			h.logger.Debug("application rejected", zap.String("public_link", in.PublicLink), zap.Error(err))
		}
		return writeError(c, h.logger, err)
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusCreated,
		Message: "Application submitted successfully",
		Data:    fiber.Map{"application_id": app.ID},
	})
}
