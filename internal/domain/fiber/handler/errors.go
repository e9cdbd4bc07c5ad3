package handler

import (
	"errors"

	"github.com/fadilmartias/resume-screener/internal/extractor"
	"github.com/fadilmartias/resume-screener/internal/ranking"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/util"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PayloadTooLargeMessage is shared with the server's body limit so both 413
// paths read the same.
const PayloadTooLargeMessage = "Resume file is too large (max 5MB)"

// writeError maps a domain error onto a status code and envelope. Anything
// unrecognised is a 500 with a generic message.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var (
		invalid  *workflow.InvalidTransitionError
		inputErr *usecase.InputError
	)
	switch {
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnsupportedMediaType,
			Message: "Unsupported resume format, upload a PDF, DOC or DOCX file",
		}, err)
	case errors.Is(err, extractor.ErrPayloadTooLarge):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusRequestEntityTooLarge,
			Message: PayloadTooLargeMessage,
		}, err)
	case errors.Is(err, extractor.ErrExtractionTimeout):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: "Reading the resume took too long, try a smaller or simpler file",
		}, err)
	case errors.Is(err, extractor.ErrUnextractableDocument):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusUnprocessableEntity,
			Message: "No readable text found in the resume, scanned images are not supported",
		}, err)
	case errors.Is(err, usecase.ErrDuplicateApplication):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: "You have already applied for this job with this email",
		}, err)
	case errors.As(err, &invalid):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: invalid.Error(),
			Details: fiber.Map{
				"current_status":  invalid.From,
				"action":          invalid.Action,
				"allowed_actions": workflow.Actions(invalid.From),
			},
		})
	case errors.Is(err, usecase.ErrConflict):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: err.Error(),
		})
	case errors.As(err, &inputErr):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "Invalid input",
			Details: inputErr.Fields,
		})
	case errors.Is(err, ranking.ErrInvalidSort):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "sort_by must be score or applied_at",
		}, err)
	case errors.Is(err, usecase.ErrNotFound):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: err.Error(),
			Details: c.AllParams(),
		})
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusInternalServerError,
		Message: "Internal server error",
	}, err)
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	return util.ErrorResponse(c, util.ErrorResponseFormat{
		Code:    fiber.StatusBadRequest,
		Message: "Invalid input",
		Details: map[string]string{field: msg},
	})
}
