package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/fadilmartias/resume-screener/internal/dto"
	"github.com/fadilmartias/resume-screener/internal/model"
	"github.com/fadilmartias/resume-screener/internal/ranking"
	"github.com/fadilmartias/resume-screener/internal/response"
	"github.com/fadilmartias/resume-screener/internal/usecase"
	"github.com/fadilmartias/resume-screener/internal/util"
	"github.com/fadilmartias/resume-screener/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ApplicationService interface {
	Submit(ctx context.Context, in usecase.SubmitInput) (*model.Application, error)
	PublicJob(ctx context.Context, link string) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Application, error)
	List(ctx context.Context, jobID uuid.UUID, q ranking.Query) ([]model.Application, error)
	Export(ctx context.Context, w io.Writer, jobID uuid.UUID, q ranking.Query) error
	UpdateNotes(ctx context.Context, id uuid.UUID, note string) (*model.Application, error)
	Act(ctx context.Context, id uuid.UUID, action workflow.Action, actor string) (*model.Application, error)
	ResumeFile(ctx context.Context, id uuid.UUID) (*usecase.ResumeDownload, error)
	PurgeJob(ctx context.Context, jobID uuid.UUID) (int, error)
}

const (
	LocalsUserID = "user_id"
	ActorHeader  = "X-User-ID"
)

type ApplicationHandler struct {
	svc    ApplicationService
	logger *zap.Logger
}

func NewApplicationHandler(svc ApplicationService, logger *zap.Logger) *ApplicationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationHandler{svc: svc, logger: logger}
}

func (h *ApplicationHandler) RegisterRoutes(app *fiber.App) {
	jobs := app.Group("/jobs/:job_id")
	jobs.Get("/applications", h.List)
	jobs.Get("/applications/export", h.Export)
	jobs.Delete("/applications", h.Purge)

	apps := app.Group("/applications")
	apps.Get("/:id", h.Get)
	apps.Put("/:id/notes", h.UpdateNotes)
	apps.Post("/:id/action", h.Act)
	apps.Get("/:id/resume", h.Resume)
}

func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return badRequest(c, "job_id", "must be a valid id")
	}
	q, err := rankingQuery(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	apps, err := h.svc.List(c.UserContext(), jobID, q)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	total := len(apps)
	var page *response.Pagination
	if c.Query("page") != "" || c.Query("page_size") != "" {
		p := response.NewPagination(c.QueryInt("page", 1), c.QueryInt("page_size", 0), total)
		apps = apps[p.From:p.To]
		page = &p
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get applications",
		Data:       dto.NewApplicationListDTO(apps, total),
		Pagination: page,
	})
}

func (h *ApplicationHandler) Export(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return badRequest(c, "job_id", "must be a valid id")
	}
	q, err := rankingQuery(c)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	var buf bytes.Buffer
	if err := h.svc.Export(c.UserContext(), &buf, jobID, q); err != nil {
		return writeError(c, h.logger, err)
	}
	c.Attachment(fmt.Sprintf("applications-%s.xlsx", jobID))
	c.Set(fiber.HeaderContentType, xlsxMIME)
	return c.Send(buf.Bytes())
}

// Purge is called by the job service after a job is deleted.
func (h *ApplicationHandler) Purge(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return badRequest(c, "job_id", "must be a valid id")
	}
	n, err := h.svc.PurgeJob(c.UserContext(), jobID)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Applications removed",
		Data:    fiber.Map{"removed": n},
	})
}

func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "id", "must be a valid id")
	}
	app, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get application",
		Data:    dto.NewApplicationDetailDTO(app),
	})
}

type notesRequest struct {
	Note string `json:"note"`
}

func (h *ApplicationHandler) UpdateNotes(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "id", "must be a valid id")
	}
	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "note", "body must be JSON with a note field")
	}
	app, err := h.svc.UpdateNotes(c.UserContext(), id, req.Note)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Notes updated",
		Data:    dto.NewApplicationDetailDTO(app),
	})
}

type actionRequest struct {
	Action string `json:"action"`
}

func (h *ApplicationHandler) Act(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "id", "must be a valid id")
	}
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "action", "body must be JSON with an action field")
	}
	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return badRequest(c, "action", "must be one of interview, reject, hire")
	}

	app, err := h.svc.Act(c.UserContext(), id, action, actorFrom(c))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: fmt.Sprintf("Application moved to %s", app.Status),
		Data:    dto.NewApplicationDetailDTO(app),
	})
}

// actorFrom identifies the HR user for the audit trail: the id left in locals
// by the upstream auth middleware, else the ActorHeader set by the gateway.
func actorFrom(c *fiber.Ctx) string {
	switch v := c.Locals(LocalsUserID).(type) {
	case uuid.UUID:
		if v != uuid.Nil {
			return v.String()
		}
	case string:
		if v != "" {
			return v
		}
	}
	return c.Get(ActorHeader)
}

func (h *ApplicationHandler) Resume(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "id", "must be a valid id")
	}
	dl, err := h.svc.ResumeFile(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	c.Attachment(dl.Filename)
	c.Set(fiber.HeaderContentType, dl.ContentType)
	return c.SendStream(dl.Body, int(dl.Size))
}

func rankingQuery(c *fiber.Ctx) (ranking.Query, error) {
	sortBy, err := ranking.ParseSort(c.Query("sort_by"))
	if err != nil {
		return ranking.Query{}, &usecase.InputError{Fields: map[string]string{"sort_by": "must be score or applied_at"}}
	}
	q := ranking.Query{SortBy: sortBy}
	if raw := c.Query("status"); raw != "" {
		status, err := workflow.ParseStatus(raw)
		if err != nil {
			return ranking.Query{}, &usecase.InputError{Fields: map[string]string{"status": "must be one of applied, interview, reject, hire"}}
		}
		q.Status = &status
	}
	return q, nil
}
