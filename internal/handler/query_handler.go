package handler

import (
	"bytes"
	"errors"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scoped-query-api/internal/dto"
	"github.com/noah-isme/scoped-query-api/internal/models"
	"github.com/noah-isme/scoped-query-api/internal/service"
	"github.com/noah-isme/scoped-query-api/internal/utils"
)

const (
	emptyScopeMessage    = "No students in your scope"
	queryFailureMessage  = "Error processing query"
	rephraseQueryMessage = "Try rephrasing your question or use one of the suggested queries."
)

// QueryHandler exposes admin selection, scope and query endpoints.
type QueryHandler struct {
	service   service.QueryService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQueryHandler constructs the query handler.
func NewQueryHandler(service service.QueryService, validate *validator.Validate, logger zerolog.Logger) *QueryHandler {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &QueryHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "query_handler").Logger(),
	}
}

// RegisterDirectory attaches the admin list and suggested query endpoints.
func (h *QueryHandler) RegisterDirectory(router fiber.Router) {
	router.Get("/admins", h.listAdmins)
	router.Get("/queries/suggested", h.suggestedQueries)
}

// Register attaches the per-admin endpoints to a group mounted on /admins/:adminID.
// queryMiddleware runs in front of the query and export routes only.
func (h *QueryHandler) Register(router fiber.Router, queryMiddleware ...fiber.Handler) {
	router.Get("/scope", h.scope)
	router.Get("/access", h.access)
	router.Post("/query", slices.Concat(queryMiddleware, []fiber.Handler{h.query})...)
	router.Post("/query/export", slices.Concat(queryMiddleware, []fiber.Handler{h.export})...)
}

func (h *QueryHandler) listAdmins(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "admins retrieved", h.service.Admins(c.UserContext()))
}

func (h *QueryHandler) suggestedQueries(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "suggested queries retrieved", service.SuggestedQueries)
}

func (h *QueryHandler) scope(c *fiber.Ctx) error {
	scope, err := h.service.Scope(c.UserContext(), c.Params("adminID"))
	if err != nil {
		return h.handleError(c, err)
	}
	if scope.Empty {
		return utils.SendSuccess(c, emptyScopeMessage, scope)
	}
	return utils.SendSuccess(c, "scope retrieved", scope)
}

func (h *QueryHandler) access(c *fiber.Ctx) error {
	grade, err := optionalQueryInt(c, "grade")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "grade must be an integer")
	}

	result, err := h.service.CheckAccess(c.UserContext(), c.Params("adminID"), grade, optionalQueryString(c, "class"))
	if err != nil {
		return h.handleError(c, err)
	}
	if !result.Allowed {
		return utils.Fail(c, fiber.StatusForbidden, result.Reason, result)
	}
	return utils.SendSuccess(c, "access granted", result)
}

func (h *QueryHandler) query(c *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return h.validationError(c, err)
	}

	response, err := h.service.Query(c.UserContext(), c.Params("adminID"), req.Query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, response.Summary, response)
}

func (h *QueryHandler) export(c *fiber.Ctx) error {
	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return h.validationError(c, err)
	}

	var intent *models.QueryIntent
	if parsed := bytes.TrimSpace(req.ParsedQuery); len(parsed) > 0 && !bytes.Equal(parsed, []byte("null")) {
		decoded, _, err := models.ParseQueryIntent(parsed)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "parsed_query must be a json object")
		}
		intent = &decoded
	} else if strings.TrimSpace(req.Query) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "query or parsed_query is required")
	}

	file, err := h.service.Export(c.UserContext(), c.Params("adminID"), req.Query, intent, req.Format)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendAttachment(c, file.Name, file.ContentType, file.Body)
}

func (h *QueryHandler) validationError(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query request", err.Error())
	}
	return utils.SendError(c, fiber.StatusBadRequest, err.Error())
}

func (h *QueryHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrAdminNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "admin not found")
	case errors.Is(err, service.ErrEmptyScope):
		return utils.SendError(c, fiber.StatusConflict, emptyScopeMessage)
	case errors.Is(err, service.ErrEmptyQuery):
		return utils.Fail(c, fiber.StatusBadRequest, "query must not be empty", rephraseQueryMessage)
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("admin_id", c.Params("adminID")).Msg("failed to process query")
		return utils.Fail(c, fiber.StatusInternalServerError, queryFailureMessage, rephraseQueryMessage)
	}
}
