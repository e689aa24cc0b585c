package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
	"github.com/noah-isme/school-dashboard-api/pkg/response"
)

const maxPayloadBytes = 1 << 20

type mutationService interface {
	Create(ctx context.Context, actor *models.Actor, kind models.EntityKind, payload []byte) (models.MutationResult, error)
	Update(ctx context.Context, actor *models.Actor, kind models.EntityKind, id string, payload []byte) (models.MutationResult, error)
	Delete(ctx context.Context, actor *models.Actor, kind models.EntityKind, id string) (models.MutationResult, error)
	Get(ctx context.Context, kind models.EntityKind, id string) (json.RawMessage, error)
}

// MutationHandler exposes the create, update and delete operations of every entity kind.
type MutationHandler struct {
	service mutationService
}

// NewMutationHandler constructs the handler.
func NewMutationHandler(service mutationService) *MutationHandler {
	return &MutationHandler{service: service}
}

// Create godoc
// @Summary Create a record
// @Tags Mutations
// @Accept json
// @Produce json
// @Param entity path string true "Entity collection, e.g. teachers"
// @Param payload body object true "Entity payload"
// @Success 201 {object} models.MutationResult
// @Failure 400 {object} models.MutationResult
// @Failure 409 {object} models.MutationResult
// @Router /{entity} [post]
func (h *MutationHandler) Create(c *gin.Context) {
	kind := entityKind(c)
	payload, ok := readPayload(c)
	if !ok {
		return
	}
	result, err := h.service.Create(c.Request.Context(), actorFromContext(c), kind, payload)
	writeMutation(c, http.StatusCreated, result, err)
}

// Update godoc
// @Summary Update a record
// @Tags Mutations
// @Accept json
// @Produce json
// @Param entity path string true "Entity collection"
// @Param id path string true "Record ID"
// @Param payload body object true "Entity payload"
// @Success 200 {object} models.MutationResult
// @Failure 404 {object} models.MutationResult
// @Router /{entity}/{id} [put]
func (h *MutationHandler) Update(c *gin.Context) {
	kind := entityKind(c)
	payload, ok := readPayload(c)
	if !ok {
		return
	}
	result, err := h.service.Update(c.Request.Context(), actorFromContext(c), kind, c.Param("id"), payload)
	writeMutation(c, http.StatusOK, result, err)
}

// Delete godoc
// @Summary Delete a record
// @Tags Mutations
// @Produce json
// @Param entity path string true "Entity collection"
// @Param id path string true "Record ID"
// @Success 200 {object} models.MutationResult
// @Failure 409 {object} models.MutationResult
// @Router /{entity}/{id} [delete]
func (h *MutationHandler) Delete(c *gin.Context) {
	kind := entityKind(c)
	result, err := h.service.Delete(c.Request.Context(), actorFromContext(c), kind, c.Param("id"))
	writeMutation(c, http.StatusOK, result, err)
}

// Get godoc
// @Summary Get a record
// @Tags Mutations
// @Produce json
// @Param entity path string true "Entity collection"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /{entity}/{id} [get]
func (h *MutationHandler) Get(c *gin.Context) {
	kind, ok := models.ParseEntityKind(c.Param("entity"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Unknown entity type"))
		return
	}
	record, err := h.service.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// entityKind resolves the route segment. Unknown kinds still go through the service so the
// failure is logged and counted there.
func entityKind(c *gin.Context) models.EntityKind {
	raw := c.Param("entity")
	if kind, ok := models.ParseEntityKind(raw); ok {
		return kind
	}
	return models.EntityKind(raw)
}

func readPayload(c *gin.Context) ([]byte, bool) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		response.Mutation(c, http.StatusBadRequest, models.Failed("The request body could not be read."))
		return nil, false
	}
	return payload, true
}

func writeMutation(c *gin.Context, successStatus int, result models.MutationResult, err error) {
	if err != nil {
		response.Mutation(c, appErrors.FromError(err).Status, result)
		return
	}
	response.Mutation(c, successStatus, result)
}
