package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"caseflow/internal/logger"
	"caseflow/pkg/errors"
)

type Handler struct {
	repository Repository
	logger     logger.Logger
}

func NewHandler(repository Repository, log logger.Logger) *Handler {
	return &Handler{repository: repository, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/envelopes/:id/events", h.ListEnvelopeEvents)
	}
}

// ListEnvelopeEvents godoc
// @Summary      List envelope events
// @Description  Get the audit trail of terminal outcomes for one envelope
// @Tags         envelopes
// @Produce      json
// @Param        id   path      string  true  "Envelope ID"
// @Success      200  {array}   Event
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /envelopes/{id}/events [get]
func (h *Handler) ListEnvelopeEvents(c *gin.Context) {
	events, err := h.repository.EventsForEnvelope(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}
	if events == nil {
		events = []Event{}
	}
	c.JSON(http.StatusOK, events)
}
