package sos

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifeline/internal/common"
	"lifeline/internal/pkg/apperrors"
)

// Dispatcher is the orchestrator seam, kept local to avoid importing the
// dispatch package (circular dep prevention).
type Dispatcher interface {
	CreateCase(ctx context.Context, requesterID string, location common.Location, bloodType *string) (*Case, error)
	UpdateStatus(ctx context.Context, caseID uuid.UUID, newStatus string, labBloodType *string, actorAmbulanceID string) (*Case, error)
	GetCase(ctx context.Context, caseID uuid.UUID, requesterID string) (*Case, error)
	Subscribe(ctx context.Context, caseID uuid.UUID, onChange func(*Case)) (func(), error)
}

type Handler struct {
	dispatcher Dispatcher
	service    Service
}

func NewHandler(dispatcher Dispatcher, service Service) *Handler {
	return &Handler{dispatcher: dispatcher, service: service}
}

type CreateCaseRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	BloodType *string  `json:"blood_type"`
}

func (h *Handler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	requesterID := c.GetString("sub")
	loc := common.NewLocation(*req.Latitude, *req.Longitude)

	created, err := h.dispatcher.CreateCase(c.Request.Context(), requesterID, loc, req.BloodType)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"case": created})
}

func (h *Handler) GetCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid case id"}})
		return
	}

	requesterID := c.GetString("sub")
	found, err := h.dispatcher.GetCase(c.Request.Context(), id, requesterID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": found})
}

func (h *Handler) ListMyCases(c *gin.Context) {
	requesterID := c.GetString("sub")
	cases, err := h.service.ListByRequester(c.Request.Context(), requesterID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}

type UpdateStatusRequest struct {
	Status    string  `json:"status" binding:"required"`
	BloodType *string `json:"blood_type"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid case id"}})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	ambulanceID := c.GetString("sub")
	updated, err := h.dispatcher.UpdateStatus(c.Request.Context(), id, req.Status, req.BloodType, ambulanceID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": updated})
}

func (h *Handler) GetMyCase(c *gin.Context) {
	ambulanceID := c.GetString("sub")
	found, err := h.service.GetActiveByAmbulance(c.Request.Context(), ambulanceID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case": found})
}

// StreamCase pushes live case snapshots to a dashboard over SSE until the
// client disconnects.
func (h *Handler) StreamCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "invalid case id"}})
		return
	}

	ctx := c.Request.Context()
	snapshots := make(chan *Case, 8)

	unsubscribe, err := h.dispatcher.Subscribe(ctx, id, func(snapshot *Case) {
		select {
		case snapshots <- snapshot:
		default:
			// slow consumer: drop; the next snapshot supersedes this one
		}
	})
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	defer unsubscribe()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot := <-snapshots:
			c.SSEvent("case", snapshot)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
