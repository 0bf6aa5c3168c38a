package ambulance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeline/internal/pkg/apperrors"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type HeartbeatRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type HeartbeatResponse struct {
	Status         Status  `json:"status"`
	AssignedCaseID *string `json:"assigned_case_id,omitempty"`
}

func (h *Handler) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	driverID := c.GetString("sub")
	a, err := h.service.Heartbeat(c.Request.Context(), driverID, *req.Latitude, *req.Longitude)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	resp := HeartbeatResponse{Status: a.Status}
	if a.AssignedCaseID != nil {
		s := a.AssignedCaseID.String()
		resp.AssignedCaseID = &s
	}
	c.JSON(http.StatusOK, resp)
}

type ShiftStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) SetShiftStatus(c *gin.Context) {
	var req ShiftStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	status, ok := ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "unknown ambulance status"}})
		return
	}

	driverID := c.GetString("sub")
	a, err := h.service.SetShiftStatus(c.Request.Context(), driverID, status)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ambulance": a})
}

func (h *Handler) GetMe(c *gin.Context) {
	driverID := c.GetString("sub")
	a, err := h.service.GetByDriver(c.Request.Context(), driverID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ambulance": a})
}
