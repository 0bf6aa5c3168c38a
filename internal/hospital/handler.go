package hospital

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lifeline/internal/blood"
	"lifeline/internal/pkg/apperrors"
)

// IncomingCase is the dashboard projection of a case headed to this
// facility. It deliberately carries no patient identity or pickup
// coordinates.
type IncomingCase struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	BloodType    *string   `json:"blood_type,omitempty"`
	AmbulanceID  *string   `json:"ambulance_id,omitempty"`
	AmbulanceLat *float64  `json:"ambulance_lat,omitempty"`
	AmbulanceLng *float64  `json:"ambulance_lng,omitempty"`
	ETA          *string   `json:"eta,omitempty"`
	GHSScore     int       `json:"ghs_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// IncomingLister avoids importing the sos package (circular dep prevention).
type IncomingLister interface {
	ListActiveByHospital(ctx context.Context, hospitalID string) ([]IncomingCase, error)
}

type Handler struct {
	service  Service
	incoming IncomingLister
}

func NewHandler(service Service, incoming IncomingLister) *Handler {
	return &Handler{service: service, incoming: incoming}
}

type CapacityRequest struct {
	ICUBeds    *int        `json:"icu_beds"`
	BloodStock blood.Stock `json:"blood_stock"`
}

func (h *Handler) UpdateCapacity(c *gin.Context) {
	var req CapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	hospitalID := c.GetString("sub")
	updated, err := h.service.UpdateCapacity(c.Request.Context(), hospitalID, req.ICUBeds, req.BloodStock)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hospital": updated})
}

func (h *Handler) GetMe(c *gin.Context) {
	hospitalID := c.GetString("sub")
	found, err := h.service.GetByID(c.Request.Context(), hospitalID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospital": found})
}

// ListIncoming serves the hospital dashboard: active cases dispatched to
// this facility.
func (h *Handler) ListIncoming(c *gin.Context) {
	hospitalID := c.GetString("sub")
	cases, err := h.incoming.ListActiveByHospital(c.Request.Context(), hospitalID)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases})
}
