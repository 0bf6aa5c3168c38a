package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lifeline/internal/ambulance"
	"lifeline/internal/blood"
	"lifeline/internal/pkg/apperrors"
	"lifeline/internal/sos"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (h *Handler) ListCases(c *gin.Context) {
	page, limit := pagination(c)

	var status *sos.Status
	if raw := c.Query("status"); raw != "" {
		parsed, ok := sos.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "unknown status " + raw}})
			return
		}
		status = &parsed
	}

	cases, total, err := h.service.ListCases(c.Request.Context(), status, page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *Handler) ListAmbulances(c *gin.Context) {
	page, limit := pagination(c)

	var status *ambulance.Status
	if raw := c.Query("status"); raw != "" {
		parsed, ok := ambulance.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "unknown status " + raw}})
			return
		}
		status = &parsed
	}

	ambulances, total, err := h.service.ListAmbulances(c.Request.Context(), status, page, limit)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ambulances": ambulances,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *Handler) ListHospitals(c *gin.Context) {
	hospitals, err := h.service.ListHospitals(c.Request.Context())
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hospitals": hospitals})
}

type OnboardHospitalRequest struct {
	ID             string   `json:"id"`
	Name           string   `json:"name" binding:"required"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Specialization []string `json:"specialization"`
}

func (h *Handler) OnboardHospital(c *gin.Context) {
	var req OnboardHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	created, err := h.service.OnboardHospital(c.Request.Context(), req.ID, req.Name, req.Latitude, req.Longitude, req.Specialization)
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"hospital": created})
}

// Reconcile releases ambulances stuck in 'assigned' with no live case behind
// them. Exposed for operators; the server also runs it on a timer.
func (h *Handler) Reconcile(c *gin.Context) {
	released, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		apperrors.ToHTTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": released})
}

type ForecastRequest struct {
	AccidentsPerMonth int      `json:"accidents_per_month"`
	Festivals         []string `json:"festivals"`
	Weather           string   `json:"weather"`
	Population        int      `json:"population"`
}

func (h *Handler) ForecastBloodDemand(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": err.Error()}})
		return
	}

	demand := h.service.ForecastBloodDemand(c.Request.Context(), req.AccidentsPerMonth, req.Festivals, req.Weather, req.Population)
	c.JSON(http.StatusOK, gin.H{"demand": demand})
}

func (h *Handler) CheckBloodCompatibility(c *gin.Context) {
	donor := c.Query("donor")
	recipient := c.Query("recipient")
	if !blood.IsValidType(donor) || !blood.IsValidType(recipient) {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "VALIDATION", "message": "donor and recipient must be valid blood types"}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donor":      donor,
		"recipient":  recipient,
		"compatible": blood.Compatible(donor, recipient),
	})
}
