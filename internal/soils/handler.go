package soils

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"apsim-soils/soil-backend/pkg/geospatial"
	"apsim-soils/soil-backend/pkg/workflows"
)

// Handler handles HTTP requests for soil profiles
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new soils handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers soil profile routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	soils := router.Group("/soils")
	{
		// Stateless normalization
		soils.POST("/normalize", h.normalize)
		soils.POST("/normalize/batch", h.normalizeBatch)

		// Stored profiles
		soils.POST("", h.submit)
		soils.GET("", h.list)
		soils.GET("/:id", h.get)
		soils.POST("/:id/reprocess", h.reprocess)
		soils.GET("/:id/export", h.export)
		soils.GET("/:id/site", h.site)
	}
}

// SubmitRequest is the body of POST /soils
type SubmitRequest struct {
	Name    string       `json:"name"`
	Profile *SoilProfile `json:"profile" binding:"required"`
}

// BatchRequest is the body of POST /soils/normalize/batch
type BatchRequest struct {
	Profiles []*SoilProfile `json:"profiles" binding:"required"`
}

// normalize handles POST /api/v1/soils/normalize
func (h *Handler) normalize(c *gin.Context) {
	profile, err := h.bindProfile(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.service.Normalize(c.Request.Context(), profile)
	if err != nil {
		h.respondError(c, "Failed to normalize soil profile", err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// normalizeBatch handles POST /api/v1/soils/normalize/batch
func (h *Handler) normalizeBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.NormalizeBatch(c.Request.Context(), req.Profiles)
	if err != nil {
		h.respondError(c, "Failed to normalize soil profiles", err)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
		"failed":  failed,
	})
}

// submit handles POST /api/v1/soils
func (h *Handler) submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.Submit(c.Request.Context(), req.Name, req.Profile)
	if err != nil {
		h.respondError(c, "Failed to submit soil profile", err)
		return
	}

	c.JSON(http.StatusAccepted, record)
}

// list handles GET /api/v1/soils
func (h *Handler) list(c *gin.Context) {
	filters := &ProfileFilters{
		Page:     h.getIntParam(c, "page", 1),
		PageSize: h.getIntParam(c, "page_size", 20),
	}
	if status := c.Query("status"); status != "" {
		st := ProfileStatus(status)
		filters.Status = &st
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	response, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, "Failed to list soil profiles", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// get handles GET /api/v1/soils/:id
func (h *Handler) get(c *gin.Context) {
	id, ok := h.getID(c)
	if !ok {
		return
	}

	record, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get soil profile", err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// reprocess handles POST /api/v1/soils/:id/reprocess
func (h *Handler) reprocess(c *gin.Context) {
	id, ok := h.getID(c)
	if !ok {
		return
	}

	record, err := h.service.Reprocess(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to reprocess soil profile", err)
		return
	}

	c.JSON(http.StatusAccepted, record)
}

// export handles GET /api/v1/soils/:id/export?format=xlsx|csv
func (h *Handler) export(c *gin.Context) {
	id, ok := h.getID(c)
	if !ok {
		return
	}
	format, err := ParseExportFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Export(c.Request.Context(), id, format)
	if err != nil {
		h.respondError(c, "Failed to export soil profile", err)
		return
	}

	if result.URL != "" {
		c.Header("X-Export-URL", result.URL)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// site handles GET /api/v1/soils/:id/site
func (h *Handler) site(c *gin.Context) {
	id, ok := h.getID(c)
	if !ok {
		return
	}

	feature, err := h.service.Site(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get soil site", err)
		return
	}

	c.JSON(http.StatusOK, feature)
}

// =====================================================
// Helper Methods
// =====================================================

// bindProfile reads a profile as JSON, or YAML when the request says so.
func (h *Handler) bindProfile(c *gin.Context) (*SoilProfile, error) {
	ct := c.ContentType()
	if strings.Contains(ct, "yaml") {
		return DecodeProfile(c.Request.Body, FormatYAML)
	}
	var profile SoilProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	var ce *ConfigError
	switch {
	case errors.As(err, &ce):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ce.Msg, "op": ce.Op})
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, geospatial.ErrNoLocation):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProfileNotNormalized), errors.Is(err, workflows.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrBatchTooLarge), errors.Is(err, ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) getID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid soil profile ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) getIntParam(c *gin.Context, name string, defaultVal int) int {
	if val := c.Query(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
