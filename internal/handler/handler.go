package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"linkcycle/internal/config"
	"linkcycle/internal/service"
	"linkcycle/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LinkHandler exposes the shortening, redirect and admin endpoints.
type LinkHandler struct {
	service *service.LinkService
	cfg     *config.Shortener
	logger  *zap.SugaredLogger
}

// NewLinkHandler creates the handler.
func NewLinkHandler(svc *service.LinkService, cfg *config.Shortener, logger *zap.SugaredLogger) *LinkHandler {
	return &LinkHandler{service: svc, cfg: cfg, logger: logger.Named("handler")}
}

// IndexPage renders the landing page.
func (h *LinkHandler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"inactivity_days": h.cfg.InactivityDays,
	})
}

// HealthCheck reports liveness.
func (h *LinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// ShortenRequest is the body of POST /api/shorten.
type ShortenRequest struct {
	URL      string `json:"url" binding:"required" example:"https://github.com/gin-gonic/gin"`
	Monetize bool   `json:"monetize" example:"false"`
}

// ToggleRequest is the body of the admin flag toggles.
type ToggleRequest struct {
	Value *bool `json:"value" binding:"required" example:"true"`
}

// CreateShortLink godoc
// @Summary Shorten a URL
// @Description Allocates a short code for a target URL
// @Tags Links
// @Accept json
// @Produce json
// @Param request body ShortenRequest true "Target URL"
// @Success 201 {object} service.ShortenResult
// @Failure 400 {object} gin.H "Invalid URL"
// @Failure 503 {object} gin.H "Code space exhausted"
// @Router /api/shorten [post]
func (h *LinkHandler) CreateShortLink(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Shorten(c.Request.Context(), req.URL, req.Monetize)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid URL, http(s) required"})
		case errors.Is(err, service.ErrAllocationExhausted):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not allocate a code, try again later"})
		default:
			h.logger.Errorw("shorten failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create short link"})
		}
		return
	}

	if h.cfg.BaseURL == "" {
		result.ShortURL = "http://" + c.Request.Host + "/" + result.Code
	}
	c.JSON(http.StatusCreated, result)
}

// Redirect godoc
// @Summary Follow a short code
// @Description Redirects to the target, or renders the interstitial for monetized links
// @Tags Links
// @Produce html
// @Param code path string true "Short code"
// @Success 302
// @Failure 404 {object} gin.H "Unknown or expired code"
// @Router /{code} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	res, err := h.service.Resolve(c.Request.Context(), code)
	if err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found or expired"})
			return
		}
		h.logger.Errorw("resolve failed", "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve link"})
		return
	}

	if res.Monetize {
		c.HTML(http.StatusOK, "interstitial.html", gin.H{"target": res.TargetURL})
		return
	}
	c.Redirect(http.StatusFound, res.TargetURL)
}

// GetAllLinks godoc
// @Summary List all link records
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} model.LinkRecord
// @Router /api/links [get]
func (h *LinkHandler) GetAllLinks(c *gin.Context) {
	links, err := h.service.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list links"})
		return
	}
	c.JSON(http.StatusOK, links)
}

// GetStats godoc
// @Summary Aggregate link statistics
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} store.Stats
// @Router /api/stats [get]
func (h *LinkHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SetNeverExpires godoc
// @Summary Toggle reclamation exemption for a code
// @Tags Admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param code path string true "Short code"
// @Param request body ToggleRequest true "New value"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /api/links/{code}/never-expires [put]
func (h *LinkHandler) SetNeverExpires(c *gin.Context) {
	h.toggle(c, h.service.SetNeverExpires, "never_expires")
}

// SetMonetize godoc
// @Summary Toggle interstitial routing for a code
// @Tags Admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param code path string true "Short code"
// @Param request body ToggleRequest true "New value"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /api/links/{code}/monetize [put]
func (h *LinkHandler) SetMonetize(c *gin.Context) {
	h.toggle(c, h.service.SetMonetize, "monetize")
}

func (h *LinkHandler) toggle(c *gin.Context, set func(ctx context.Context, code string, value bool) error, field string) {
	code := c.Param("code")
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if err := set(c.Request.Context(), code, *req.Value); err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		h.logger.Errorw("toggle failed", "code", code, "field", field, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated", "code": code, field: *req.Value})
}

// DeleteLink godoc
// @Summary Deactivate a code
// @Description Retires the code; it becomes immediately reusable
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Param code path string true "Short code"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /api/links/{code} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	code := c.Param("code")
	if err := h.service.Deactivate(c.Request.Context(), code); err != nil {
		if store.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate link"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "link deactivated", "code": code})
}

// RunSweep godoc
// @Summary Run one reclamation sweep now
// @Tags Admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} gin.H
// @Router /api/sweep [post]
func (h *LinkHandler) RunSweep(c *gin.Context) {
	count, err := h.service.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed", "reclaimed": count})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reclaimed": count})
}
