package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/generate"
	"github.com/stevemurr/content-builder/model"
)

func (h *Handler) schema(c *gin.Context) {
	c.JSON(http.StatusOK, h.data.SystemSchema())
}

func (h *Handler) health(c *gin.Context) {
	if err := h.data.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"backend": h.data.Backend().Name(),
			"detail":  "store unavailable",
			"code":    apperr.Code(apperr.Unavailable(err)),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "backend": h.data.Backend().Name()})
}

func (h *Handler) dataSummary(c *gin.Context) {
	summary, err := h.data.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// exportAll writes a portable export. output_dir is resolved inside the
// export root; without it a timestamped directory is created there.
func (h *Handler) exportAll(c *gin.Context) {
	dir, err := resolveExportDir(h.export, c.Query("output_dir"))
	if err != nil {
		h.fail(c, err)
		return
	}
	files, err := h.data.ExportAll(c.Request.Context(), dir)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "output_dir": dir, "files": files})
}

// resolveExportDir joins requested onto root and rejects anything that
// would land outside root.
func resolveExportDir(root, requested string) (string, error) {
	root = filepath.Clean(root)
	if requested == "" {
		return filepath.Join(root, "export_"+model.Now().Format("20060102_150405")), nil
	}
	dir := requested
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	dir = filepath.Clean(dir)
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperr.Validation("output_dir", requested, "output_dir must stay inside the export directory")
	}
	return dir, nil
}

func (h *Handler) generate(c *gin.Context) {
	if h.gen == nil || !h.gen.Available() {
		h.fail(c, generate.ErrUnavailable)
		return
	}
	var req generate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badJSON(c, err)
		return
	}
	resp, err := h.gen.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, generate.ErrUnavailable) || errors.Is(err, apperr.ErrValidation) ||
			errors.Is(err, apperr.ErrNotFound) {
			h.fail(c, err)
			return
		}
		h.log.Error("generation failed", "creator_id", req.CreatorID, "error", err)
		c.JSON(http.StatusOK, generate.Response{
			Success:        false,
			CardsRequested: req.NumCards,
			Message:        "An unexpected error occurred during content generation",
			Errors:         []string{err.Error()},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}
