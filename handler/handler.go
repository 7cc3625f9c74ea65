// Package handler provides the HTTP API of the content builder.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stevemurr/content-builder/generate"
	"github.com/stevemurr/content-builder/logger"
	"github.com/stevemurr/content-builder/store"
)

// Options configures the parts of the API that are not the store.
type Options struct {
	// AllowedOrigins lists the CORS origins. Empty allows none.
	AllowedOrigins []string
	// ExportRoot confines POST /api/export output directories.
	ExportRoot string
	// Generator serves POST /api/generate. Nil answers 503.
	Generator *generate.Service
}

// Handler holds the server dependencies and registers routes.
type Handler struct {
	data   *store.DataManager
	gen    *generate.Service
	export string
	log    *logger.Logger
	engine *gin.Engine
}

// New creates a Handler and wires up all routes.
func New(data *store.DataManager, opts Options, log *logger.Logger) *Handler {
	if opts.ExportRoot == "" {
		opts.ExportRoot = "exports"
	}
	h := &Handler{
		data:   data,
		gen:    opts.Generator,
		export: opts.ExportRoot,
		log:    log.With("component", "http"),
		engine: gin.New(),
	}
	h.engine.Use(gin.Recovery(), requestLog(h.log), corsMiddleware(opts.AllowedOrigins))
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.engine.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.engine
	r.GET("/", h.root)

	api := r.Group("/api")

	api.GET("/creators", h.listCreators)
	api.GET("/creators/:id", h.getCreator)
	api.POST("/creators", h.createCreator)
	api.PUT("/creators/:id", h.updateCreator)
	api.DELETE("/creators/:id", h.deleteCreator)

	api.GET("/sets", h.listSets)
	api.GET("/sets/:id", h.getSet)
	api.POST("/sets", h.createSet)
	api.POST("/sets/recount", h.recountSets)
	api.PUT("/sets/:id", h.updateSet)
	api.DELETE("/sets/:id", h.deleteSet)

	api.GET("/cards", h.listCards)
	api.GET("/cards/:id", h.getCard)
	api.POST("/cards", h.createCard)
	api.PUT("/cards/:id", h.updateCard)
	api.DELETE("/cards/:id", h.deleteCard)

	api.GET("/schema", h.schema)
	api.POST("/export", h.exportAll)
	api.GET("/health", h.health)
	api.GET("/debug/data-summary", h.dataSummary)
	api.POST("/generate", h.generate)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "Content Builder API",
		"backend": h.data.Backend().Name(),
	})
}
