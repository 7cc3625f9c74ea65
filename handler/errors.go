package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/generate"
)

// fail writes the error body {"detail", "code"}. Client errors carry the
// typed error's own message; server errors get a generic one and the cause
// goes to the log only.
func (h *Handler) fail(c *gin.Context, err error) {
	status, detail, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail, "code": code})
}

func classify(err error) (int, string, string) {
	var (
		ve *apperr.ValidationError
		nf *apperr.NotFoundError
		ie *apperr.IntegrityError
		de *apperr.DuplicateKeyError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Error(), apperr.Code(err)
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error(), apperr.Code(err)
	case errors.As(err, &ie):
		return http.StatusBadRequest, ie.Error(), apperr.Code(err)
	case errors.As(err, &de):
		return http.StatusConflict, de.Error(), apperr.Code(err)
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable", apperr.Code(err)
	case errors.Is(err, generate.ErrUnavailable):
		return http.StatusServiceUnavailable, generate.ErrUnavailable.Error(), "generation_unavailable"
	}
	return http.StatusInternalServerError, "internal server error", "internal"
}

// badJSON answers a body that could not be decoded.
func (h *Handler) badJSON(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"detail": "invalid JSON: " + err.Error(),
		"code":   "invalid_json",
	})
}

// intQuery parses a non-negative integer query parameter, 0 when absent.
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(name, raw, name+" must be a non-negative integer")
	}
	return n, nil
}

func boolQuery(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Validation(name, raw, name+" must be true or false")
	}
	return v, nil
}

func paging(c *gin.Context) (limit, offset int, err error) {
	if limit, err = intQuery(c, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intQuery(c, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// listResponse is the envelope of set and card listings.
type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Count: len(items)}
}
