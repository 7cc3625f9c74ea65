package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stevemurr/content-builder/apperr"
	"github.com/stevemurr/content-builder/model"
	"github.com/stevemurr/content-builder/store"
)

// ---------- creators ----------

func (h *Handler) listCreators(c *gin.Context) {
	limit, offset, err := paging(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	withContent, err := boolQuery(c, "with_content_only")
	if err != nil {
		h.fail(c, err)
		return
	}
	creators, err := h.data.Creators().List(c.Request.Context(), store.CreatorFilter{
		Limit: limit, Offset: offset, WithContentOnly: withContent,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if creators == nil {
		creators = []model.Creator{}
	}
	c.JSON(http.StatusOK, creators)
}

func (h *Handler) getCreator(c *gin.Context) {
	creator, err := h.data.Creators().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, creator)
}

func (h *Handler) createCreator(c *gin.Context) {
	var in model.Creator
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	created, err := h.data.Creators().Create(c.Request.Context(), &in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *Handler) updateCreator(c *gin.Context) {
	var p model.CreatorPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badJSON(c, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	updated, err := h.data.Creators().Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteCreator(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.data.Creators().Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		h.fail(c, apperr.NotFound("creator", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "creator_id": id})
}

// ---------- sets ----------

func (h *Handler) listSets(c *gin.Context) {
	limit, offset, err := paging(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	sets, err := h.data.Sets().List(c.Request.Context(), store.SetFilter{
		CreatorID: c.Query("creator_id"),
		Status:    c.Query("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(sets))
}

func (h *Handler) getSet(c *gin.Context) {
	set, err := h.data.Sets().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *Handler) createSet(c *gin.Context) {
	var in model.ContentSet
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	created, err := h.data.Sets().Create(c.Request.Context(), &in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *Handler) updateSet(c *gin.Context) {
	var p model.SetPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badJSON(c, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	updated, err := h.data.Sets().Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteSet(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.data.Sets().Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		h.fail(c, apperr.NotFound("content set", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "set_id": id})
}

func (h *Handler) recountSets(c *gin.Context) {
	if err := h.data.Sets().RecountCards(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recounted"})
}

// ---------- cards ----------

func (h *Handler) listCards(c *gin.Context) {
	limit, offset, err := paging(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	cards, err := h.data.Cards().List(c.Request.Context(), store.CardFilter{
		CreatorID: c.Query("creator_id"),
		SetID:     c.Query("set_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(cards))
}

func (h *Handler) getCard(c *gin.Context) {
	card, err := h.data.Cards().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *Handler) createCard(c *gin.Context) {
	var in model.ContentCard
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c, err)
		return
	}
	if err := in.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	created, err := h.data.Cards().Create(c.Request.Context(), &in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *Handler) updateCard(c *gin.Context) {
	var p model.CardPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badJSON(c, err)
		return
	}
	if err := p.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	updated, err := h.data.Cards().Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteCard(c *gin.Context) {
	id := c.Param("id")
	ok, err := h.data.Cards().Delete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		h.fail(c, apperr.NotFound("content card", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "card_id": id})
}
