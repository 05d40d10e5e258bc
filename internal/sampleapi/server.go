// Package sampleapi is the in-memory thoughts API the gateway decorates in
// demos and end-to-end tests. It serves its own OpenAPI document.
package sampleapi

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentPath is where the OpenAPI document is served.
const DocumentPath = "/swagger/v1/swagger.json"

//go:embed openapi.json
var document []byte

// Document returns a copy of the embedded OpenAPI document.
func Document() []byte {
	return append([]byte(nil), document...)
}

func NewRouter(store *Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	Register(r, store)
	return r
}

// Register mounts the API on r.
func Register(r gin.IRoutes, store *Store) {
	h := &handlers{store: store}
	r.GET(DocumentPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", document)
	})
	r.GET("/thoughts", h.listThoughts)
	r.POST("/thoughts", h.createThought)
	r.GET("/thoughts/:thoughtId", h.getThought)
	r.DELETE("/thoughts/:thoughtId", h.deleteThought)
	r.GET("/topics/:title", h.getTopic)
}

type handlers struct {
	store *Store
}

func (h *handlers) listThoughts(c *gin.Context) {
	thoughts := h.store.List()
	out := ThoughtList{Thoughts: make([]thoughtView, 0, len(thoughts)), Total: len(thoughts)}
	for _, t := range thoughts {
		out.Thoughts = append(out.Thoughts, view(t))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createThought(c *gin.Context) {
	var in NewThought
	if err := c.ShouldBindJSON(&in); err != nil {
		problem(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	t := h.store.Add(in)
	c.JSON(http.StatusOK, ThoughtCreated{ID: t.ThoughtID})
}

func (h *handlers) getThought(c *gin.Context) {
	id, ok := thoughtID(c)
	if !ok {
		return
	}
	t, found := h.store.Get(id)
	if !found {
		problem(c, http.StatusNotFound, "thought not found")
		return
	}
	c.JSON(http.StatusOK, view(t))
}

func (h *handlers) deleteThought(c *gin.Context) {
	id, ok := thoughtID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.store.Delete(id))
}

func (h *handlers) getTopic(c *gin.Context) {
	t, ok := h.store.Topic(c.Param("title"))
	if !ok {
		problem(c, http.StatusNotFound, "topic not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

func thoughtID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("thoughtId"))
	if err != nil {
		problem(c, http.StatusNotFound, "thought not found")
		return uuid.Nil, false
	}
	return id, true
}

func problem(c *gin.Context, status int, detail string) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(status, gin.H{
		"status": status,
		"title":  http.StatusText(status),
		"detail": detail,
	})
}
