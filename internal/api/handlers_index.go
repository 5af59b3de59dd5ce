package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
)

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"directory": s.service.GetDirectory(),
		"version":   s.service.LuceneVersion(),
	})
}

type createIndexRequest struct {
	Name        string `json:"name" binding:"required"`
	Relation    string `json:"relation" binding:"required"`
	Analyzer    string `json:"analyzer"`
	KeyField    string `json:"key_field"`
	Description string `json:"description"`
}

func (s *Server) createIndex(c *gin.Context) {
	var req createIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := s.service.CreateIndex(req.Name, req.Relation, req.Analyzer, req.KeyField, req.Description); err != nil {
		RoutineError(c, err)
		return
	}
	CreatedResponse(c, "index created", gin.H{"name": req.Name})
}

type indexView struct {
	Name        string        `json:"name"`
	Relation    string        `json:"relation"`
	Analyzer    string        `json:"analyzer"`
	Description string        `json:"description,omitempty"`
	Status      string        `json:"status"`
	Segments    []segmentView `json:"segments,omitempty"`
}

type segmentView struct {
	Field string   `json:"field"`
	Key   bool     `json:"key"`
	Boost *float64 `json:"boost,omitempty"`
}

func viewIndex(idx catalog.Index) indexView {
	v := indexView{
		Name:        idx.Name,
		Relation:    idx.Relation,
		Analyzer:    idx.Analyzer,
		Description: idx.Description,
		Status:      idx.Status.String(),
	}
	for _, seg := range idx.Segments {
		v.Segments = append(v.Segments, segmentView{Field: seg.FieldName, Key: seg.IsKey, Boost: seg.Boost})
	}
	return v
}

func (s *Server) listIndexes(c *gin.Context) {
	withSegments := c.Query("segments") == "true"
	indexes, err := s.service.ListIndexes(withSegments)
	if err != nil {
		RoutineError(c, err)
		return
	}
	views := make([]indexView, 0, len(indexes))
	for _, idx := range indexes {
		views = append(views, viewIndex(idx))
	}
	SuccessResponse(c, "indexes", views)
}

func (s *Server) getIndex(c *gin.Context) {
	idx, err := s.service.GetIndex(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index", viewIndex(idx))
}

func (s *Server) dropIndex(c *gin.Context) {
	if err := s.service.DropIndex(c.Param("name")); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index dropped", nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (s *Server) setIndexActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := s.service.SetIndexActive(c.Param("name"), *req.Active); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index status updated", nil)
}

type addFieldRequest struct {
	Field string   `json:"field" binding:"required"`
	Boost *float64 `json:"boost"`
}

func (s *Server) addIndexField(c *gin.Context) {
	var req addFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := s.service.AddIndexField(c.Param("name"), req.Field, req.Boost); err != nil {
		RoutineError(c, err)
		return
	}
	CreatedResponse(c, "field added", nil)
}

func (s *Server) dropIndexField(c *gin.Context) {
	if err := s.service.DropIndexField(c.Param("name"), c.Param("field")); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "field dropped", nil)
}

type setBoostRequest struct {
	Boost *float64 `json:"boost"`
}

func (s *Server) setIndexFieldBoost(c *gin.Context) {
	var req setBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := s.service.SetIndexFieldBoost(c.Param("name"), c.Param("field"), req.Boost); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "boost updated", nil)
}

func (s *Server) rebuildIndex(c *gin.Context) {
	if err := s.service.RebuildIndex(c.Param("name")); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index rebuilt", nil)
}

func (s *Server) optimizeIndex(c *gin.Context) {
	if err := s.service.OptimizeIndex(c.Param("name")); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index optimized", nil)
}

func (s *Server) updateIndexes(c *gin.Context) {
	result, err := s.service.UpdateIndexes(c.Request.Context())
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "change log applied", gin.H{
		"entries_applied": result.EntriesApplied,
		"entries_dropped": result.EntriesDropped,
		"indexes_touched": result.IndexesTouched,
	})
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
