package api

import (
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ibsurgeon/fts-udr-go/internal/query"
	"github.com/ibsurgeon/fts-udr-go/internal/routines"
)

type hitView struct {
	Relation  string  `json:"relation"`
	KeyField  string  `json:"key_field"`
	DBKey     string  `json:"db_key,omitempty"`
	UUID      string  `json:"uuid,omitempty"`
	ID        *int64  `json:"id,omitempty"`
	Score     float64 `json:"score"`
	Explained string  `json:"explanation,omitempty"`
}

func viewHit(h query.Hit) hitView {
	v := hitView{
		Relation:  h.Relation,
		KeyField:  h.KeyField,
		ID:        h.ID,
		Score:     h.Score,
		Explained: h.Explained,
	}
	if len(h.DBKey) > 0 {
		v.DBKey = hex.EncodeToString(h.DBKey)
	}
	if len(h.UUID) > 0 {
		// Canonical 8-4-4-4-12 form; raw hex when the value is not 16 bytes.
		if u, err := uuid.FromBytes(h.UUID); err == nil {
			v.UUID = u.String()
		} else {
			v.UUID = hex.EncodeToString(h.UUID)
		}
	}
	return v
}

func (s *Server) search(c *gin.Context) {
	queryStr := c.Query("query")
	limit, err := queryInt(c, "limit", routines.DefaultSearchLimit)
	if err != nil {
		BadRequestError(c, "limit must be an integer")
		return
	}
	limit = clampLimit(limit, routines.DefaultSearchLimit)
	explain := c.Query("explain") == "true"

	hits, err := s.service.Search(c.Request.Context(), c.Param("name"), queryStr, limit, explain)
	if err != nil {
		RoutineError(c, err)
		return
	}
	views := make([]hitView, 0, len(hits))
	for _, h := range hits {
		views = append(views, viewHit(h))
	}
	SuccessResponse(c, "search results", views)
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Analyzer string `json:"analyzer" binding:"required"`
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	terms, err := s.service.Analyze(req.Text, req.Analyzer)
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "terms", terms)
}

type escapeQueryRequest struct {
	Query string `json:"query"`
}

func (s *Server) escapeQuery(c *gin.Context) {
	var req escapeQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	SuccessResponse(c, "escaped", gin.H{"query": s.service.EscapeQuery(req.Query)})
}

type highlightRequest struct {
	Text         string `json:"text"`
	Query        string `json:"query" binding:"required"`
	Analyzer     string `json:"analyzer" binding:"required"`
	Field        string `json:"field"`
	FragmentSize int    `json:"fragment_size"`
	LeftTag      string `json:"left_tag"`
	RightTag     string `json:"right_tag"`
	MaxFragments int    `json:"max_fragments"`
}

func (r *highlightRequest) applyDefaults() {
	if r.FragmentSize == 0 {
		r.FragmentSize = 512
	}
	if r.LeftTag == "" {
		r.LeftTag = "<b>"
	}
	if r.RightTag == "" {
		r.RightTag = "</b>"
	}
	if r.MaxFragments == 0 {
		r.MaxFragments = 10
	}
}

func (s *Server) bestFragment(c *gin.Context) {
	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	req.applyDefaults()
	fragment, err := s.service.BestFragment(req.Text, req.Query, req.Analyzer, req.Field,
		req.FragmentSize, req.LeftTag, req.RightTag)
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "best fragment", gin.H{"fragment": fragment})
}

func (s *Server) bestFragments(c *gin.Context) {
	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	req.applyDefaults()
	fragments, err := s.service.BestFragments(req.Text, req.Query, req.Analyzer, req.Field,
		req.FragmentSize, req.LeftTag, req.RightTag, req.MaxFragments)
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "best fragments", fragments)
}
