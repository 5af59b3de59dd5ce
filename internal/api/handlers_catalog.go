package api

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) systemAnalyzers(c *gin.Context) {
	SuccessResponse(c, "system analyzers", s.service.SystemAnalyzers())
}

func (s *Server) getSystemAnalyzer(c *gin.Context) {
	info, err := s.service.GetSystemAnalyzer(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "system analyzer", info)
}

func (s *Server) listAnalyzers(c *gin.Context) {
	analyzers, err := s.service.ListAnalyzers()
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "analyzers", analyzers)
}

type createAnalyzerRequest struct {
	Name        string `json:"name" binding:"required"`
	Base        string `json:"base" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) createAnalyzer(c *gin.Context) {
	var req createAnalyzerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := s.service.CreateAnalyzer(req.Name, req.Base, req.Description); err != nil {
		RoutineError(c, err)
		return
	}
	CreatedResponse(c, "analyzer created", gin.H{"name": req.Name})
}

func (s *Server) dropAnalyzer(c *gin.Context) {
	if err := s.service.DropAnalyzer(c.Param("name")); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "analyzer dropped", nil)
}

func (s *Server) analyzerStopWords(c *gin.Context) {
	words, err := s.service.AnalyzerStopWords(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "stop words", words)
}

type stopWordRequest struct {
	Word string `json:"word" binding:"required"`
}

func (s *Server) addStopWord(c *gin.Context) {
	var req stopWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequestError(c, err.Error())
		return
	}
	if err := s.service.AddStopWord(c.Param("name"), req.Word); err != nil {
		RoutineError(c, err)
		return
	}
	CreatedResponse(c, "stop word added", nil)
}

func (s *Server) dropStopWord(c *gin.Context) {
	if err := s.service.DropStopWord(c.Param("name"), c.Param("word")); err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "stop word dropped", nil)
}

func (s *Server) indexStatistics(c *gin.Context) {
	info, err := s.service.IndexStatistics(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index statistics", info)
}

func (s *Server) indexFiles(c *gin.Context) {
	files, err := s.service.IndexFiles(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index files", files)
}

func (s *Server) indexSegmentInfos(c *gin.Context) {
	segments, err := s.service.IndexSegmentInfos(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index segments", segments)
}

func (s *Server) indexFields(c *gin.Context) {
	fields, err := s.service.IndexFields(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index fields", fields)
}

func (s *Server) indexFieldInfos(c *gin.Context) {
	infos, err := s.service.IndexFieldInfos(c.Param("name"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index field infos", infos)
}

func (s *Server) indexTerms(c *gin.Context) {
	terms, err := s.service.IndexTerms(c.Param("name"), c.Query("field"))
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "index terms", terms)
}

type makeTriggerRequest struct {
	MultiAction *bool `json:"multi_action"`
	Position    int   `json:"position"`
}

func (s *Server) makeTrigger(c *gin.Context) {
	req := makeTriggerRequest{Position: 100}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequestError(c, err.Error())
		return
	}
	multiAction := true
	if req.MultiAction != nil {
		multiAction = *req.MultiAction
	}
	script, err := s.service.MakeTrigger(c.Param("relation"), multiAction, req.Position)
	if err != nil {
		RoutineError(c, err)
		return
	}
	SuccessResponse(c, "trigger script", script)
}

func (s *Server) getDirectory(c *gin.Context) {
	SuccessResponse(c, "fts directory", gin.H{"directory": s.service.GetDirectory()})
}

func (s *Server) luceneVersion(c *gin.Context) {
	SuccessResponse(c, "engine version", gin.H{"version": s.service.LuceneVersion()})
}
