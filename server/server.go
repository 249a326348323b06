// Package server is the thin HTTP layer over the scrape service: it parses
// path and body parameters, dispatches to the service, and maps the error
// taxonomy onto status codes (NotFound → 404, anything else → 500 with an
// empty well-formed body).
package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookinfo/fetcher"
)

type Server struct {
	service *Service
	engine  *gin.Engine
	log     *slog.Logger
}

func New(service *Service) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		service: service,
		engine:  gin.New(),
		log:     slog.With("component", "server"),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	v1 := s.engine.Group("/v1")
	v1.GET("/author/:id", s.handleAuthor)
	v1.GET("/work/:id", s.handleWork)
	v1.GET("/edition/:id", s.handleEditions)
	v1.GET("/search", s.handleSearch)

	// Bulk lookup posts a JSON id array to an arbitrary path.
	s.engine.NoRoute(s.handleBulk)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleAuthor(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	author, err := s.service.GetAuthor(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (s *Server) handleWork(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	work, err := s.service.GetWork(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, work)
}

func (s *Server) handleEditions(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	editions, err := s.service.GetEditions(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if len(editions) == 0 {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	c.JSON(http.StatusOK, editions)
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}
	results, err := s.service.Search(c.Request.Context(), query)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleBulk(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	var bookIds []int64
	if err := c.ShouldBindJSON(&bookIds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON array of book ids"})
		return
	}
	s.log.Info("bulk lookup", "count", len(bookIds))
	c.JSON(http.StatusOK, s.service.GetBulk(c.Request.Context(), bookIds))
}

// pathId parses the :id path parameter, replying 400 itself when malformed.
func pathId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) fail(c *gin.Context, err error) {
	if fetcher.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}
	s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{})
}
