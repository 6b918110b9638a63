// Copyright (C) 2025 Halcyon ML
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package api exposes a completed or in-progress search over HTTP. All
// endpoints are read-only; the search itself is driven by the CLI or by
// embedding the automl package.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halcyonml/autosearch/pkg/automl"
	"github.com/halcyonml/autosearch/pkg/logging"
)

// Server serves search results over HTTP.
type Server struct {
	search *automl.AutoMLSearch
	logger *logging.Logger
	router *gin.Engine
}

// NewServer wires the routes for one searcher.
func NewServer(search *automl.AutoMLSearch, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		search: search,
		logger: logger,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	s.logger.Info("serving search results", "addr", addr)
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	{
		v1.GET("/rankings", s.handleRankings)
		v1.GET("/rankings/full", s.handleFullRankings)
		v1.GET("/results", s.handleResults)
		v1.GET("/results/:id", s.handleResult)
		v1.GET("/datachecks", s.handleDataChecks)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"searched": s.search.HasSearched(),
	})
}

func (s *Server) handleRankings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rankings": s.search.Rankings()})
}

func (s *Server) handleFullRankings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rankings": s.search.FullRankings()})
}

func (s *Server) handleResults(c *gin.Context) {
	c.JSON(http.StatusOK, s.search.Results())
}

func (s *Server) handleResult(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	results := s.search.Results()
	r, ok := results.PipelineResults[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "pipeline not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleDataChecks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"findings": s.search.DataCheckResults()})
}
