package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parleyhq/parley/pkg/agents"
	"github.com/parleyhq/parley/pkg/identity"
)

func (s *Server) createAgent(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	var in agents.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	agent, err := s.agents.Create(c.Request.Context(), caller, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (s *Server) getAgent(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	agent, err := s.agents.GetOne(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (s *Server) listAgents(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	items, err := s.agents.GetMany(c.Request.Context(), caller)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) updateAgent(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	var in agents.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	in.ID = c.Param("id")

	agent, err := s.agents.Update(c.Request.Context(), caller, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}
