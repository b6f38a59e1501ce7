package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/parleyhq/parley/pkg/identity"
	"github.com/parleyhq/parley/pkg/meetings"
	"github.com/parleyhq/parley/pkg/pagination"
)

func (s *Server) createMeeting(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	var in meetings.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	m, err := s.meetings.Create(c.Request.Context(), caller, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) getMeeting(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	m, err := s.meetings.GetOne(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) listMeetings(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	var params pagination.Params
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be an integer"})
			return
		}
		params.Page = n
	}
	if v := c.Query("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be an integer"})
			return
		}
		params.PageSize = n
	}

	filter := meetings.Filter{
		Search:  c.Query("search"),
		AgentID: c.Query("agentId"),
		Status:  meetings.Status(c.Query("status")),
	}

	page, err := s.meetings.GetMany(c.Request.Context(), caller, filter, params)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) updateMeeting(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	var in meetings.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	in.ID = c.Param("id")

	m, err := s.meetings.Update(c.Request.Context(), caller, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) deleteMeeting(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	m, err := s.meetings.Remove(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) generateToken(c *gin.Context) {
	caller, err := identity.CallerFrom(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	token, err := s.meetings.GenerateToken(c.Request.Context(), caller)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
