package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	perrors "github.com/parleyhq/parley/pkg/errors"
	"github.com/parleyhq/parley/pkg/logging"
)

// writeError maps a service error to an HTTP status and JSON body. Internal
// detail is not leaked for unclassified errors.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case perrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case perrors.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case perrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case perrors.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case perrors.IsProvider(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "video provider error"})
	default:
		s.logger.Error("internal error",
			logging.F("path", c.Request.URL.Path), logging.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
