package ui

import (
	"io/fs"
	"log"
	"net/http"

	"afpdash/internal/errors"

	"github.com/gin-gonic/gin"
)

// setupMiddleware serves the embedded static files
func (s *Server) setupMiddleware() {
	staticFS, err := fs.Sub(s.assets, "static")
	if err != nil {
		log.Printf("[setupMiddleware] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// statusFor maps an error code to the HTTP status returned to clients
func statusFor(err error) int {
	switch {
	case errors.HasCode(err, errors.CodeInvalidInput):
		return http.StatusBadRequest
	case errors.HasCode(err, errors.CodeNotFound):
		return http.StatusNotFound
	case errors.HasCode(err, errors.CodeDatasetEmpty):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as JSON with its code
func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[Server] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	code := errors.GetCode(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}
