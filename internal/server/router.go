package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/dkn/internal/auth"
	"github.com/r9s-ai/dkn/internal/logx"
)

// NewRouter builds the gin engine. accessLogger may be nil when the
// access log is disabled.
func (s *Server) NewRouter(
	accessLogger *log.Logger,
	accessLoggerColor bool,
	requestIDHeaderKey string,
	accessFormatter *logx.AccessLogFormatter,
) *gin.Engine {
	if requestIDHeaderKey == "" {
		requestIDHeaderKey = defaultRequestIDHeaderKey
	}
	r := gin.New()
	r.Use(requestIDMiddleware(requestIDHeaderKey))
	if s.cfg.Logging.AccessLog {
		r.Use(s.requestLogger(accessLogger, accessLoggerColor, requestIDHeaderKey, accessFormatter))
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.GET("/config", s.handleGetConfig)
	api.POST("/config/validate", s.handleValidateConfig)
	api.GET("/rule", s.handleRule)
	api.GET("/rule.css", s.handleRuleCSS)
	api.GET("/styles", s.handleStyles)
	api.GET("/events", s.handleEvents)

	secured := r.Group("/")
	secured.Use(auth.Middleware(s.cfg.Auth.APIKey))
	secured.PUT("/api/config", s.handleSetConfig)
	secured.POST("/admin/reload", s.handleReload)

	return r
}
