package server

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/dkn/internal/logx"
)

const defaultRequestIDHeaderKey = "X-Dkn-Request-Id"

// Context keys handlers use to pass values to the access log.
const (
	ctxURL       = "dkn.url"
	ctxLevel     = "dkn.level"
	ctxEnabled   = "dkn.enabled"
	ctxRuleCache = "dkn.rule_cache"
)

type contextFieldSpec struct {
	ctxKey string
	logKey string
}

var accessLogContextFieldSpecs = []contextFieldSpec{
	{ctxKey: ctxURL, logKey: "url"},
	{ctxKey: ctxLevel, logKey: "level"},
	{ctxKey: ctxEnabled, logKey: "enabled"},
	{ctxKey: ctxRuleCache, logKey: "rule_cache"},
}

func newRequestID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UTC().Format("20060102150405.000000")
	}
	return time.Now().UTC().Format("20060102150405") + "-" + hex.EncodeToString(b[:])
}

func requestIDMiddleware(headerKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerKey))
		if id == "" {
			id = newRequestID()
		}
		c.Set(headerKey, id)
		c.Writer.Header().Set(headerKey, id)
		c.Next()
	}
}

func (s *Server) requestLogger(l *log.Logger, color bool, requestIDHeaderKey string, formatter *logx.AccessLogFormatter) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		req := logx.RequestLine{
			Status:   c.Writer.Status(),
			Latency:  time.Since(start),
			ClientIP: c.ClientIP(),
			Method:   c.Request.Method,
			Path:     c.Request.URL.Path,
		}
		fields := map[string]any{
			"request_id": c.GetString(requestIDHeaderKey),
			"latency_ms": req.Latency.Milliseconds(),
			"generation": s.resolver.Generation(),
		}
		if src := s.resolver.LastLoad().Source; src != "" {
			fields["config_source"] = src
		}
		for _, spec := range accessLogContextFieldSpecs {
			if v, ok := c.Get(spec.ctxKey); ok {
				fields[spec.logKey] = v
			}
		}

		ts := time.Now()
		if formatter != nil {
			l.Println(formatter.Format(ts, req, fields, color))
			return
		}
		l.Println(logx.FormatRequestLineWithColor(ts, req, fields, color))
	}
}
