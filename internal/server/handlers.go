package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/r9s-ai/dkn/pkg/ruleconfig"
)

const maxConfigBodyBytes = 4 << 20

const (
	msgConfigLoaded  = "Configuration loaded."
	msgConfigSaved   = "Configuration saved."
	msgConfigValid   = "Configuration is valid."
	msgNoData        = "Could not save configuration: no data provided."
	msgSaveFailed    = "Could not save configuration: "
	msgReloaded      = "Configuration reloaded."
	msgURLRequired   = "url query parameter is required."
	msgBodyTooLarge  = "request body too large."
	msgBodyReadError = "could not read request body."
)

// reply is the envelope of every /api and /admin response.
type reply struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type configErrorData struct {
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
}

type savedData struct {
	Generation uint64 `json:"generation"`
	Source     string `json:"source,omitempty"`
}

type validData struct {
	TopLevelRules int `json:"topLevelRules"`
}

type ruleData struct {
	ruleconfig.EffectiveRule
	Enabled     bool     `json:"enabled"`
	Stylesheets []string `json:"stylesheets"`
	Generation  uint64   `json:"generation"`
}

type stylesData struct {
	Static  []string `json:"static"`
	Dynamic []string `json:"dynamic"`
}

func (s *Server) handleGetConfig(c *gin.Context) {
	text, err := s.resolver.GetConfigString(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, reply{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply{Success: true, Message: msgConfigLoaded, Data: text})
}

func (s *Server) handleSetConfig(c *gin.Context) {
	text, ok := readConfigText(c)
	if !ok {
		return
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, reply{Message: msgNoData})
		return
	}
	if _, err := s.SetConfig(c.Request.Context(), text); err != nil {
		writeConfigError(c, err, msgSaveFailed)
		return
	}
	c.JSON(http.StatusOK, reply{
		Success: true,
		Message: msgConfigSaved,
		Data:    savedData{Generation: s.resolver.Generation(), Source: s.resolver.LastLoad().Source},
	})
}

func (s *Server) handleValidateConfig(c *gin.Context) {
	text, ok := readConfigText(c)
	if !ok {
		return
	}
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, reply{Message: msgNoData})
		return
	}
	root, err := s.resolver.Validate(text)
	if err != nil {
		writeConfigError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, reply{Success: true, Message: msgConfigValid, Data: validData{TopLevelRules: len(root.Rules)}})
}

func (s *Server) handleRule(c *gin.Context) {
	url, ok := requireURL(c)
	if !ok {
		return
	}
	rule, cached, err := s.EffectiveRule(c.Request.Context(), url)
	setRuleLogFields(c, rule, cached)
	data := ruleData{
		EffectiveRule: rule,
		Enabled:       rule.Enabled(),
		Stylesheets:   rule.StylesheetPaths(),
		Generation:    s.resolver.Generation(),
	}
	if err != nil {
		// The default rule still applies; report why it was used.
		c.JSON(http.StatusOK, reply{Message: err.Error(), Data: data})
		return
	}
	c.JSON(http.StatusOK, reply{Success: true, Data: data})
}

func (s *Server) handleRuleCSS(c *gin.Context) {
	url, ok := requireURL(c)
	if !ok {
		return
	}
	rule, cached, _ := s.EffectiveRule(c.Request.Context(), url)
	setRuleLogFields(c, rule, cached)
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(rule.CustomCSS()))
}

func (s *Server) handleStyles(c *gin.Context) {
	names := s.resolver.StyleNames()
	c.JSON(http.StatusOK, reply{Success: true, Data: stylesData{
		Static:  append([]string{}, names.Static...),
		Dynamic: append([]string{}, names.Dynamic...),
	}})
}

func (s *Server) handleEvents(c *gin.Context) {
	hello := configEvent{Type: "hello", Generation: s.resolver.Generation(), Source: s.resolver.LastLoad().Source}
	s.hub.serveWS(c.Writer, c.Request, hello)
}

func (s *Server) handleReload(c *gin.Context) {
	if err := s.Reload(c.Request.Context(), "admin"); err != nil {
		c.JSON(http.StatusInternalServerError, reply{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, reply{
		Success: true,
		Message: msgReloaded,
		Data:    savedData{Generation: s.resolver.Generation(), Source: s.resolver.LastLoad().Source},
	})
}

func requireURL(c *gin.Context) (string, bool) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, reply{Message: msgURLRequired})
		return "", false
	}
	c.Set(ctxURL, url)
	return url, true
}

func setRuleLogFields(c *gin.Context, rule ruleconfig.EffectiveRule, cached bool) {
	c.Set(ctxLevel, rule.Level)
	c.Set(ctxEnabled, rule.Enabled())
	if cached {
		c.Set(ctxRuleCache, "hit")
	} else {
		c.Set(ctxRuleCache, "miss")
	}
}

// readConfigText reads the request body and unwraps a {"data": ...}
// envelope. Any other body is taken as the rule document itself.
func readConfigText(c *gin.Context) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxConfigBodyBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, reply{Message: msgBodyReadError})
		return "", false
	}
	if len(body) > maxConfigBodyBytes {
		c.JSON(http.StatusRequestEntityTooLarge, reply{Message: msgBodyTooLarge})
		return "", false
	}
	return configTextFromBody(body), true
}

func configTextFromBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err == nil && len(env) == 1 {
		if raw, ok := env["data"]; ok {
			var text string
			if err := json.Unmarshal(raw, &text); err == nil {
				return text
			}
			if string(raw) == "null" {
				return ""
			}
			return string(raw)
		}
	}
	return string(trimmed)
}

// writeConfigError answers 400 for rejected documents and 500 for
// anything else, prefixing the latter with prefix.
func writeConfigError(c *gin.Context, err error, prefix string) {
	var ce *ruleconfig.ConfigError
	if errors.As(err, &ce) {
		c.JSON(http.StatusBadRequest, reply{
			Message: err.Error(),
			Data:    configErrorData{Kind: ce.Kind.String(), Path: ce.Path()},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, reply{Message: prefix + err.Error()})
}
