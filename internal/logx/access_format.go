package logx

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

type formatPart struct {
	literal string
	varName string
}

// AccessLogFormatter renders one access log line from a compiled $var template.
type AccessLogFormatter struct {
	parts []formatPart
}

var accessLogFormatPresets = map[string]string{
	"dkn_combined": "$time_local | $status | $latency | $client_ip | $method $path | request_id=$request_id url=$url level=$level enabled=$enabled generation=$generation rule_cache=$rule_cache config_source=$config_source",
	"dkn_minimal":  "$time_local | $status | $latency | $method $path | url=$url level=$level",
}

var allowedAccessLogVars = map[string]struct{}{
	"time_local":    {},
	"status":        {},
	"latency":       {},
	"latency_ms":    {},
	"client_ip":     {},
	"method":        {},
	"path":          {},
	"request_id":    {},
	"url":           {},
	"level":         {},
	"enabled":       {},
	"generation":    {},
	"rule_cache":    {},
	"config_source": {},
}

// ResolveAccessLogFormat returns format when set, otherwise the named preset.
func ResolveAccessLogFormat(format string, preset string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return format, nil
	}
	p := strings.ToLower(strings.TrimSpace(preset))
	if p == "" {
		return "", nil
	}
	out, ok := accessLogFormatPresets[p]
	if !ok {
		return "", fmt.Errorf("invalid access_log_format_preset: %q", preset)
	}
	return out, nil
}

// CompileAccessLogFormat parses a template of literals and $name variables.
// "$$" is a literal dollar sign. An empty format yields a nil formatter.
func CompileAccessLogFormat(format string) (*AccessLogFormatter, error) {
	if strings.TrimSpace(format) == "" {
		return nil, nil
	}
	parts := make([]formatPart, 0, 8)
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() == 0 {
			return
		}
		parts = append(parts, formatPart{literal: lit.String()})
		lit.Reset()
	}

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '$' {
			lit.WriteByte(ch)
			continue
		}
		if i+1 < len(format) && format[i+1] == '$' {
			lit.WriteByte('$')
			i++
			continue
		}
		flushLiteral()
		j := i + 1
		for j < len(format) {
			r := rune(format[j])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			j++
		}
		if j == i+1 {
			return nil, fmt.Errorf("invalid access_log_format: missing variable name after '$' at pos %d", i)
		}
		name := format[i+1 : j]
		if _, ok := allowedAccessLogVars[name]; !ok {
			return nil, fmt.Errorf("invalid access_log_format: unknown variable $%s", name)
		}
		parts = append(parts, formatPart{varName: name})
		i = j - 1
	}
	flushLiteral()
	return &AccessLogFormatter{parts: parts}, nil
}

// Format renders the line. Variables with no value render as "-".
func (f *AccessLogFormatter) Format(ts time.Time, req RequestLine, fields map[string]any, color bool) string {
	if f == nil || len(f.parts) == 0 {
		return ""
	}
	vars := req.vars(ts, color)
	for k, v := range fields {
		if s := fieldString(v); s != "" {
			vars[k] = s
		}
	}

	var b strings.Builder
	for _, p := range f.parts {
		if p.literal != "" {
			b.WriteString(p.literal)
			continue
		}
		v := strings.TrimSpace(vars[p.varName])
		if v == "" {
			b.WriteByte('-')
			continue
		}
		b.WriteString(v)
	}
	return b.String()
}

// AccessLogAllowedVars lists the variable names a format may use.
func AccessLogAllowedVars() []string {
	keys := make([]string, 0, len(allowedAccessLogVars))
	for k := range allowedAccessLogVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
