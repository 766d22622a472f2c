package logx

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// RequestLine holds the per-request values every access log line carries.
type RequestLine struct {
	Status   int
	Latency  time.Duration
	ClientIP string
	Method   string
	Path     string
}

func (r RequestLine) vars(ts time.Time, color bool) map[string]string {
	return map[string]string{
		"time_local": ts.Format("2006/01/02 - 15:04:05"),
		"status":     ColorizeStatusWith(r.Status, color),
		"latency":    r.Latency.String(),
		"latency_ms": strconv.FormatInt(r.Latency.Milliseconds(), 10),
		"client_ip":  strings.TrimSpace(r.ClientIP),
		"method":     strings.TrimSpace(r.Method),
		"path":       r.Path,
	}
}

// ColorEnabled reports whether stdout is a terminal and NO_COLOR is unset.
func ColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ColorizeStatusWith renders status, wrapped in an ANSI color by class when
// color is set.
func ColorizeStatusWith(status int, color bool) string {
	s := strconv.Itoa(status)
	if !color {
		return s
	}
	code := "32"
	switch {
	case status >= 500:
		code = "31"
	case status >= 400:
		code = "33"
	case status >= 300:
		code = "36"
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// FormatRequestLineWithColor renders the built-in line: the fixed request
// columns followed by the extra fields as sorted key=value pairs.
func FormatRequestLineWithColor(ts time.Time, req RequestLine, fields map[string]any, color bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s | %v | %s | %s %s",
		ts.Format("2006/01/02 - 15:04:05"),
		ColorizeStatusWith(req.Status, color),
		req.Latency,
		strings.TrimSpace(req.ClientIP),
		strings.TrimSpace(req.Method),
		req.Path,
	)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := fieldString(fields[k])
		if s == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(s)
	}
	return b.String()
}

func fieldString(v any) string {
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	if s == "<nil>" {
		return ""
	}
	return s
}
