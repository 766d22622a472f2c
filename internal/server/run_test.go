package server

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/r9s-ai/dkn/pkg/config"
)

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "dkn.pid")
	cfg := &config.Config{}
	cfg.Server.PidFile = path

	closer, err := writePIDFile(cfg)
	if err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if strings.TrimSpace(string(b)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("pid file holds %q", b)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, stat err=%v", err)
	}
}

func TestWritePIDFile_Disabled(t *testing.T) {
	closer, err := writePIDFile(&config.Config{})
	if err != nil || closer != nil {
		t.Fatalf("closer=%v err=%v", closer, err)
	}
}

func TestOpenAccessLogger(t *testing.T) {
	cfg := &config.Config{}
	l, closer, _, err := openAccessLogger(cfg)
	if err != nil || l != nil || closer != nil {
		t.Fatalf("disabled: l=%v closer=%v err=%v", l, closer, err)
	}

	path := filepath.Join(t.TempDir(), "logs", "access.log")
	cfg.Logging.AccessLog = true
	cfg.Logging.AccessLogPath = path
	l, closer, color, err := openAccessLogger(cfg)
	if err != nil {
		t.Fatalf("openAccessLogger err=%v", err)
	}
	if l == nil || closer == nil {
		t.Fatalf("expected logger and closer")
	}
	if color {
		t.Fatalf("expected color disabled for file logger")
	}
	l.Println("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close err=%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(b), "hello") {
		t.Fatalf("log file %q err=%v", b, err)
	}
}
