package version

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	got := Info{Version: "v1.2.3", Commit: "abc123", Date: "2024-01-01", GoVersion: "go1.24"}.String()
	if got != "dkn v1.2.3 (abc123, 2024-01-01) go1.24" {
		t.Fatalf("String()=%q", got)
	}
	if got := (Info{Version: "dev", GoVersion: "go1.24"}).String(); got != "dkn dev go1.24" {
		t.Fatalf("String()=%q", got)
	}
}

func TestGet(t *testing.T) {
	if !strings.HasPrefix(Get().String(), "dkn ") {
		t.Fatalf("Get().String()=%q", Get().String())
	}
}
