package ruleconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultDynamicStyles are the dynamic style functions shipped with the
// stylesheet bundle.
var DefaultDynamicStyles = []string{"blackBg", "brightText"}

// StyleNames lists the identifiers that staticStyles and dynamicStyles
// entries may reference. JSON null is always accepted as well.
type StyleNames struct {
	Static  []string `json:"static"`
	Dynamic []string `json:"dynamic"`
}

func (s StyleNames) allowedStatic() []any  { return withNull(s.Static) }
func (s StyleNames) allowedDynamic() []any { return withNull(s.Dynamic) }

func withNull(names []string) []any {
	out := make([]any, 0, len(names)+1)
	out = append(out, nil)
	for _, n := range names {
		out = append(out, n)
	}
	return out
}

var manifestCSSPattern = regexp.MustCompile(`^style/(.*)\.css$`)

// StaticStylesFromManifest reads the static style names from the
// web_accessible_resources list of a browser extension manifest.
func StaticStylesFromManifest(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var manifest struct {
		WebAccessibleResources []string `json:"web_accessible_resources"`
	}
	if err := json.Unmarshal(b, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	var out []string
	for _, res := range manifest.WebAccessibleResources {
		if m := manifestCSSPattern.FindStringSubmatch(res); m != nil {
			out = append(out, m[1])
		}
	}
	return out, nil
}

// StaticStylesFromDir lists the *.css files of dir, without extension and
// sorted by name.
func StaticStylesFromDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read styles dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".css" {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".css"))
	}
	sort.Strings(out)
	return out, nil
}
