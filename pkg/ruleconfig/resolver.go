package ruleconfig

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNoSource is returned when every config source failed to load.
	ErrNoSource = errors.New("no config source could be loaded")
	// ErrNotSaved is returned when no config source accepted a save.
	ErrNotSaved = errors.New("no config source accepted the update")
)

// EmptyConfigString is the document used when nothing can be loaded.
const EmptyConfigString = "{}"

// ConfigSource stores the raw config text. Sources that cannot persist
// return an error from SaveConfigString.
type ConfigSource interface {
	LoadConfigString(ctx context.Context) (string, error)
	SaveConfigString(ctx context.Context, text string) error
}

// Named is implemented by sources that want a readable name in logs.
type Named interface {
	Name() string
}

// SourceName returns the display name of src at position i.
func SourceName(src ConfigSource, i int) string {
	if n, ok := src.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("source[%d](%T)", i, src)
}

// SourceFailure records a source that was skipped.
type SourceFailure struct {
	Source string
	Err    error
}

// LoadResult describes where the current config text came from.
type LoadResult struct {
	Source  string
	Skipped []SourceFailure
}

// Resolver owns the config source chain and caches the loaded text and
// its compiled tree. Calls are serialized; compiled trees it returns are
// immutable and may be shared freely.
type Resolver struct {
	sources []ConfigSource
	styles  StyleNames

	mu         sync.Mutex
	loaded     bool
	text       string
	last       LoadResult
	compiled   *Rule
	compileErr error
	generation uint64
}

// NewResolver returns a resolver over sources in priority order.
func NewResolver(styles StyleNames, sources ...ConfigSource) *Resolver {
	return &Resolver{
		sources: append([]ConfigSource(nil), sources...),
		styles:  styles,
	}
}

func (r *Resolver) StyleNames() StyleNames {
	return r.styles
}

// GetConfigString returns the text of the first source that loads. A
// failure is not cached; the next call tries the chain again.
func (r *Resolver) GetConfigString(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.configStringLocked(ctx)
}

func (r *Resolver) configStringLocked(ctx context.Context) (string, error) {
	if r.loaded {
		return r.text, nil
	}
	text, res, err := r.load(ctx)
	r.last = res
	if err != nil {
		return "", err
	}
	r.text = text
	r.loaded = true
	return text, nil
}

func (r *Resolver) load(ctx context.Context) (string, LoadResult, error) {
	var res LoadResult
	var errs []error
	for i, src := range r.sources {
		name := SourceName(src, i)
		text, err := src.LoadConfigString(ctx)
		if err != nil {
			res.Skipped = append(res.Skipped, SourceFailure{Source: name, Err: err})
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		res.Source = name
		return text, res, nil
	}
	return "", res, errors.Join(append([]error{ErrNoSource}, errs...)...)
}

// GetCompiledConfig returns the compiled tree for the current text. The
// result, or the compile error, is cached until the text changes. When no
// source can be loaded the empty document is compiled instead.
func (r *Resolver) GetCompiledConfig(ctx context.Context) (*Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.compiled != nil {
		return r.compiled, nil
	}
	if r.compileErr != nil {
		return nil, r.compileErr
	}
	text, err := r.configStringLocked(ctx)
	if err != nil {
		return ParseConfigString(EmptyConfigString, r.styles)
	}
	root, err := ParseConfigString(text, r.styles)
	if err != nil {
		r.compileErr = err
		return nil, err
	}
	r.compiled = root
	r.generation++
	return root, nil
}

// SetConfigString compiles text and, when it is valid, saves it to the
// first source that accepts it and makes it current. On any failure the
// cached text and tree are left untouched.
func (r *Resolver) SetConfigString(ctx context.Context, text string) (*Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	root, err := ParseConfigString(text, r.styles)
	if err != nil {
		return nil, err
	}
	saved, err := r.save(ctx, text)
	if err != nil {
		return nil, err
	}
	r.replaceLocked(text, root, LoadResult{Source: saved})
	return root, nil
}

func (r *Resolver) save(ctx context.Context, text string) (string, error) {
	var errs []error
	for i, src := range r.sources {
		name := SourceName(src, i)
		err := src.SaveConfigString(ctx, text)
		if err == nil {
			return name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return "", errors.Join(append([]error{ErrNotSaved}, errs...)...)
}

// Reload reads the source chain again. The new text replaces the current
// config only when it compiles.
func (r *Resolver) Reload(ctx context.Context) (LoadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, res, err := r.load(ctx)
	if err != nil {
		return res, err
	}
	root, err := ParseConfigString(text, r.styles)
	if err != nil {
		return res, err
	}
	r.replaceLocked(text, root, res)
	return res, nil
}

func (r *Resolver) replaceLocked(text string, root *Rule, res LoadResult) {
	r.text = text
	r.loaded = true
	r.last = res
	r.compiled = root
	r.compileErr = nil
	r.generation++
}

// Validate compiles text without touching the resolver state.
func (r *Resolver) Validate(text string) (*Rule, error) {
	return ParseConfigString(text, r.styles)
}

// GetEffectiveRule resolves url against the compiled config. If the current
// config does not compile the default rule is returned with the error.
func (r *Resolver) GetEffectiveRule(ctx context.Context, url string) (EffectiveRule, error) {
	root, err := r.GetCompiledConfig(ctx)
	if err != nil {
		return DefaultEffectiveRule(), err
	}
	return Resolve(root, url), nil
}

// Generation increases each time a new compiled tree becomes current.
func (r *Resolver) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// LastLoad reports the outcome of the most recent load of the source chain.
func (r *Resolver) LastLoad() LoadResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.last
	out.Skipped = append([]SourceFailure(nil), r.last.Skipped...)
	return out
}
