// Package config provides the workspace configuration loader for stencil.
package config

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	FS     ports.FileSystem
}

// NewLoader creates a new Loader with the given logger and filesystem.
func NewLoader(logger ports.Logger, fsys ports.FileSystem) *Loader {
	return &Loader{Logger: logger, FS: fsys}
}

// Load reads the configuration of the workspace containing cwd.
// Without a stencil.yaml the workspace is rooted at cwd with default settings.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	configPath, found := l.findConfiguration(cwd)
	if !found {
		return domain.NewWorkspace(filepath.Clean(cwd)), nil
	}

	var file Stencilfile
	if err := l.readAndUnmarshalYAML(configPath, &file); err != nil {
		return nil, err
	}

	ws, err := l.buildWorkspace(configPath, &file)
	if err != nil {
		return nil, zerr.With(err, "config", configPath)
	}
	return ws, nil
}

// DiscoverRoot walks up from cwd to find the directory containing stencil.yaml.
// It returns cwd when no configuration exists.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	if configPath, found := l.findConfiguration(cwd); found {
		return filepath.Dir(configPath), nil
	}
	return filepath.Clean(cwd), nil
}

func (l *Loader) findConfiguration(cwd string) (string, bool) {
	currentDir := filepath.Clean(cwd)
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func (l *Loader) buildWorkspace(configPath string, file *Stencilfile) (*domain.Workspace, error) {
	ws := domain.NewWorkspace(resolveRoot(configPath, file.Root))
	ws.ConfigPath = configPath

	if len(file.Suffixes) > 0 {
		suffixes, err := validateSuffixes(file.Suffixes)
		if err != nil {
			return nil, err
		}
		ws.Suffixes = suffixes
	}

	if file.Debounce != "" {
		d, err := time.ParseDuration(file.Debounce)
		if err != nil || d < 0 {
			return nil, zerr.With(domain.ErrInvalidDebounce, "debounce", file.Debounce)
		}
		ws.Debounce = d
	}

	for _, pattern := range file.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, zerr.With(domain.ErrInvalidIgnorePattern, "pattern", pattern)
		}
	}
	ws.Ignore = slices.Clone(file.Ignore)

	if file.Verify != nil {
		ws.Verify = *file.Verify
	}

	if d := file.Discovery; d != nil {
		ws.Discovery.Disabled = d.Disabled
		if d.Vendor != nil {
			ws.Discovery.Vendor = slices.Clone(d.Vendor)
		}
		if d.Site != nil {
			ws.Discovery.Site = slices.Clone(d.Site)
		}
	}

	if len(file.Contexts) > 0 {
		contexts, err := buildContexts(file.Contexts)
		if err != nil {
			return nil, err
		}
		ws.Contexts = contexts
	}

	if file.Version != "" && file.Version != "1" {
		l.Logger.Warn("unknown configuration version " + file.Version + " in " + configPath)
	}

	return ws, nil
}

func validateSuffixes(raw []string) ([]string, error) {
	suffixes := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if len(s) < 2 || !strings.HasPrefix(s, ".") || strings.ContainsAny(s, `/\`) {
			return nil, zerr.With(domain.ErrInvalidSuffix, "suffix", s)
		}
		if !slices.Contains(suffixes, s) {
			suffixes = append(suffixes, s)
		}
	}
	return suffixes, nil
}

// buildContexts turns context declarations into fragments. Paths are passed
// through unvalidated so a malformed entry only affects its own context when
// the roots are rebuilt.
func buildContexts(dtos []ContextDTO) ([]domain.ContextConfig, error) {
	contexts := make([]domain.ContextConfig, 0, len(dtos))
	seen := make(map[domain.ContextID]struct{}, len(dtos))

	for _, dto := range dtos {
		id := domain.NewContextID(dto.Site, dto.Mode)
		if _, dup := seen[id]; dup {
			return nil, zerr.With(domain.ErrDuplicateContext, "context", id.String())
		}
		seen[id] = struct{}{}

		cfg := domain.ContextConfig{ID: id}
		for order, src := range dto.Sources {
			for _, k := range domain.AllKinds() {
				paths := src.paths(k)
				if paths == nil {
					continue
				}
				cfg.Fragments = append(cfg.Fragments, domain.ConfigFragment{
					Context:  id,
					Kind:     k,
					Paths:    slices.Clone(paths),
					Priority: src.Priority,
					Order:    order,
				})
			}
		}
		contexts = append(contexts, cfg)
	}
	return contexts, nil
}

func (s SourceDTO) paths(k domain.Kind) []string {
	switch k {
	case domain.KindTemplate:
		return s.Templates
	case domain.KindLayout:
		return s.Layouts
	case domain.KindPartial:
		return s.Partials
	default:
		return nil
	}
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func (l *Loader) readAndUnmarshalYAML(configPath string, target *Stencilfile) error {
	content, err := l.FS.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	if parseErr := yaml.Unmarshal(content, target); parseErr != nil {
		return zerr.With(zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}

	return nil
}
