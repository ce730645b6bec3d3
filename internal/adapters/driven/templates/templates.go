// Package templates provides the prompt template store. Templates are
// grouped per language into TOML locale files embedded in the binary,
// and can be overridden with files from a user-supplied directory.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

//go:embed locales
var localeFS embed.FS

// Ensure Store implements the interface.
var _ driven.TemplateStore = (*Store)(nil)

// DefaultLanguage is used when the requested language has no locale.
const DefaultLanguage = "en"

// Config holds configuration for the template store.
type Config struct {
	// Language is the preferred locale (default: en).
	Language string

	// DefaultLanguage is the fallback locale (default: en).
	DefaultLanguage string

	// OverrideDir optionally points at a directory whose
	// <language>/<group>.toml files take precedence over the
	// embedded locales. Changes to it are picked up automatically.
	OverrideDir string
}

// Store resolves and renders prompt templates by (language, group, key).
type Store struct {
	language        string
	defaultLanguage string
	overrideDir     string
	watcher         *fsnotify.Watcher

	mu     sync.RWMutex
	groups map[string]map[string]*template.Template // "lang/group" -> key -> parsed
}

// NewStore creates a template store for the given language. If the
// language has no embedded locale, the default language is used.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultLanguage
	}

	s := &Store{
		language:        cfg.DefaultLanguage,
		defaultLanguage: cfg.DefaultLanguage,
		overrideDir:     cfg.OverrideDir,
		groups:          make(map[string]map[string]*template.Template),
	}

	if cfg.Language != "" && s.languageExists(cfg.Language) {
		s.language = cfg.Language
	} else if cfg.Language != "" && cfg.Language != cfg.DefaultLanguage {
		logger.Warn("No locale for language %q, falling back to %q", cfg.Language, cfg.DefaultLanguage)
	}

	if s.overrideDir != "" {
		if err := s.watchOverrides(); err != nil {
			logger.Warn("Template override watch disabled: %v", err)
		}
	}

	return s, nil
}

// languageExists reports whether the language has an embedded locale
// directory or an override directory.
func (s *Store) languageExists(language string) bool {
	if _, err := fs.Stat(localeFS, filepath.ToSlash(filepath.Join("locales", language))); err == nil {
		return true
	}
	if s.overrideDir != "" {
		if info, err := os.Stat(filepath.Join(s.overrideDir, language)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// watchOverrides watches the override directory and drops cached
// templates when files change.
func (s *Store) watchOverrides() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.overrideDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.overrideDir, err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Debug("Template override changed: %s", event.Name)
					s.Reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Template override watch error: %v", err)
			}
		}
	}()
	return nil
}

// Language returns the effective locale in use.
func (s *Store) Language() string {
	return s.language
}

// Render resolves (group, key) in the current language, falling back
// to the default language, and renders the template with vars.
func (s *Store) Render(group, key string, vars map[string]any) (string, error) {
	if group == "" || key == "" {
		return "", fmt.Errorf("%w: template group and key are required", domain.ErrInvalidInput)
	}

	tmpl, err := s.lookup(s.language, group, key)
	if err != nil && s.language != s.defaultLanguage {
		tmpl, err = s.lookup(s.defaultLanguage, group, key)
	}
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if execErr := tmpl.Execute(&out, vars); execErr != nil {
		return "", fmt.Errorf("render template %s/%s: %w", group, key, execErr)
	}
	return strings.TrimSpace(out.String()), nil
}

// Reload drops all cached templates so the next Render re-reads the
// locale files.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make(map[string]map[string]*template.Template)
	return nil
}

// Close stops the override watcher if one is running.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// lookup returns the parsed template for (language, group, key),
// loading and caching the group on first use.
func (s *Store) lookup(language, group, key string) (*template.Template, error) {
	cacheKey := language + "/" + group

	s.mu.RLock()
	cached, ok := s.groups[cacheKey]
	s.mu.RUnlock()

	if !ok {
		loaded, err := s.loadGroup(language, group)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.groups[cacheKey] = loaded
		s.mu.Unlock()
		cached = loaded
	}

	tmpl, ok := cached[key]
	if !ok {
		return nil, fmt.Errorf("%w: template %s/%s (%s)", domain.ErrNotFound, group, key, language)
	}
	return tmpl, nil
}

// loadGroup reads and parses a locale group file. Override files win
// over the embedded ones.
func (s *Store) loadGroup(language, group string) (map[string]*template.Template, error) {
	data, err := s.readGroup(language, group)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]string)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse locale %s/%s: %w", language, group, err)
	}

	parsed := make(map[string]*template.Template, len(raw))
	for key, text := range raw {
		tmpl, err := template.New(group + "/" + key).Option("missingkey=error").Parse(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("parse template %s/%s (%s): %w", group, key, language, err)
		}
		parsed[key] = tmpl
	}
	return parsed, nil
}

// readGroup reads the raw bytes of a group file for a language.
func (s *Store) readGroup(language, group string) ([]byte, error) {
	if s.overrideDir != "" {
		path := filepath.Join(s.overrideDir, language, group+".toml")
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	path := filepath.ToSlash(filepath.Join("locales", language, group+".toml"))
	data, err := localeFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: locale group %s (%s)", domain.ErrNotFound, group, language)
	}
	return data, nil
}
