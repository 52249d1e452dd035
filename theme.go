package mdblog

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Theme is a color scheme.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Mirror names written on every theme change.
const (
	ThemeAttribute  = "data-theme"
	DarkMarkerClass = "dark"
)

// ParseTheme validates a theme name (case-insensitive, surrounding spaces
// ignored).
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("%w: %q (must be light or dark)", ErrInvalidTheme, s)
	}
}

// Toggle returns the opposite theme. Anything but dark toggles to dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool {
	return t == ThemeDark
}

// ThemeStore persists the chosen theme across sessions.
type ThemeStore interface {
	// Load returns the persisted theme, false when none is stored or the
	// stored value is not a valid theme.
	Load() (Theme, bool)
	Save(Theme) error
}

// ThemeSurface mirrors the theme onto a rendered document: a boolean dark
// marker and a named attribute.
type ThemeSurface interface {
	SetMarker(dark bool)
	SetAttribute(name, value string)
}

// ThemeState holds the current theme. The initial value is the persisted
// theme, else the ambient platform preference. Every change, including the
// initial one, is persisted and mirrored to all surfaces.
type ThemeState struct {
	mu       sync.Mutex
	theme    Theme
	store    ThemeStore
	surfaces []ThemeSurface
}

// NewThemeState resolves the initial theme and applies it. An invalid
// ambient value counts as light. store may be nil for an unpersisted state.
func NewThemeState(store ThemeStore, ambient Theme, surfaces ...ThemeSurface) (*ThemeState, error) {
	initial := ThemeLight
	if ambient == ThemeDark {
		initial = ThemeDark
	}
	if store != nil {
		if persisted, ok := store.Load(); ok {
			initial = persisted
		}
	}

	s := &ThemeState{store: store, surfaces: surfaces}
	if err := s.Set(initial); err != nil {
		return nil, err
	}
	return s, nil
}

// Theme returns the current theme.
func (s *ThemeState) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// Set changes the theme, persists it and updates every surface. The
// surfaces are updated even when persisting fails.
func (s *ThemeState) Set(t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, string(t))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(t)
}

// Toggle flips between light and dark and returns the new theme.
func (s *ThemeState) Toggle() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.theme.Toggle()
	return next, s.apply(next)
}

// apply requires s.mu held.
func (s *ThemeState) apply(t Theme) error {
	s.theme = t
	for _, surface := range s.surfaces {
		surface.SetMarker(t.IsDark())
		surface.SetAttribute(ThemeAttribute, string(t))
	}
	if s.store != nil {
		if err := s.store.Save(t); err != nil {
			return fmt.Errorf("saving theme: %w", err)
		}
	}
	return nil
}

type themeStateKey struct{}

// WithThemeState installs s as the theme provider for ctx.
func WithThemeState(ctx context.Context, s *ThemeState) context.Context {
	return context.WithValue(ctx, themeStateKey{}, s)
}

// ThemeStateFrom returns the theme state installed by WithThemeState.
// It panics when no provider is installed: reading the theme outside a
// provider is a wiring defect, not a runtime condition.
func ThemeStateFrom(ctx context.Context) *ThemeState {
	s, ok := ctx.Value(themeStateKey{}).(*ThemeState)
	if !ok || s == nil {
		panic("mdblog: ThemeStateFrom called without a theme provider")
	}
	return s
}

// MemoryThemeStore is an in-process ThemeStore.
type MemoryThemeStore struct {
	mu    sync.Mutex
	theme Theme
	set   bool
}

// Load implements ThemeStore.
func (m *MemoryThemeStore) Load() (Theme, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme, m.set
}

// Save implements ThemeStore.
func (m *MemoryThemeStore) Save(t Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme, m.set = t, true
	return nil
}
