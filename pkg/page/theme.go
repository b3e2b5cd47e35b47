package page

import (
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Asset keys understood by the page shell.
const (
	AssetStylesheet = "crudview.stylesheet"
)

// DefaultTheme and DarkVariant name the built-in manifest and its variant.
const (
	DefaultTheme = "crudview"
	DarkVariant  = "dark"
)

// DefaultManifest returns the built-in theme.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultTheme,
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":      "#2f6f4f",
			"surface":    "#ffffff",
			"text":       "#1d1d1d",
			"danger":     "#b3261e",
			"card-gap":   "1rem",
			"font-stack": "system-ui, sans-serif",
		},
		Assets: theme.Assets{
			Prefix: "/assets/crudview",
			Files: map[string]string{
				AssetStylesheet: "crudview.css",
			},
		},
		Variants: map[string]theme.Variant{
			DarkVariant: {
				Tokens: map[string]string{
					"surface": "#121212",
					"text":    "#ececec",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						AssetStylesheet: "crudview.dark.css",
					},
				},
			},
		},
	}
}

// Selector resolves theme and variant names against a fixed set of
// manifests. Empty names fall back to the configured defaults.
type Selector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*Selector)(nil)

// NewSelector indexes manifests by name. The first manifest is the default
// theme.
func NewSelector(manifests ...*theme.Manifest) (*Selector, error) {
	s := &Selector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, m := range manifests {
		if m == nil || strings.TrimSpace(m.Name) == "" {
			return nil, fmt.Errorf("page: theme manifest requires a name")
		}
		if _, dup := s.manifests[m.Name]; dup {
			return nil, fmt.Errorf("page: theme %q registered twice", m.Name)
		}
		s.manifests[m.Name] = m
		if s.defaultTheme == "" {
			s.defaultTheme = m.Name
		}
	}
	return s, nil
}

// WithDefaultVariant sets the variant used when Select gets none.
func (s *Selector) WithDefaultVariant(variant string) *Selector {
	s.defaultVariant = strings.TrimSpace(variant)
	return s
}

// Select implements theme.ThemeSelector.
func (s *Selector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	m, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("page: unknown theme %q", name)
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = s.defaultVariant
	}
	if variant != "" {
		if _, ok := m.Variants[variant]; !ok {
			return nil, fmt.Errorf("page: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

// RendererConfig flattens a selection: variant tokens and assets override
// the base manifest and every token becomes a --token CSS variable.
func RendererConfig(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	m := sel.Manifest
	tokens := copyStrings(m.Tokens)
	partials := copyStrings(m.Templates)
	files := copyStrings(m.Assets.Files)
	prefix := m.Assets.Prefix

	if v, ok := m.Variants[sel.Variant]; ok {
		mergeStrings(tokens, v.Tokens)
		mergeStrings(partials, v.Templates)
		mergeStrings(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		vars["--"+key] = value
	}

	return &theme.RendererConfig{
		Theme:    sel.Theme,
		Variant:  sel.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  vars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.HasPrefix(file, "/") || strings.Contains(file, "://") {
				return file
			}
			return path.Join("/", prefix, file)
		},
	}
}

// cssVarsStyle renders CSS variables as a :root rule with sorted keys.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func mergeStrings(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
