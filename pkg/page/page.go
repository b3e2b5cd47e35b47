// Package page builds the document the view renders into: a themed HTML
// shell with the list container, its bottom anchor and the create button.
package page

import (
	"bytes"
	"embed"
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-crudview/pkg/dom"
)

//go:embed templates/*.tpl
var embedded embed.FS

// Element ids of the page shell.
const (
	ListID   = "animals"
	BottomID = "bottom"
	CreateID = "create-animal"
)

const defaultTitle = "Animals"

// Options selects the title and theme.
type Options struct {
	Title    string
	Theme    string
	Variant  string
	Selector theme.ThemeSelector
	Engine   *Engine
}

// Page is a parsed shell with direct references to the elements the view
// needs.
type Page struct {
	Doc    *dom.Document
	List   *dom.Element
	Bottom *dom.Element
	Create *dom.Element
	Theme  *theme.RendererConfig
}

// New renders the shell and parses it into a document.
func New(opts Options) (*Page, error) {
	engine := opts.Engine
	if engine == nil {
		var err error
		if engine, err = NewEngine(); err != nil {
			return nil, err
		}
	}
	selector := opts.Selector
	if selector == nil {
		s, err := NewSelector(DefaultManifest())
		if err != nil {
			return nil, err
		}
		selector = s
	}

	sel, err := selector.Select(opts.Theme, opts.Variant)
	if err != nil {
		return nil, fmt.Errorf("page: select theme: %w", err)
	}
	cfg := RendererConfig(sel)
	if cfg == nil {
		return nil, fmt.Errorf("page: theme %q has no manifest", opts.Theme)
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = defaultTitle
	}

	var buf bytes.Buffer
	if _, err := engine.Render("page", map[string]any{
		"title":      title,
		"theme":      cfg.Theme,
		"variant":    cfg.Variant,
		"stylesheet": cfg.AssetURL(AssetStylesheet),
		"css_vars":   cssVarsStyle(cfg.CSSVars),
		"list_id":    ListID,
		"bottom_id":  BottomID,
		"create_id":  CreateID,
	}, &buf); err != nil {
		return nil, err
	}

	doc, err := dom.Parse(&buf)
	if err != nil {
		return nil, err
	}
	p := &Page{
		Doc:    doc,
		List:   doc.ByID(ListID),
		Bottom: doc.ByID(BottomID),
		Create: doc.ByID(CreateID),
		Theme:  cfg,
	}
	if p.List == nil || p.Bottom == nil || p.Bottom.Parent() != p.List {
		return nil, fmt.Errorf("page: template must place #%s inside #%s", BottomID, ListID)
	}
	return p, nil
}
