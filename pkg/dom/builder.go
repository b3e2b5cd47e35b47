package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Builder configures one new element and attaches it exactly once.
//
// Configuration methods return the builder for chaining. The first problem
// found while configuring (for example appending a spent child) is kept and
// returned by the terminal call, which then leaves the document untouched.
// Calling a configuration method on a spent builder panics.
type Builder struct {
	el    *Element
	spent bool
	err   error
}

// Create starts a builder for a new, detached element of the given tag.
func (d *Document) Create(tag string) *Builder {
	return &Builder{el: d.newElement(tag)}
}

// ID sets the element id.
func (b *Builder) ID(id string) *Builder {
	b.mustLive("ID")
	b.el.SetAttr("id", id)
	return b
}

// Class sets the class attribute.
func (b *Builder) Class(name string) *Builder {
	b.mustLive("Class")
	b.el.SetAttr("class", name)
	return b
}

// Text replaces the element's content with a single text node. The content
// is escaped when the document is rendered.
func (b *Builder) Text(content string) *Builder {
	b.mustLive("Text")
	clearChildren(b.el.node)
	if content != "" {
		b.el.node.AppendChild(&html.Node{Type: html.TextNode, Data: content})
	}
	return b
}

// Markup replaces the element's content with a sanitized HTML fragment.
func (b *Builder) Markup(raw string) *Builder {
	b.mustLive("Markup")
	clearChildren(b.el.node)
	clean := SanitizeMarkup(raw)
	if clean == "" {
		return b
	}
	context := &html.Node{Type: html.ElementNode, DataAtom: b.el.node.DataAtom, Data: b.el.node.Data}
	nodes, err := html.ParseFragment(strings.NewReader(clean), context)
	if err != nil {
		b.fail(fmt.Errorf("dom: parse markup: %w", err))
		return b
	}
	for _, n := range nodes {
		b.el.node.AppendChild(n)
	}
	return b
}

// Attr sets an arbitrary attribute, overwriting any previous value.
func (b *Builder) Attr(name, value string) *Builder {
	b.mustLive("Attr")
	b.el.SetAttr(name, value)
	return b
}

// On registers a listener for the named event.
func (b *Builder) On(eventType string, h Handler) *Builder {
	b.mustLive("On")
	b.el.On(eventType, h)
	return b
}

// Append attaches the child's element as the last child and spends the child
// builder.
func (b *Builder) Append(child *Builder) *Builder {
	b.mustLive("Append")
	if child == nil {
		return b
	}
	el, err := child.Build()
	if err != nil {
		b.fail(err)
		return b
	}
	if el.doc != b.el.doc {
		b.fail(ErrForeignElement)
		return b
	}
	b.el.node.AppendChild(el.node)
	return b
}

// Handle returns the element under construction so callers can keep a
// direct reference to it (for example an input inside a form). The element
// must still be attached through a builder, not directly.
func (b *Builder) Handle() *Element {
	return b.el
}

// Err returns the first configuration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Build spends the builder and returns its detached element.
func (b *Builder) Build() (*Element, error) {
	if err := b.spend(); err != nil {
		return nil, err
	}
	return b.el, nil
}

// AppendTo attaches the element as parent's last child.
func (b *Builder) AppendTo(parent *Element) (*Element, error) {
	if err := b.terminal(parent); err != nil {
		return nil, err
	}
	parent.node.AppendChild(b.el.node)
	return b.el, nil
}

// PrependTo attaches the element as parent's first child.
func (b *Builder) PrependTo(parent *Element) (*Element, error) {
	if err := b.terminal(parent); err != nil {
		return nil, err
	}
	parent.node.InsertBefore(b.el.node, parent.node.FirstChild)
	return b.el, nil
}

// InsertBefore attaches the element immediately before sibling, which must
// be a child of parent.
func (b *Builder) InsertBefore(parent, sibling *Element) (*Element, error) {
	if err := b.terminalWithRef(parent, sibling); err != nil {
		return nil, err
	}
	parent.node.InsertBefore(b.el.node, sibling.node)
	return b.el, nil
}

// ReplaceChild puts the element where old was and detaches old.
func (b *Builder) ReplaceChild(parent, old *Element) (*Element, error) {
	if err := b.terminalWithRef(parent, old); err != nil {
		return nil, err
	}
	parent.node.InsertBefore(b.el.node, old.node)
	parent.node.RemoveChild(old.node)
	parent.doc.forget(old.node)
	return b.el, nil
}

func (b *Builder) terminal(parent *Element) error {
	if b.spent {
		return ErrBuilderSpent
	}
	if parent == nil {
		return ErrNilParent
	}
	if parent.doc != b.el.doc {
		return ErrForeignElement
	}
	return b.spend()
}

func (b *Builder) terminalWithRef(parent, ref *Element) error {
	if b.spent {
		return ErrBuilderSpent
	}
	if parent == nil {
		return ErrNilParent
	}
	if parent.doc != b.el.doc {
		return ErrForeignElement
	}
	if !parent.isChild(ref) {
		return ErrNotChild
	}
	return b.spend()
}

func (b *Builder) spend() error {
	if b.spent {
		return ErrBuilderSpent
	}
	b.spent = true
	if b.err != nil {
		return b.err
	}
	if b.el.node.Parent != nil {
		return ErrAttached
	}
	return nil
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) mustLive(method string) {
	if b.spent {
		panic(fmt.Sprintf("dom: %s called on a spent builder for <%s>", method, b.el.Tag()))
	}
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}
