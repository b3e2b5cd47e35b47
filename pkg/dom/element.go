package dom

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is the handle for one element node. Handles are unique per node
// within a document, so listeners registered through one handle are seen by
// every lookup of the same node.
type Element struct {
	doc       *Document
	node      *html.Node
	listeners map[string][]Handler
}

// Document returns the owning document.
func (e *Element) Document() *Document {
	return e.doc
}

// Tag returns the lower-case tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := attr(e.node, "id")
	return v
}

// Attr returns the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, strings.ToLower(name))
}

// SetAttr sets or overwrites an attribute.
func (e *Element) SetAttr(name, value string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(name string) {
	name = strings.ToLower(name)
	out := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	e.node.Attr = out
}

// Value returns the current value of a form control.
func (e *Element) Value() string {
	v, _ := e.Attr("value")
	return v
}

// SetValue updates the value of a form control.
func (e *Element) SetValue(v string) {
	e.SetAttr("value", v)
}

// Checked reports the checkbox state.
func (e *Element) Checked() bool {
	_, ok := e.Attr("checked")
	return ok
}

// SetChecked toggles the checkbox state.
func (e *Element) SetChecked(checked bool) {
	if checked {
		e.SetAttr("checked", "")
		return
	}
	e.RemoveAttr("checked")
}

// Text returns the concatenated text content of the element's subtree.
func (e *Element) Text() string {
	var b strings.Builder
	collectText(e.node, &b)
	return b.String()
}

// Parent returns the parent element, or nil when detached or at the root.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Children returns the element children in order.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// LastChild returns the last element child, or nil.
func (e *Element) LastChild() *Element {
	for c := e.node.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.ElementNode {
			return e.doc.wrap(c)
		}
	}
	return nil
}

// NextSibling returns the following element sibling, or nil.
func (e *Element) NextSibling() *Element {
	for s := e.node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return e.doc.wrap(s)
		}
	}
	return nil
}

// Form returns the closest form ancestor (or the element itself).
func (e *Element) Form() *Element {
	for n := e.node; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.DataAtom == atom.Form {
			return e.doc.wrap(n)
		}
	}
	return nil
}

// Find returns the first descendant element matching the predicate.
func (e *Element) Find(match func(*Element) bool) *Element {
	n := findNode(e.node, func(n *html.Node) bool {
		return n != e.node && n.Type == html.ElementNode && match(e.doc.wrap(n))
	})
	return e.doc.wrap(n)
}

// Remove detaches the element from its parent. Removing a detached element
// is a no-op.
func (e *Element) Remove() {
	if p := e.node.Parent; p != nil {
		p.RemoveChild(e.node)
		e.doc.forget(e.node)
	}
}

// On registers a listener on an existing element.
func (e *Element) On(eventType string, h Handler) {
	if h == nil {
		return
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]Handler)
	}
	e.listeners[eventType] = append(e.listeners[eventType], h)
}

// ListenerCount returns the number of listeners for an event type.
func (e *Element) ListenerCount(eventType string) int {
	return len(e.listeners[eventType])
}

// HTML serializes the element's subtree.
func (e *Element) HTML() string {
	var b strings.Builder
	if err := html.Render(&b, e.node); err != nil {
		return ""
	}
	return b.String()
}

func (e *Element) fire(ctx context.Context, ev *Event) {
	// Copy so listeners added during dispatch wait for the next event.
	handlers := append([]Handler(nil), e.listeners[ev.Type]...)
	for _, h := range handlers {
		h(ctx, ev)
	}
}

func (e *Element) isSubmitButton() bool {
	switch e.node.DataAtom {
	case atom.Button:
		t, ok := e.Attr("type")
		return !ok || strings.EqualFold(t, "submit")
	case atom.Input:
		t, _ := e.Attr("type")
		return strings.EqualFold(t, "submit")
	}
	return false
}

func (e *Element) isChild(child *Element) bool {
	return child != nil && child.node.Parent == e.node
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
