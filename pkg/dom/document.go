package dom

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const emptyPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document owns an HTML node tree plus the element handles (and their
// listeners) created for it.
type Document struct {
	root        *html.Node
	elements    map[*html.Node]*Element
	navigations int
}

// New returns a document holding an empty html/head/body skeleton.
func New() *Document {
	doc, err := Parse(strings.NewReader(emptyPage))
	if err != nil {
		// The skeleton is constant; the html parser does not fail on it.
		panic(err)
	}
	return doc
}

// Parse builds a document from HTML markup. Missing html/head/body elements
// are synthesized by the parser.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	return &Document{
		root:     root,
		elements: make(map[*html.Node]*Element),
	}, nil
}

// Body returns the body element.
func (d *Document) Body() *Element {
	return d.First("body")
}

// Head returns the head element.
func (d *Document) Head() *Element {
	return d.First("head")
}

// First returns the first element with the given tag name in document
// order, or nil.
func (d *Document) First(tag string) *Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	n := findNode(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	})
	return d.wrap(n)
}

// ByID returns the attached element carrying the given id, or nil. It exists
// for drivers and tests that start from markup; view code holds element
// handles instead of looking them up.
func (d *Document) ByID(id string) *Element {
	if id == "" {
		return nil
	}
	n := findNode(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, ok := attr(n, "id")
		return ok && v == id
	})
	return d.wrap(n)
}

// Contains reports whether el is attached to this document's tree.
func (d *Document) Contains(el *Element) bool {
	if el == nil || el.doc != d {
		return false
	}
	for n := el.node; n != nil; n = n.Parent {
		if n == d.root {
			return true
		}
	}
	return false
}

// Navigations counts submit events whose default action was not prevented.
// In a browser each of them would have navigated away from the page.
func (d *Document) Navigations() int {
	return d.navigations
}

// Render serializes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.root); err != nil {
		return fmt.Errorf("dom: render document: %w", err)
	}
	return nil
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Dispatch delivers an event of the given type to target's listeners in
// registration order. A click on a submit button that is not default
// prevented triggers the form's submit event, mirroring browser activation
// behavior. The returned event is the one dispatched to target.
func (d *Document) Dispatch(ctx context.Context, target *Element, eventType string) *Event {
	ev := &Event{Type: eventType, Target: target}
	if target == nil || target.doc != d {
		return ev
	}
	target.fire(ctx, ev)

	if eventType == EventClick && !ev.DefaultPrevented() && target.isSubmitButton() {
		if form := target.Form(); form != nil {
			submit := &Event{Type: EventSubmit, Target: form}
			form.fire(ctx, submit)
			if !submit.DefaultPrevented() {
				d.navigations++
			}
		}
	}
	return ev
}

func (d *Document) newElement(tag string) *Element {
	tag = strings.ToLower(strings.TrimSpace(tag))
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Lookup([]byte(tag)),
		Data:     tag,
	}
	return d.wrap(n)
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

// forget drops the handles for n and its descendants once n has left the
// tree. Detached nodes cannot be attached again.
func (d *Document) forget(n *html.Node) {
	delete(d.elements, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// tracked returns the number of live element handles.
func (d *Document) tracked() int {
	return len(d.elements)
}

func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
