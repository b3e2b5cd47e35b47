// Package dom keeps a mutable HTML document tree in memory and exposes a
// fluent Builder for constructing and attaching elements. The tree is backed
// by golang.org/x/net/html nodes so it can be parsed from templates and
// serialized back to HTML at any point. Listeners are registered on element
// handles and invoked synchronously by Document.Dispatch.
//
// A Document is not safe for concurrent use. Callers confine every access to
// a single goroutine, typically the one draining an eventloop.Loop.
package dom
