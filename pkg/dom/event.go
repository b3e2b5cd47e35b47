package dom

import "context"

// Event types dispatched by the view layer.
const (
	EventClick  = "click"
	EventSubmit = "submit"
	EventInput  = "input"
)

// Handler reacts to a dispatched event. Handlers run synchronously on the
// goroutine that called Document.Dispatch.
type Handler func(ctx context.Context, ev *Event)

// Event carries the type and target of one dispatch.
type Event struct {
	Type   string
	Target *Element

	prevented bool
}

// PreventDefault cancels the default action that follows the dispatch, such
// as the form submission triggered by a submit button.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}
