package dom

import "errors"

var (
	// ErrBuilderSpent is returned when a builder is used after its element
	// was attached or handed out.
	ErrBuilderSpent = errors.New("dom: builder already spent")
	// ErrNilParent signals a terminal attachment without a parent element.
	ErrNilParent = errors.New("dom: parent element is nil")
	// ErrNotChild signals that the reference sibling is not a child of the
	// parent passed to InsertBefore or ReplaceChild.
	ErrNotChild = errors.New("dom: reference element is not a child of parent")
	// ErrAttached signals an attempt to attach an element that already has a
	// parent.
	ErrAttached = errors.New("dom: element is already attached")
	// ErrForeignElement signals an element that belongs to another document.
	ErrForeignElement = errors.New("dom: element belongs to another document")
)
