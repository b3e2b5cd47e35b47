package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/goliatone/go-crudview/pkg/animal"
	"github.com/goliatone/go-crudview/pkg/dom"
	"github.com/goliatone/go-crudview/pkg/eventloop"
)

// CreateFormID is the element id of the form opened by Create.
const CreateFormID = "new-animal-form"

// API is the subset of the REST client the view calls. *client.Client
// satisfies it.
type API interface {
	List(ctx context.Context) ([]animal.Animal, error)
	Create(ctx context.Context, a animal.Animal) (animal.Animal, error)
	Update(ctx context.Context, a animal.Animal) error
	Delete(ctx context.Context, id int64) error
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the diagnostic logger. Failures are always logged.
func WithLogger(logger *log.Logger) Option {
	return func(v *View) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithNotifier registers a notifier that receives every async outcome.
func WithNotifier(n Notifier) Option {
	return func(v *View) {
		if n != nil {
			v.notifiers = append(v.notifiers, n)
		}
	}
}

// View projects animals into a list element and runs the add, edit, remove
// and create flows. All methods must be called from the loop goroutine; the
// listeners it installs run there as well because the loop owns dispatch.
type View struct {
	doc       *dom.Document
	loop      *eventloop.Loop
	api       API
	list      *dom.Element
	bottom    *dom.Element
	logger    *log.Logger
	notifiers []Notifier

	cards  map[int64]*card
	create *Form
}

// New wires a view onto list, inserting new entries before bottom, which
// must be a child of list.
func New(doc *dom.Document, loop *eventloop.Loop, api API, list, bottom *dom.Element, options ...Option) (*View, error) {
	switch {
	case doc == nil:
		return nil, errors.New("view: document is required")
	case loop == nil:
		return nil, errors.New("view: event loop is required")
	case api == nil:
		return nil, errors.New("view: api is required")
	case list == nil || bottom == nil:
		return nil, errors.New("view: list and bottom anchor are required")
	case bottom.Parent() != list:
		return nil, errors.New("view: bottom anchor must be a child of the list")
	}

	v := &View{
		doc:    doc,
		loop:   loop,
		api:    api,
		list:   list,
		bottom: bottom,
		logger: log.New(io.Discard, "", 0),
		cards:  make(map[int64]*card),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v, nil
}

// Document returns the document the view renders into.
func (v *View) Document() *dom.Document {
	return v.doc
}

// Bootstrap fetches the collection and renders each animal in server order.
func (v *View) Bootstrap(ctx context.Context) {
	eventloop.Go(detach(ctx), v.loop, v.api.List, func(animals []animal.Animal, err error) {
		if err != nil {
			v.report(Result{Op: OpList, Err: err})
			return
		}
		// A record that cannot be shown is reported on its own; the rest
		// still render.
		for _, a := range animals {
			if _, err := v.Add(a, nil); err != nil {
				v.report(Result{Op: OpList, ID: a.ID, Err: err})
			}
		}
		v.report(Result{Op: OpList})
	})
}

// BindCreate makes clicks on button open the create form.
func (v *View) BindCreate(button *dom.Element) {
	if button == nil {
		return
	}
	button.On(dom.EventClick, func(context.Context, *dom.Event) {
		if _, err := v.Create(); err != nil {
			v.report(Result{Op: OpCreate, Err: err})
		}
	})
}

// Add renders a and returns its article. With replace == nil the article
// goes right before the bottom anchor, or replaces the animal's current
// element if it is already shown. Otherwise it replaces replace in place.
func (v *View) Add(a animal.Animal, replace *dom.Element) (*dom.Element, error) {
	if !a.HasID() {
		return nil, errors.New("view: cannot render an animal without id")
	}

	c, ok := v.cards[a.ID]
	if !ok {
		c = &card{view: v}
	}
	if replace == nil && ok && v.doc.Contains(c.el) {
		replace = c.el
	}
	c.record = a.Clone()

	article := v.doc.Create("article").ID(a.DOMID()).Class("animal")
	article.Append(v.doc.Create("h2").Text(a.Name))
	for _, line := range a.Lines() {
		article.Append(v.doc.Create("p").Class("animal-"+line.Key).Text(line.Text))
	}
	edit := v.doc.Create("button").
		Attr("type", "button").
		Class("edit").
		Text("Edit").
		On(dom.EventClick, func(context.Context, *dom.Event) { c.startEdit() })
	remove := v.doc.Create("button").
		Attr("type", "button").
		Class("remove").
		Text("Remove").
		On(dom.EventClick, func(ctx context.Context, _ *dom.Event) { c.remove(ctx) })
	c.edit, c.removeBtn = edit.Handle(), remove.Handle()
	article.Append(edit).Append(remove)

	var (
		el  *dom.Element
		err error
	)
	if replace != nil {
		el, err = article.ReplaceChild(v.list, replace)
	} else {
		el, err = article.InsertBefore(v.list, v.bottom)
	}
	if err != nil {
		return nil, fmt.Errorf("view: attach %s: %w", a.DOMID(), err)
	}

	c.el = el
	c.form = nil
	v.cards[a.ID] = c
	return el, nil
}

// Create opens the create form before the bottom anchor. Only one create form
// is open at a time; a second call returns the open one.
func (v *View) Create() (*Form, error) {
	if v.create != nil && v.doc.Contains(v.create.Element) {
		return v.create, nil
	}

	f := v.newForm(CreateFormID, "new-animal", "Create New Animal", animal.FormValues{})
	f.builder.On(dom.EventSubmit, func(ctx context.Context, ev *dom.Event) {
		ev.PreventDefault()
		v.submitCreate(ctx, f)
	})
	if _, err := f.builder.InsertBefore(v.list, v.bottom); err != nil {
		return nil, fmt.Errorf("view: attach create form: %w", err)
	}
	v.create = f
	return f, nil
}

func (v *View) submitCreate(ctx context.Context, f *Form) {
	record := f.Values().Apply(animal.Animal{})
	eventloop.Go(detach(ctx), v.loop, func(ctx context.Context) (animal.Animal, error) {
		return v.api.Create(ctx, record)
	}, func(created animal.Animal, err error) {
		if err != nil {
			v.report(Result{Op: OpCreate, Err: err})
			return
		}
		if _, err := v.Add(created, nil); err != nil {
			v.report(Result{Op: OpCreate, ID: created.ID, Err: err})
			return
		}
		f.Element.Remove()
		if v.create == f {
			v.create = nil
		}
		v.report(Result{Op: OpCreate, ID: created.ID})
	})
}

// Card is a read-only snapshot of one rendered animal.
type Card struct {
	Animal  animal.Animal
	Element *dom.Element
	// Edit and Remove are the article's buttons; nil while editing.
	Edit   *dom.Element
	Remove *dom.Element
	// Form is the open edit form, if any.
	Form *Form
}

// Cards lists the rendered animals in document order.
func (v *View) Cards() []Card {
	byElement := make(map[*dom.Element]*card, len(v.cards))
	for _, c := range v.cards {
		byElement[c.el] = c
	}
	var out []Card
	for _, child := range v.list.Children() {
		c, ok := byElement[child]
		if !ok {
			continue
		}
		out = append(out, c.snapshot())
	}
	return out
}

// CreateForm returns the open create form, or nil.
func (v *View) CreateForm() *Form {
	if v.create == nil || !v.doc.Contains(v.create.Element) {
		return nil
	}
	return v.create
}

func (v *View) forget(id int64) {
	delete(v.cards, id)
}

// detach keeps ctx values but drops cancellation: issued requests are never
// cancelled by the view.
func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
