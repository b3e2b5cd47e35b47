package view

import (
	"context"
	"fmt"

	"github.com/goliatone/go-crudview/pkg/animal"
	"github.com/goliatone/go-crudview/pkg/dom"
	"github.com/goliatone/go-crudview/pkg/eventloop"
)

// card tracks one animal and whichever element currently shows it: the
// article, or the edit form that replaced it.
type card struct {
	view   *View
	record animal.Animal
	el     *dom.Element

	edit      *dom.Element
	removeBtn *dom.Element
	form      *Form
	removing  bool
}

func (c *card) startEdit() {
	v := c.view
	if c.form != nil && v.doc.Contains(c.form.Element) {
		return
	}
	id := c.record.DOMID()
	f := v.newForm(id, id, "Edit "+c.record.Name, c.record.FormValues())
	f.builder.On(dom.EventSubmit, func(ctx context.Context, ev *dom.Event) {
		ev.PreventDefault()
		c.submitEdit(ctx, f)
	})
	if _, err := f.builder.ReplaceChild(v.list, c.el); err != nil {
		v.report(Result{Op: OpUpdate, ID: c.record.ID, Err: fmt.Errorf("view: open edit form: %w", err)})
		return
	}
	c.el = f.Element
	c.form = f
}

func (c *card) submitEdit(ctx context.Context, f *Form) {
	v := c.view
	updated := f.Values().Apply(c.record)
	eventloop.Go(detach(ctx), v.loop, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, v.api.Update(ctx, updated)
	}, func(_ struct{}, err error) {
		if err != nil {
			v.report(Result{Op: OpUpdate, ID: updated.ID, Err: err})
			return
		}
		if !v.doc.Contains(f.Element) {
			// The form went away while the request was in flight.
			c.record = updated.Clone()
			v.report(Result{Op: OpUpdate, ID: updated.ID})
			return
		}
		if _, err := v.Add(updated, f.Element); err != nil {
			v.report(Result{Op: OpUpdate, ID: updated.ID, Err: err})
			return
		}
		v.report(Result{Op: OpUpdate, ID: updated.ID})
	})
}

func (c *card) remove(ctx context.Context) {
	if c.removing {
		return
	}
	c.removing = true
	v := c.view
	id := c.record.ID
	eventloop.Go(detach(ctx), v.loop, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, v.api.Delete(ctx, id)
	}, func(_ struct{}, err error) {
		c.removing = false
		if err != nil {
			v.report(Result{Op: OpDelete, ID: id, Err: err})
			return
		}
		c.el.Remove()
		v.forget(id)
		v.report(Result{Op: OpDelete, ID: id})
	})
}

func (c *card) snapshot() Card {
	out := Card{
		Animal:  c.record.Clone(),
		Element: c.el,
		Form:    c.form,
	}
	if c.form == nil {
		out.Edit = c.edit
		out.Remove = c.removeBtn
	}
	return out
}
