package view

import (
	"context"
	"strconv"

	"github.com/goliatone/go-crudview/pkg/animal"
	"github.com/goliatone/go-crudview/pkg/dom"
)

// Form is an open edit or create form.
type Form struct {
	Element *dom.Element
	// Inputs maps field keys (see animal.Fields) to their controls.
	Inputs map[string]*dom.Element
	Submit *dom.Element

	builder *dom.Builder
}

// Values reads the current control values.
func (f *Form) Values() animal.FormValues {
	var out animal.FormValues
	for key, input := range f.Inputs {
		if t, _ := input.Attr("type"); t == animal.InputCheckbox {
			out.Set(key, strconv.FormatBool(input.Checked()))
			continue
		}
		out.Set(key, input.Value())
	}
	return out
}

// Set writes a raw value into the control for key and dispatches an input
// event on it. Checkbox controls take a strconv.ParseBool value.
func (f *Form) Set(key, value string) bool {
	input, ok := f.Inputs[key]
	if !ok {
		return false
	}
	if t, _ := input.Attr("type"); t == animal.InputCheckbox {
		checked, _ := strconv.ParseBool(value)
		input.SetChecked(checked)
	} else {
		input.SetValue(value)
	}
	input.Document().Dispatch(context.Background(), input, dom.EventInput)
	return true
}

// newForm builds a detached form. Control ids are prefix-<key> and each
// label points at its control.
func (v *View) newForm(id, prefix, heading string, values animal.FormValues) *Form {
	f := &Form{Inputs: make(map[string]*dom.Element, len(animal.Fields))}

	b := v.doc.Create("form").ID(id).Class("animal-form")
	b.Append(v.doc.Create("h3").Text(heading))
	for _, field := range animal.Fields {
		controlID := prefix + "-" + field.Key
		input := v.doc.Create("input").
			ID(controlID).
			Attr("name", field.Key).
			Attr("type", field.InputType)
		if field.InputType == animal.InputCheckbox {
			if values.IsMammal {
				input.Attr("checked", "")
			}
		} else {
			input.Attr("value", values.Get(field.Key))
		}
		if field.InputType == animal.InputNumber {
			input.Attr("step", "any")
		}
		f.Inputs[field.Key] = input.Handle()

		b.Append(v.doc.Create("p").
			Append(v.doc.Create("label").Attr("for", controlID).Text(field.Label + ": ")).
			Append(input))
	}

	label := "Save"
	if id == CreateFormID {
		label = "Create"
	}
	submit := v.doc.Create("button").Class("submit").Text(label)
	f.Submit = submit.Handle()
	b.Append(submit)

	f.builder = b
	f.Element = b.Handle()
	return f
}
