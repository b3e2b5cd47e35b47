package animal

import (
	"math"
	"strconv"
	"strings"
)

// Input types used by the edit and create forms.
const (
	InputText     = "text"
	InputNumber   = "number"
	InputCheckbox = "checkbox"
	InputDate     = "date"
)

// Field describes one editable attribute of an animal.
type Field struct {
	Key       string
	Label     string
	InputType string
}

// Fields lists the editable attributes in form order.
var Fields = []Field{
	{Key: "name", Label: "Name", InputType: InputText},
	{Key: "age", Label: "Age", InputType: InputNumber},
	{Key: "isMammal", Label: "Is Mammal", InputType: InputCheckbox},
	{Key: "birthdate", Label: "Birthdate", InputType: InputDate},
}

// FormValues holds the raw control values of an edit or create form.
type FormValues struct {
	Name      string
	Age       string
	IsMammal  bool
	Birthdate string
}

// FormValues returns the values an edit form is pre-populated with.
func (a Animal) FormValues() FormValues {
	v := FormValues{
		Name:     a.Name,
		IsMammal: a.IsMammal,
	}
	if a.Age != nil {
		v.Age = FormatAge(*a.Age)
	}
	if a.Birthdate != nil {
		v.Birthdate = a.Birthdate.String()
	}
	return v
}

// Apply copies the form values onto a clone of base. Empty or unparseable
// optional values become absent; no other validation happens here.
func (v FormValues) Apply(base Animal) Animal {
	out := base.Clone()
	out.Name = v.Name
	out.IsMammal = v.IsMammal
	out.Age = parseAge(v.Age)
	out.Birthdate = nil
	if raw := strings.TrimSpace(v.Birthdate); raw != "" {
		if d, err := ParseDate(raw); err == nil {
			out.Birthdate = &d
		}
	}
	return out
}

// Get returns the raw value for a field key; checkboxes report "true" or "".
func (v FormValues) Get(key string) string {
	switch key {
	case "name":
		return v.Name
	case "age":
		return v.Age
	case "isMammal":
		if v.IsMammal {
			return "true"
		}
		return ""
	case "birthdate":
		return v.Birthdate
	}
	return ""
}

// Set stores a raw value for a field key; checkbox values are parsed with
// strconv.ParseBool.
func (v *FormValues) Set(key, value string) {
	switch key {
	case "name":
		v.Name = value
	case "age":
		v.Age = value
	case "isMammal":
		b, _ := strconv.ParseBool(value)
		v.IsMammal = b
	case "birthdate":
		v.Birthdate = value
	}
}

// FormatAge renders an age without a trailing ".0".
func FormatAge(age float64) string {
	return strconv.FormatFloat(age, 'f', -1, 64)
}

func parseAge(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
