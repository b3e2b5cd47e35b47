// Package animal defines the resource record exchanged with the REST API
// and the conversions between records, display lines and form values.
package animal

import (
	"strconv"
	"strings"
)

// DOMPrefix prefixes the element id of every rendered animal.
const DOMPrefix = "animal-"

// Animal is the resource record. ID is assigned by the server and stays zero
// (and absent from JSON) until the record has been created.
type Animal struct {
	ID        int64    `json:"id,omitempty"`
	Name      string   `json:"name"`
	Age       *float64 `json:"age,omitempty"`
	IsMammal  bool     `json:"isMammal"`
	Birthdate *Date    `json:"birthdate,omitempty"`
}

// HasID reports whether the server assigned an id.
func (a Animal) HasID() bool {
	return a.ID != 0
}

// DOMID returns the element id used for the animal's projection.
func (a Animal) DOMID() string {
	return DOMID(a.ID)
}

// DOMID maps a record id to its element id.
func DOMID(id int64) string {
	return DOMPrefix + strconv.FormatInt(id, 10)
}

// ParseDOMID reverses DOMID.
func ParseDOMID(domID string) (int64, bool) {
	raw, ok := strings.CutPrefix(domID, DOMPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Clone returns a deep copy so callers can edit without touching the
// original.
func (a Animal) Clone() Animal {
	out := a
	if a.Age != nil {
		age := *a.Age
		out.Age = &age
	}
	if a.Birthdate != nil {
		d := *a.Birthdate
		out.Birthdate = &d
	}
	return out
}

// AgeOf is a helper for building records with an age.
func AgeOf(v float64) *float64 {
	return &v
}
