package animal

// Line is one labelled line of an animal's read-only projection.
type Line struct {
	Key  string
	Text string
}

// Lines returns the label-prefixed lines shown below the animal's name. The
// birthdate line is omitted when no birthdate is set.
func (a Animal) Lines() []Line {
	age := "unknown"
	if a.Age != nil {
		age = FormatAge(*a.Age)
	}
	mammal := "No"
	if a.IsMammal {
		mammal = "Yes"
	}
	lines := []Line{
		{Key: "age", Text: "Age: " + age},
		{Key: "isMammal", Text: "Mammal: " + mammal},
	}
	if a.Birthdate != nil {
		lines = append(lines, Line{Key: "birthdate", Text: "Birthdate: " + a.Birthdate.Display()})
	}
	return lines
}
