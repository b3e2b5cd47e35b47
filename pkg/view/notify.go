package view

import (
	"fmt"
	"log"
)

// Op names the operation a Result reports on.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Result is the outcome of one asynchronous operation. ID is zero for list
// and for creates that failed before the server assigned one.
type Result struct {
	Op  Op
	ID  int64
	Err error
}

func (r Result) String() string {
	subject := string(r.Op)
	if r.ID != 0 {
		subject = fmt.Sprintf("%s %d", r.Op, r.ID)
	}
	if r.Err != nil {
		return subject + " failed: " + r.Err.Error()
	}
	return subject + " ok"
}

// Notifier is told about every async outcome, after the document has been
// updated.
type Notifier interface {
	Notify(Result)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Result)

func (f NotifierFunc) Notify(r Result) {
	f(r)
}

// LogNotifier writes every outcome to logger.
func LogNotifier(logger *log.Logger) Notifier {
	return NotifierFunc(func(r Result) {
		if logger != nil {
			logger.Printf("crudview: %s", r)
		}
	})
}

func (v *View) report(r Result) {
	if r.Err != nil {
		v.logger.Printf("crudview: %s", r)
	}
	for _, n := range v.notifiers {
		n.Notify(r)
	}
}
