// Package tui drives a view from the terminal. Every action is performed the
// way a browser user would: clicking buttons and typing into form controls of
// the document, after which the session waits for the event loop to settle.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-crudview/pkg/animal"
	"github.com/goliatone/go-crudview/pkg/dom"
	"github.com/goliatone/go-crudview/pkg/eventloop"
	"github.com/goliatone/go-crudview/pkg/view"
)

// Menu entries in display order.
const (
	ActionList = iota
	ActionCreate
	ActionEdit
	ActionDelete
	ActionQuit
)

var menu = []string{
	ActionList:   "List animals",
	ActionCreate: "Create animal",
	ActionEdit:   "Edit animal",
	ActionDelete: "Delete animal",
	ActionQuit:   "Quit",
}

// Option configures a Session.
type Option func(*Session)

// WithCreateButton makes the create action click button instead of calling
// view.Create directly.
func WithCreateButton(button *dom.Element) Option {
	return func(s *Session) {
		s.createButton = button
	}
}

// Session is an interactive loop over a view. It also implements
// view.Notifier so outcomes can be shown after each action.
type Session struct {
	driver       PromptDriver
	createButton *dom.Element
	results      []view.Result
}

var _ view.Notifier = (*Session)(nil)

// New builds a session prompting through driver.
func New(driver PromptDriver, options ...Option) (*Session, error) {
	if driver == nil {
		return nil, errors.New("tui: prompt driver is required")
	}
	s := &Session{driver: driver}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Notify records a view outcome; it runs on the loop goroutine, which is
// also the session's goroutine.
func (s *Session) Notify(r view.Result) {
	s.results = append(s.results, r)
}

// Run bootstraps v and serves menu actions until the user quits. The caller
// must not drain loop concurrently.
func (s *Session) Run(ctx context.Context, v *view.View, loop *eventloop.Loop) error {
	if v == nil || loop == nil {
		return errors.New("tui: view and loop are required")
	}
	v.Bootstrap(ctx)
	if err := s.settle(ctx, loop); err != nil {
		return err
	}
	if err := s.flush(ctx); err != nil {
		return err
	}
	if err := s.list(ctx, v); err != nil {
		return err
	}

	for {
		choice, err := s.driver.Select(ctx, SelectConfig{Message: "What next?", Options: menu})
		if err != nil {
			return err
		}
		switch choice {
		case ActionList:
			err = s.list(ctx, v)
		case ActionCreate:
			err = s.create(ctx, v, loop)
		case ActionEdit:
			err = s.edit(ctx, v, loop)
		case ActionDelete:
			err = s.remove(ctx, v, loop)
		case ActionQuit:
			return nil
		default:
			err = s.driver.Info(ctx, "unknown choice")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) list(ctx context.Context, v *view.View) error {
	cards := v.Cards()
	if len(cards) == 0 {
		return s.driver.Info(ctx, "No animals yet.")
	}
	for _, c := range cards {
		if err := s.driver.Info(ctx, describe(c.Animal)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) create(ctx context.Context, v *view.View, loop *eventloop.Loop) error {
	if s.createButton != nil {
		v.Document().Dispatch(ctx, s.createButton, dom.EventClick)
	} else if _, err := v.Create(); err != nil {
		return s.driver.Info(ctx, err.Error())
	}
	form := v.CreateForm()
	if form == nil {
		return s.driver.Info(ctx, "create form did not open")
	}
	if err := s.fill(ctx, form); err != nil {
		return err
	}
	return s.submit(ctx, v, loop, form)
}

func (s *Session) edit(ctx context.Context, v *view.View, loop *eventloop.Loop) error {
	card, ok, err := s.pick(ctx, v, "Edit which animal?")
	if err != nil || !ok {
		return err
	}
	if card.Form == nil {
		v.Document().Dispatch(ctx, card.Edit, dom.EventClick)
	}
	form := s.formFor(v, card.Animal.ID)
	if form == nil {
		return s.driver.Info(ctx, "edit form did not open")
	}
	if err := s.fill(ctx, form); err != nil {
		return err
	}
	return s.submit(ctx, v, loop, form)
}

func (s *Session) remove(ctx context.Context, v *view.View, loop *eventloop.Loop) error {
	card, ok, err := s.pick(ctx, v, "Delete which animal?")
	if err != nil || !ok {
		return err
	}
	if card.Remove == nil {
		return s.driver.Info(ctx, "finish editing "+card.Animal.Name+" first")
	}
	sure, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Delete " + card.Animal.Name + "?"})
	if err != nil || !sure {
		return err
	}
	v.Document().Dispatch(ctx, card.Remove, dom.EventClick)
	if err := s.settle(ctx, loop); err != nil {
		return err
	}
	return s.flush(ctx)
}

func (s *Session) pick(ctx context.Context, v *view.View, message string) (view.Card, bool, error) {
	cards := v.Cards()
	if len(cards) == 0 {
		return view.Card{}, false, s.driver.Info(ctx, "No animals yet.")
	}
	options := make([]string, len(cards))
	for i, c := range cards {
		options[i] = fmt.Sprintf("%s (#%d)", c.Animal.Name, c.Animal.ID)
	}
	idx, err := s.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return view.Card{}, false, err
	}
	if idx < 0 || idx >= len(cards) {
		return view.Card{}, false, nil
	}
	return cards[idx], true, nil
}

func (s *Session) formFor(v *view.View, id int64) *view.Form {
	for _, c := range v.Cards() {
		if c.Animal.ID == id {
			return c.Form
		}
	}
	return nil
}

// fill prompts for every field, defaulting to the control's current value.
func (s *Session) fill(ctx context.Context, form *view.Form) error {
	current := form.Values()
	for _, field := range animal.Fields {
		if field.InputType == animal.InputCheckbox {
			checked, err := s.driver.Confirm(ctx, ConfirmConfig{Message: field.Label + "?", Default: current.IsMammal})
			if err != nil {
				return err
			}
			form.Set(field.Key, fmt.Sprint(checked))
			continue
		}
		cfg := InputConfig{Message: field.Label + ":", Default: current.Get(field.Key)}
		if field.InputType == animal.InputDate {
			cfg.Help = "YYYY-MM-DD, empty for none"
		}
		value, err := s.driver.Input(ctx, cfg)
		if err != nil {
			return err
		}
		form.Set(field.Key, strings.TrimSpace(value))
	}
	return nil
}

func (s *Session) submit(ctx context.Context, v *view.View, loop *eventloop.Loop, form *view.Form) error {
	v.Document().Dispatch(ctx, form.Submit, dom.EventClick)
	if err := s.settle(ctx, loop); err != nil {
		return err
	}
	return s.flush(ctx)
}

func (s *Session) settle(ctx context.Context, loop *eventloop.Loop) error {
	if err := loop.Settle(ctx); err != nil {
		return fmt.Errorf("tui: wait for requests: %w", err)
	}
	return nil
}

// flush prints the outcomes collected since the last action.
func (s *Session) flush(ctx context.Context) error {
	results := s.results
	s.results = nil
	for _, r := range results {
		if err := s.driver.Info(ctx, r.String()); err != nil {
			return err
		}
	}
	return nil
}

func describe(a animal.Animal) string {
	parts := []string{fmt.Sprintf("#%d %s", a.ID, a.Name)}
	for _, line := range a.Lines() {
		parts = append(parts, line.Text)
	}
	return strings.Join(parts, " | ")
}
