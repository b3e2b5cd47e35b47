package view

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudview/pkg/animal"
	"github.com/goliatone/go-crudview/pkg/client"
	"github.com/goliatone/go-crudview/pkg/dom"
	"github.com/goliatone/go-crudview/pkg/eventloop"
)

type fakeAPI struct {
	mu        sync.Mutex
	animals   []animal.Animal
	nextID    int64
	created   []animal.Animal
	updated   []animal.Animal
	deleted   []int64
	deleteErr error
	updateErr error
	createErr error
}

func (f *fakeAPI) List(context.Context) ([]animal.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]animal.Animal, len(f.animals))
	for i, a := range f.animals {
		out[i] = a.Clone()
	}
	return out, nil
}

func (f *fakeAPI) Create(_ context.Context, a animal.Animal) (animal.Animal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, a.Clone())
	if f.createErr != nil {
		return animal.Animal{}, f.createErr
	}
	a.ID = f.nextID
	return a, nil
}

func (f *fakeAPI) Update(_ context.Context, a animal.Animal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, a.Clone())
	return f.updateErr
}

func (f *fakeAPI) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

type fixture struct {
	doc     *dom.Document
	loop    *eventloop.Loop
	view    *View
	api     *fakeAPI
	results []Result
}

func newFixture(t *testing.T, api *fakeAPI) *fixture {
	t.Helper()
	doc, err := dom.Parse(strings.NewReader(`<main><div id="bottom"></div></main>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fx := &fixture{doc: doc, loop: eventloop.New(16), api: api}
	v, err := New(doc, fx.loop, api, doc.First("main"), doc.ByID("bottom"),
		WithNotifier(NotifierFunc(func(r Result) { fx.results = append(fx.results, r) })))
	if err != nil {
		t.Fatalf("new view: %v", err)
	}
	fx.view = v
	return fx
}

func (fx *fixture) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := fx.loop.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func (fx *fixture) click(el *dom.Element) {
	fx.doc.Dispatch(context.Background(), el, dom.EventClick)
}

func (fx *fixture) ids() []string {
	var out []string
	for _, child := range fx.doc.First("main").Children() {
		out = append(out, child.ID())
	}
	return out
}

func rex() animal.Animal {
	d := animal.NewDate(2019, time.March, 4)
	return animal.Animal{ID: 1, Name: "Rex", Age: animal.AgeOf(4), IsMammal: true, Birthdate: &d}
}

func TestNew_RequiresBottomInsideList(t *testing.T) {
	doc := dom.New()
	bottom, err := doc.Create("div").AppendTo(doc.Body())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	list, err := doc.Create("main").AppendTo(doc.Body())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := New(doc, eventloop.New(1), &fakeAPI{}, list, bottom); err == nil {
		t.Fatalf("expected error when bottom is outside the list")
	}
}

func TestBootstrap_RendersInServerOrder(t *testing.T) {
	api := &fakeAPI{animals: []animal.Animal{
		{ID: 3, Name: "Tom"},
		rex(),
	}}
	fx := newFixture(t, api)

	fx.view.Bootstrap(context.Background())
	fx.settle(t)

	if diff := cmp.Diff([]string{"animal-3", "animal-1", "bottom"}, fx.ids()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	article := fx.doc.ByID("animal-1")
	for _, want := range []string{"Rex", "Age: 4", "Mammal: Yes", "Birthdate: Mon Mar 04 2019"} {
		if !strings.Contains(article.Text(), want) {
			t.Fatalf("article text %q missing %q", article.Text(), want)
		}
	}
	if !strings.Contains(fx.doc.ByID("animal-3").Text(), "Age: unknown") {
		t.Fatalf("expected unknown age for Tom")
	}
	if fx.results[len(fx.results)-1] != (Result{Op: OpList}) {
		t.Fatalf("expected list result, got %+v", fx.results)
	}
}

func TestBootstrap_SkipsRecordWithoutID(t *testing.T) {
	api := &fakeAPI{animals: []animal.Animal{
		rex(),
		{Name: "Nameless"},
		{ID: 3, Name: "Tom"},
	}}
	fx := newFixture(t, api)

	fx.view.Bootstrap(context.Background())
	fx.settle(t)

	if diff := cmp.Diff([]string{"animal-1", "animal-3", "bottom"}, fx.ids()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if len(fx.results) != 2 {
		t.Fatalf("expected two results, got %+v", fx.results)
	}
	if got := fx.results[0]; got.Op != OpList || got.ID != 0 || got.Err == nil {
		t.Fatalf("expected list failure for record without id, got %+v", got)
	}
	if fx.results[1] != (Result{Op: OpList}) {
		t.Fatalf("expected final list result, got %+v", fx.results[1])
	}
}

func TestAdd_KeepsDOMIDsUnique(t *testing.T) {
	fx := newFixture(t, &fakeAPI{})

	if _, err := fx.view.Add(rex(), nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	renamed := rex()
	renamed.Name = "Rexy"
	if _, err := fx.view.Add(renamed, nil); err != nil {
		t.Fatalf("re-add: %v", err)
	}

	if diff := cmp.Diff([]string{"animal-1", "bottom"}, fx.ids()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(fx.doc.ByID("animal-1").Text(), "Rexy") {
		t.Fatalf("expected the second render to win")
	}
}

func TestAdd_EscapesName(t *testing.T) {
	fx := newFixture(t, &fakeAPI{})
	a := animal.Animal{ID: 7, Name: `<img src=x onerror="alert(1)">`}

	if _, err := fx.view.Add(a, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if fx.doc.First("img") != nil {
		t.Fatalf("name must render as text, got %s", fx.doc.String())
	}
	if !strings.Contains(fx.doc.String(), "&lt;img") {
		t.Fatalf("expected escaped name in %s", fx.doc.String())
	}
}

func TestEdit_SaveRoundTripsUnchangedRecord(t *testing.T) {
	api := &fakeAPI{}
	fx := newFixture(t, api)
	orig := rex()
	if _, err := fx.view.Add(orig, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	fx.click(fx.view.Cards()[0].Edit)
	card := fx.view.Cards()[0]
	if card.Form == nil || card.Form.Element.Tag() != "form" || card.Form.Element.ID() != "animal-1" {
		t.Fatalf("expected edit form in place, got %+v", card)
	}
	if got := card.Form.Inputs["birthdate"].Value(); got != "2019-03-04" {
		t.Fatalf("unexpected birthdate input %q", got)
	}

	fx.click(card.Form.Submit)
	fx.settle(t)

	if fx.doc.Navigations() != 0 {
		t.Fatalf("save must not navigate")
	}
	if len(api.updated) != 1 {
		t.Fatalf("expected one PUT, got %d", len(api.updated))
	}
	if diff := cmp.Diff(orig, api.updated[0]); diff != "" {
		t.Fatalf("PUT body mismatch (-want +got):\n%s", diff)
	}
	if el := fx.doc.ByID("animal-1"); el == nil || el.Tag() != "article" {
		t.Fatalf("expected article to be restored, got %v", el)
	}
}

func TestEdit_RepeatedIdenticalEditsAreIdempotent(t *testing.T) {
	api := &fakeAPI{}
	fx := newFixture(t, api)
	if _, err := fx.view.Add(rex(), nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	var renders []string
	for i := 0; i < 2; i++ {
		fx.click(fx.view.Cards()[0].Edit)
		form := fx.view.Cards()[0].Form
		form.Set("name", "Max")
		form.Set("age", "5")
		form.Set("isMammal", "false")
		fx.click(form.Submit)
		fx.settle(t)
		renders = append(renders, fx.doc.ByID("animal-1").HTML())
	}

	if renders[0] != renders[1] {
		t.Fatalf("renders differ:\n%s\n%s", renders[0], renders[1])
	}
	if diff := cmp.Diff(api.updated[0], api.updated[1]); diff != "" {
		t.Fatalf("PUT bodies differ (-first +second):\n%s", diff)
	}
	want := rex()
	want.Name, want.Age, want.IsMammal = "Max", animal.AgeOf(5), false
	if diff := cmp.Diff(want, fx.view.Cards()[0].Animal); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"animal-1", "bottom"}, fx.ids()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestEdit_FailedUpdateKeepsForm(t *testing.T) {
	api := &fakeAPI{updateErr: errors.New("boom")}
	fx := newFixture(t, api)
	if _, err := fx.view.Add(rex(), nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	fx.click(fx.view.Cards()[0].Edit)
	fx.click(fx.view.Cards()[0].Form.Submit)
	fx.settle(t)

	if el := fx.doc.ByID("animal-1"); el == nil || el.Tag() != "form" {
		t.Fatalf("expected form to stay after failed update")
	}
	last := fx.results[len(fx.results)-1]
	if last.Op != OpUpdate || last.ID != 1 || last.Err == nil {
		t.Fatalf("expected failed update result, got %+v", last)
	}
}

func TestRemove_FailedDeleteKeepsElement(t *testing.T) {
	api := &fakeAPI{deleteErr: errors.New("gone fishing")}
	fx := newFixture(t, api)
	if _, err := fx.view.Add(rex(), nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	fx.click(fx.view.Cards()[0].Remove)
	fx.settle(t)

	if fx.doc.ByID("animal-1") == nil {
		t.Fatalf("element must stay after a failed delete")
	}
	if diff := cmp.Diff([]int64{1}, api.deleted); diff != "" {
		t.Fatalf("deletes mismatch (-want +got):\n%s", diff)
	}
}

func TestRemove_SuccessDetachesElement(t *testing.T) {
	api := &fakeAPI{}
	fx := newFixture(t, api)
	if _, err := fx.view.Add(rex(), nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	fx.click(fx.view.Cards()[0].Remove)
	fx.settle(t)

	if fx.doc.ByID("animal-1") != nil || len(fx.view.Cards()) != 0 {
		t.Fatalf("expected animal to be removed")
	}
}

func TestCreate_PostsWithoutIDAndRendersOnce(t *testing.T) {
	api := &fakeAPI{nextID: 42}
	fx := newFixture(t, api)

	form, err := fx.view.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	again, err := fx.view.Create()
	if err != nil || again != form {
		t.Fatalf("expected the open create form to be reused")
	}
	form.Set("name", "Dolly")
	form.Set("age", "2")
	form.Set("isMammal", "true")
	form.Set("birthdate", "2020-01-15")

	fx.click(form.Submit)
	fx.settle(t)

	if fx.doc.Navigations() != 0 {
		t.Fatalf("create must not navigate")
	}
	if len(api.created) != 1 || api.created[0].HasID() {
		t.Fatalf("expected one POST without id, got %+v", api.created)
	}
	if diff := cmp.Diff([]string{"animal-42", "bottom"}, fx.ids()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if fx.view.CreateForm() != nil {
		t.Fatalf("create form should close after success")
	}
}

func TestCreate_FailureKeepsForm(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("nope")}
	fx := newFixture(t, api)

	form, err := fx.view.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	form.Set("name", "Ghost")
	fx.click(form.Submit)
	fx.settle(t)

	if fx.doc.ByID(CreateFormID) == nil {
		t.Fatalf("form must stay after a failed create")
	}
	if got := fx.results[len(fx.results)-1]; got.Op != OpCreate || got.Err == nil {
		t.Fatalf("expected failed create result, got %+v", got)
	}
}

func TestForm_SetDispatchesInput(t *testing.T) {
	fx := newFixture(t, &fakeAPI{})
	form, err := fx.view.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var changed []string
	for _, key := range []string{"name", "isMammal"} {
		form.Inputs[key].On(dom.EventInput, func(context.Context, *dom.Event) {
			changed = append(changed, key)
		})
	}

	form.Set("name", "Dolly")
	form.Set("isMammal", "true")
	if form.Set("wings", "2") {
		t.Fatalf("unknown field must not be set")
	}

	if diff := cmp.Diff([]string{"name", "isMammal"}, changed); diff != "" {
		t.Fatalf("input events mismatch (-want +got):\n%s", diff)
	}
	if got := form.Values(); got.Name != "Dolly" || !got.IsMammal {
		t.Fatalf("unexpected values %+v", got)
	}
}

func TestLogNotifier_WritesEveryOutcome(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier(log.New(&buf, "", 0))

	n.Notify(Result{Op: OpList})
	n.Notify(Result{Op: OpDelete, ID: 7, Err: errors.New("gone")})

	want := "crudview: list ok\ncrudview: delete 7 failed: gone\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("log mismatch (-want +got):\n%s", diff)
	}
}

func TestBindCreate_OpensFormBeforeBottom(t *testing.T) {
	fx := newFixture(t, &fakeAPI{})
	button, err := fx.doc.Create("button").Attr("type", "button").AppendTo(fx.doc.Body())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	fx.view.BindCreate(button)

	fx.click(button)
	fx.click(button)

	if diff := cmp.Diff([]string{CreateFormID, "bottom"}, fx.ids()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestView_AgainstHTTPClient(t *testing.T) {
	var (
		mu   sync.Mutex
		puts []animal.Animal
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `[{"id":1,"name":"Rex","age":4,"isMammal":true,"birthdate":"2019-03-04"}]`)
		case http.MethodPut:
			var a animal.Animal
			if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			mu.Lock()
			puts = append(puts, a)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	doc, err := dom.Parse(strings.NewReader(`<main><div id="bottom"></div></main>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	loop := eventloop.New(8)
	v, err := New(doc, loop, c, doc.First("main"), doc.ByID("bottom"))
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	fx := &fixture{doc: doc, loop: loop, view: v}

	v.Bootstrap(context.Background())
	fx.settle(t)
	fx.click(v.Cards()[0].Edit)
	fx.click(v.Cards()[0].Form.Submit)
	fx.settle(t)

	mu.Lock()
	defer mu.Unlock()
	if len(puts) != 1 {
		t.Fatalf("expected one PUT, got %d", len(puts))
	}
	if diff := cmp.Diff(rex(), puts[0]); diff != "" {
		t.Fatalf("PUT mismatch (-want +got):\n%s", diff)
	}
}
