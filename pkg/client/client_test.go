package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-crudview/pkg/animal"
)

type recorded struct {
	method string
	path   string
	body   string
	ctype  string
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			body:   string(body),
			ctype:  r.Header.Get("Content-Type"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_ListKeepsServerOrder(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, `[{"id":2,"name":"B","isMammal":true},{"id":1,"name":"A","isMammal":false}]`)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []animal.Animal{{ID: 2, Name: "B", IsMammal: true}, {ID: 1, Name: "A"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if (*calls)[0].method != http.MethodGet || (*calls)[0].path != "/api/resources" {
		t.Fatalf("unexpected request %+v", (*calls)[0])
	}
}

func TestClient_CreateSendsNoID(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusCreated, `{"id":42,"name":"Rex","isMammal":true}`)
	c, err := New(srv.URL, WithResourcePath("animals"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	created, err := c.Create(context.Background(), animal.Animal{ID: 9, Name: "Rex", IsMammal: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 42 {
		t.Fatalf("expected server id 42, got %d", created.ID)
	}

	call := (*calls)[0]
	if call.method != http.MethodPost || call.path != "/animals" {
		t.Fatalf("unexpected request %+v", call)
	}
	if call.ctype != "application/json" {
		t.Fatalf("unexpected content type %q", call.ctype)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(call.body), &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := sent["id"]; ok {
		t.Fatalf("create body must not carry an id: %s", call.body)
	}
}

func TestClient_UpdateAndDeleteTargetItem(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusNoContent, "")
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := c.Update(context.Background(), animal.Animal{ID: 5, Name: "Tom"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := c.Delete(context.Background(), 5); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got := []string{(*calls)[0].method + " " + (*calls)[0].path, (*calls)[1].method + " " + (*calls)[1].path}
	if diff := cmp.Diff([]string{"PUT /api/resources/5", "DELETE /api/resources/5"}, got); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains((*calls)[0].body, `"id":5`) {
		t.Fatalf("update must send the full record, got %s", (*calls)[0].body)
	}
}

func TestClient_NonSuccessIsStatusError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `{}`)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	err = c.Delete(context.Background(), 1)
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	srv.Close()

	if _, err := c.List(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	if _, err := New("/api"); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}
