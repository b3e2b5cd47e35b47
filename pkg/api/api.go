// Package api embeds the OpenAPI contract of the animal REST API and
// validates requests and responses against it.
package api

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// BasePath is the collection path the contract is written against.
const BasePath = "/api/resources"

//go:embed openapi.yaml
var contract []byte

// Contract returns a copy of the embedded OpenAPI document.
func Contract() []byte {
	return bytes.Clone(contract)
}

// Load parses and validates the embedded contract.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(contract)
	if err != nil {
		return nil, fmt.Errorf("api: load contract: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("api: contract does not contain any paths")
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("api: validate contract: %w", err)
	}
	return doc, nil
}

// Operation is one method/path pair declared by the contract.
type Operation struct {
	ID     string
	Method string
	Path   string
}

// Operations lists the contract's operations sorted by path then method.
func Operations(doc *openapi3.T) []Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			out = append(out, Operation{ID: op.OperationID, Method: method, Path: path})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// ErrNoRoute reports a request the contract does not describe.
var ErrNoRoute = errors.New("api: no matching operation")

// Validator checks traffic against the contract. Requests to a collection
// mounted somewhere other than BasePath are mapped onto it first.
type Validator struct {
	router routers.Router
	prefix string
	opts   *openapi3filter.Options
}

// NewValidator builds a validator for the collection mounted at
// resourcePath (BasePath when empty).
func NewValidator(doc *openapi3.T, resourcePath string) (*Validator, error) {
	if doc == nil {
		return nil, errors.New("api: contract is required")
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("api: build router: %w", err)
	}
	prefix := "/" + strings.Trim(strings.TrimSpace(resourcePath), "/")
	if prefix == "/" {
		prefix = BasePath
	}
	return &Validator{
		router: router,
		prefix: prefix,
		opts: &openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}, nil
}

// ValidateRequest validates r against the contract. The request body is
// left readable for the handler.
func (v *Validator) ValidateRequest(r *http.Request) error {
	input, err := v.requestInput(r)
	if err != nil {
		return err
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		return fmt.Errorf("api: %s %s: %w", r.Method, r.URL.Path, err)
	}
	return nil
}

// ValidateResponse validates a response produced for r.
func (v *Validator) ValidateResponse(r *http.Request, status int, header http.Header, body []byte) error {
	input, err := v.requestInput(r)
	if err != nil {
		return err
	}
	out := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: input,
		Status:                 status,
		Header:                 header,
		Options:                &openapi3filter.Options{IncludeResponseStatus: true, MultiError: true},
	}
	out.SetBodyBytes(body)
	if err := openapi3filter.ValidateResponse(r.Context(), out); err != nil {
		return fmt.Errorf("api: response to %s %s: %w", r.Method, r.URL.Path, err)
	}
	return nil
}

func (v *Validator) requestInput(r *http.Request) (*openapi3filter.RequestValidationInput, error) {
	path, ok := v.contractPath(r.URL.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoRoute, r.Method, r.URL.Path)
	}

	mapped := r.Clone(r.Context())
	mapped.URL.Path = path
	mapped.URL.RawPath = ""
	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("api: read body: %w", err)
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		mapped.Body = io.NopCloser(bytes.NewReader(body))
	}

	route, params, err := v.router.FindRoute(mapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNoRoute, r.Method, r.URL.Path, err)
	}
	return &openapi3filter.RequestValidationInput{
		Request:    mapped,
		PathParams: params,
		Route:      route,
		Options:    v.opts,
	}, nil
}

func (v *Validator) contractPath(p string) (string, bool) {
	rest, ok := strings.CutPrefix(p, v.prefix)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return "", false
	}
	return BasePath + strings.TrimSuffix(rest, "/"), true
}
