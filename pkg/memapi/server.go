// Package memapi is a reference implementation of the animal REST API, used
// by the serve command and by tests that want a real server.
package memapi

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/goliatone/go-crudview/pkg/animal"
	"github.com/goliatone/go-crudview/pkg/api"
)

// ContractPath serves the OpenAPI document the API is validated against.
const ContractPath = "/openapi.yaml"

// Option configures a Server.
type Option func(*Server)

// WithLogger routes request logs to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithResourcePath mounts the collection somewhere other than api.BasePath.
func WithResourcePath(path string) Option {
	return func(s *Server) {
		if p := strings.Trim(strings.TrimSpace(path), "/"); p != "" {
			s.path = "/" + p
		}
	}
}

// WithValidator rejects requests that do not match the contract.
func WithValidator(v *api.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

// WithIndex serves the result of render at "/".
func WithIndex(render func(ctx context.Context) (string, error)) Option {
	return func(s *Server) {
		s.index = render
	}
}

// Server serves a Store over HTTP. It implements http.Handler.
type Server struct {
	echo      *echo.Echo
	store     Store
	logger    *log.Logger
	path      string
	validator *api.Validator
	index     func(ctx context.Context) (string, error)
}

// New builds a server around store.
func New(store Store, options ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("memapi: store is required")
	}
	s := &Server{
		store:  store,
		logger: log.New(io.Discard, "", 0),
		path:   api.BasePath,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${method} ${uri} ${status} ${latency_human} ${error}\n",
		Output: s.logger.Writer(),
	}))
	if s.validator != nil {
		e.Use(s.validate)
	}

	e.GET(s.path, s.list)
	e.POST(s.path, s.create)
	e.PUT(s.path+"/:id", s.update)
	e.DELETE(s.path+"/:id", s.remove)
	e.GET(ContractPath, s.contract)
	if s.index != nil {
		e.GET("/", s.serveIndex)
	}
	s.echo = e
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Server) validate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := s.validator.ValidateRequest(c.Request())
		switch {
		case err == nil:
			return next(c)
		case errors.Is(err, api.ErrNoRoute):
			// Not part of the contract (the index page, unknown paths).
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
}

func (s *Server) list(c echo.Context) error {
	animals, err := s.store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, animals)
}

func (s *Server) create(c echo.Context) error {
	a, err := decode(c)
	if err != nil {
		return err
	}
	a.ID = 0
	created, err := s.store.Create(c.Request().Context(), a)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := decode(c)
	if err != nil {
		return err
	}
	a.ID = id
	if err := s.store.Update(c.Request().Context(), a); err != nil {
		return storeError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) remove(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.Delete(c.Request().Context(), id); err != nil {
		return storeError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) contract(c echo.Context) error {
	return c.Blob(http.StatusOK, "application/yaml", api.Contract())
}

func (s *Server) serveIndex(c echo.Context) error {
	page, err := s.index(c.Request().Context())
	if err != nil {
		return err
	}
	return c.HTML(http.StatusOK, page)
}

func decode(c echo.Context) (animal.Animal, error) {
	var a animal.Animal
	if err := json.NewDecoder(c.Request().Body).Decode(&a); err != nil {
		return animal.Animal{}, echo.NewHTTPError(http.StatusBadRequest, "can not understand the requested json")
	}
	return a, nil
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func storeError(err error, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "animal "+strconv.FormatInt(id, 10)+" not found")
	}
	return err
}
