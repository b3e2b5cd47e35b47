package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-crudview/internal/config"
	"github.com/goliatone/go-crudview/pkg/api"
	"github.com/goliatone/go-crudview/pkg/client"
	"github.com/goliatone/go-crudview/pkg/eventloop"
	"github.com/goliatone/go-crudview/pkg/memapi"
	"github.com/goliatone/go-crudview/pkg/page"
	"github.com/goliatone/go-crudview/pkg/tui"
	"github.com/goliatone/go-crudview/pkg/view"
)

const usage = `usage: crudview <snapshot|interactive|serve> [flags]

  snapshot     load the collection and print the rendered page
  interactive  edit the collection from the terminal
  serve        run the reference API; / serves a read-only snapshot of the
               page (its buttons do nothing in a browser) and the contract
               is published at /openapi.yaml
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	mode, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	apiURL := fs.String("api", "", "API base URL")
	resourcePath := fs.String("path", "", "collection path below the API base URL")
	timeout := fs.Duration("timeout", 0, "HTTP request timeout")
	themeName := fs.String("theme", "", "theme name")
	variant := fs.String("variant", "", "theme variant")
	title := fs.String("title", "", "page title")
	addr := fs.String("addr", "", "listen address (serve)")
	dbPath := fs.String("db", "", "bbolt database file (serve); memory when empty")
	output := fs.String("output", "", "output file (snapshot; stdout if empty)")
	verbose := fs.Bool("verbose", false, "log every request outcome, not just failures")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	override(&cfg.APIBaseURL, *apiURL)
	override(&cfg.ResourcePath, *resourcePath)
	override(&cfg.Theme, *themeName)
	override(&cfg.Variant, *variant)
	override(&cfg.Title, *title)
	override(&cfg.ListenAddr, *addr)
	override(&cfg.DBPath, *dbPath)
	if *timeout > 0 {
		cfg.RequestTimeout = *timeout
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch mode {
	case "snapshot":
		err = snapshot(ctx, cfg, *output, *verbose)
	case "interactive":
		err = interactive(ctx, cfg, *verbose)
	case "serve":
		err = serve(ctx, cfg, *verbose)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", mode, err)
	}
}

func override(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func pageOptions(cfg config.Config) page.Options {
	return page.Options{Title: cfg.Title, Theme: cfg.Theme, Variant: cfg.Variant}
}

func newClient(cfg config.Config) (*client.Client, error) {
	return client.New(cfg.APIBaseURL,
		client.WithResourcePath(cfg.ResourcePath),
		client.WithTimeout(cfg.RequestTimeout),
	)
}

func viewOptions(logger *log.Logger, verbose bool) []view.Option {
	opts := []view.Option{view.WithLogger(logger)}
	if verbose {
		opts = append(opts, view.WithNotifier(view.LogNotifier(logger)))
	}
	return opts
}

// render bootstraps a fresh page against backend and returns its HTML.
func render(ctx context.Context, cfg config.Config, backend view.API, logger *log.Logger, verbose bool) (string, error) {
	p, err := page.New(pageOptions(cfg))
	if err != nil {
		return "", err
	}
	loop := eventloop.New(0)
	defer loop.Close()
	v, err := view.New(p.Doc, loop, backend, p.List, p.Bottom, viewOptions(logger, verbose)...)
	if err != nil {
		return "", err
	}
	v.BindCreate(p.Create)
	v.Bootstrap(ctx)
	if err := loop.Settle(ctx); err != nil {
		return "", err
	}
	return p.Doc.String(), nil
}

func snapshot(ctx context.Context, cfg config.Config, output string, verbose bool) error {
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	html, err := render(ctx, cfg, c, log.Default(), verbose)
	if err != nil {
		return err
	}
	if output == "" {
		fmt.Println(html)
		return nil
	}
	if err := os.WriteFile(output, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Page written to %s\n", output)
	return nil
}

func interactive(ctx context.Context, cfg config.Config, verbose bool) error {
	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	p, err := page.New(pageOptions(cfg))
	if err != nil {
		return err
	}
	session, err := tui.New(tui.NewSurveyDriver(os.Stdout), tui.WithCreateButton(p.Create))
	if err != nil {
		return err
	}
	loop := eventloop.New(0)
	defer loop.Close()
	v, err := view.New(p.Doc, loop, c, p.List, p.Bottom,
		append(viewOptions(log.Default(), verbose), view.WithNotifier(session))...,
	)
	if err != nil {
		return err
	}
	v.BindCreate(p.Create)

	err = session.Run(ctx, v, loop)
	if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serve(ctx context.Context, cfg config.Config, verbose bool) error {
	var (
		store memapi.Store
		err   error
	)
	if cfg.DBPath != "" {
		store, err = memapi.OpenBolt(cfg.DBPath)
		if err != nil {
			return err
		}
	} else {
		store = memapi.NewMemoryStore()
	}

	doc, err := api.Load(ctx)
	if err != nil {
		return err
	}
	validator, err := api.NewValidator(doc, cfg.ResourcePath)
	if err != nil {
		return err
	}

	logger := log.Default()
	srv, err := memapi.New(store,
		memapi.WithLogger(logger),
		memapi.WithResourcePath(cfg.ResourcePath),
		memapi.WithValidator(validator),
		memapi.WithIndex(func(ctx context.Context) (string, error) {
			return render(ctx, cfg, store, logger, verbose)
		}),
	)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(graceful); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("serving %s on %s", cfg.ResourcePath, cfg.ListenAddr)
	return srv.Start(cfg.ListenAddr)
}
