package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-pagekit"
	"github.com/goliatone/go-pagekit/internal/di"
	"github.com/goliatone/go-pagekit/internal/logging/console"
)

// moduleBuilder keeps console logs on stderr so stdout carries command output.
var moduleBuilder = func(cfg pagekit.Config) (*pagekit.Module, error) {
	var opts []di.Option
	if strings.EqualFold(strings.TrimSpace(cfg.Logging.Provider), "console") {
		level := console.ParseLevel(cfg.Logging.Level)
		opts = append(opts, di.WithLoggerProvider(console.NewProvider(console.Options{Writer: os.Stderr, MinLevel: &level})))
	}
	return pagekit.New(cfg, opts...)
}

const usage = `usage: pagekit <command> [flags]

commands:
  serve       serve the page API and rendered pages
  render      render a stored page to stdout or a file
  duplicate   create the next variant of a page
  index       list stored pages grouped by variant
  ingest      fetch pages from the content source and store them
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("pagekit: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("command required")
	}
	command, rest := args[0], args[1:]
	switch command {
	case "serve":
		return runServe(ctx, rest, out)
	case "render":
		return runRender(ctx, rest, out)
	case "duplicate":
		return runDuplicate(ctx, rest, out)
	case "index":
		return runIndex(ctx, rest, out)
	case "ingest":
		return runIngest(ctx, rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

type commonFlags struct {
	config  *string
	storage *string
	dir     *string
	dsn     *string
}

func bindCommon(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		config:  fs.String("config", "", "Path to a YAML config file"),
		storage: fs.String("storage", "", "Storage provider override (memory, file, bun)"),
		dir:     fs.String("dir", "", "Page directory for the file provider"),
		dsn:     fs.String("dsn", "", "Database DSN for the bun provider"),
	}
}

func (f commonFlags) module() (*pagekit.Module, error) {
	cfg := pagekit.DefaultConfig()
	if path := strings.TrimSpace(*f.config); path != "" {
		loaded, err := pagekit.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(*f.storage); v != "" {
		cfg.Storage.Provider = v
	}
	if v := strings.TrimSpace(*f.dir); v != "" {
		cfg.Storage.Dir = v
	}
	if v := strings.TrimSpace(*f.dsn); v != "" {
		cfg.Storage.DSN = v
		if *f.storage == "" {
			cfg.Storage.Provider = "bun"
		}
	}
	module, err := moduleBuilder(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	return module, nil
}

func runServe(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	common := bindCommon(fs)
	addr := fs.String("addr", "", "Listen address (defaults to http.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	module, err := common.module()
	if err != nil {
		return err
	}
	defer module.Close()

	listen := module.Container().Config.HTTP.Addr
	if strings.TrimSpace(*addr) != "" {
		listen = *addr
	}
	server := &http.Server{
		Addr:              listen,
		Handler:           module.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(out, "listening on %s\n", listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	common := bindCommon(fs)
	output := fs.String("out", "", "Write HTML to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	slug := fs.Arg(0)
	if slug == "" {
		return errors.New("render: slug is required")
	}
	module, err := common.module()
	if err != nil {
		return err
	}
	defer module.Close()

	rendered, err := module.Render(ctx, slug)
	if err != nil {
		return err
	}
	for _, diagnostic := range rendered.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", diagnostic)
	}
	if path := strings.TrimSpace(*output); path != "" {
		return os.WriteFile(path, rendered.HTML, 0o644)
	}
	_, err = out.Write(rendered.HTML)
	return err
}

func runDuplicate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("duplicate", flag.ContinueOnError)
	common := bindCommon(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	slug := fs.Arg(0)
	if slug == "" {
		return errors.New("duplicate: slug is required")
	}
	module, err := common.module()
	if err != nil {
		return err
	}
	defer module.Close()

	created, err := module.Duplicate(ctx, slug)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, created.Slug)
	return nil
}

func runIndex(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	common := bindCommon(fs)
	asJSON := fs.Bool("json", false, "Print variant groups as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	module, err := common.module()
	if err != nil {
		return err
	}
	defer module.Close()

	groups, err := module.Pages().VariantGroups(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(groups)
	}
	for _, group := range groups {
		if group.Base != nil {
			fmt.Fprintf(out, "%s\t%s\t%s\n", group.Base.Slug, group.Base.Status, group.Base.Title)
		} else {
			fmt.Fprintf(out, "%s\t(missing base)\n", group.BaseSlug)
		}
		for _, variant := range group.Variants {
			fmt.Fprintf(out, "  %s\t%s\t%s\n", variant.Slug, variant.Status, variant.Title)
		}
	}
	return nil
}

func runIngest(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	common := bindCommon(fs)
	endpoint := fs.String("endpoint", "", "GraphQL endpoint override")
	queryFile := fs.String("query-file", "", "File holding the GraphQL page query")
	sourceDir := fs.String("source-dir", "", "Directory of exported content-source responses")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("ingest: at least one slug is required")
	}
	module, err := common.module()
	if err != nil {
		return err
	}
	defer module.Close()

	cfg := &module.Container().Config.Source
	if v := strings.TrimSpace(*endpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(*sourceDir); v != "" {
		cfg.Dir = v
	}
	if v := strings.TrimSpace(*queryFile); v != "" {
		query, err := os.ReadFile(v)
		if err != nil {
			return fmt.Errorf("ingest: read query: %w", err)
		}
		cfg.Query = string(query)
	}

	for _, slug := range fs.Args() {
		doc, issues, err := module.Ingest(ctx, slug)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", slug, err)
		}
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "warning: %s %s: %s\n", slug, issue.Token, issue.Message)
		}
		fmt.Fprintf(out, "%s\tv%d\t%d sections\n", doc.Slug, doc.Version, len(doc.Sections))
	}
	return nil
}
