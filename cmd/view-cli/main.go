package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-view/internal/ctxlog"
	"github.com/goliatone/go-view/pkg/config"
	"github.com/goliatone/go-view/pkg/render"
)

const noLayout = "(none)"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, surveyPicker{}); err != nil {
		log.Fatalf("view-cli: %v", err)
	}
}

// picker chooses one of options; the interactive mode is backed by survey.
type picker interface {
	Select(ctx context.Context, message string, options []string) (string, error)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, pick picker) error {
	flags := flag.NewFlagSet("view-cli", flag.ContinueOnError)
	flags.SetOutput(stderr)

	root := flags.String("root", "", "template root directory (overrides config)")
	page := flags.String("page", "", "page template to render")
	layout := flags.String("layout", "", "layout template wrapping the page")
	dataPath := flags.String("data", "", "JSON or YAML file with template data")
	configPath := flags.String("config", "", "config file (VIEW_CONFIG if empty)")
	output := flags.String("output", "", "output file (stdout if empty)")
	interactive := flags.Bool("interactive", false, "pick the page and layout from the templates under root")
	verbose := flags.Bool("v", false, "log render state transitions")
	if err := flags.Parse(args); err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	ctx = ctxlog.WithLogger(ctx, logger)

	opts, err := rendererOptions(*configPath, *root)
	if err != nil {
		return err
	}
	opts = append(opts, render.WithLogger(logger))

	renderer, err := render.New(opts...)
	if err != nil {
		return err
	}

	if *interactive {
		if *page, *layout, err = choose(ctx, renderer, pick); err != nil {
			return err
		}
	}
	if strings.TrimSpace(*page) == "" {
		return errors.New("a page is required (use -page or -interactive)")
	}

	data := map[string]any{}
	if *dataPath != "" {
		if data, err = config.LoadContextFile(*dataPath); err != nil {
			return err
		}
	}

	html, err := renderer.RenderString(ctx, *page, data, render.RenderOptions{Layout: *layout}).Await(ctx)
	if err != nil {
		return fmt.Errorf("render %s: %w", *page, err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(html), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(stderr, "Page written to %s\n", *output)
		return nil
	}
	_, err = fmt.Fprintln(stdout, html)
	return err
}

func rendererOptions(configPath, root string) ([]render.Option, error) {
	var opts []render.Option
	if configPath != "" || os.Getenv(config.EnvPrefix+"_CONFIG") != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		opts = cfg.RenderOptions()
	}
	if root != "" {
		opts = append(opts, render.WithRoot(root))
	} else if len(opts) == 0 {
		opts = append(opts, render.WithRoot("."))
	}
	return opts, nil
}

func choose(ctx context.Context, renderer *render.Renderer, pick picker) (string, string, error) {
	templates, err := renderer.Loader().Templates()
	if err != nil {
		return "", "", err
	}
	if len(templates) == 0 {
		return "", "", fmt.Errorf("no %s templates found", renderer.Loader().Extension())
	}

	page, err := pick.Select(ctx, "Page", templates)
	if err != nil {
		return "", "", err
	}
	layout, err := pick.Select(ctx, "Layout", append([]string{noLayout}, templates...))
	if err != nil {
		return "", "", err
	}
	if layout == noLayout {
		layout = ""
	}
	return page, layout, nil
}

type surveyPicker struct{}

func (surveyPicker) Select(ctx context.Context, message string, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 15,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", context.Canceled
		}
		return "", err
	}
	return out, nil
}
