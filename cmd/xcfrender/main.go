// Command xcfrender flattens XCF documents into images and game textures.
//
// With -i it renders a single document; otherwise it builds every texture
// variant listed in a TOML definition file:
//
//	source_dir = "src"
//	output_dir = "textures"
//	format     = "edds"
//
//	[textures.crate]
//	src = "crate"
//	[textures.crate.variants]
//	diffuse = ["Paint", "Rust"]
//	bump    = ["Height"]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/woozymasta/xcf"
	"github.com/woozymasta/xcf/cache"
)

func main() {
	var (
		configPath, variants, format, logLevel string
		input, output, layers                  string
		all, info, watch                       bool
	)

	flag.StringVar(&configPath, "config", "textures.toml", "Texture definition file (TOML)")
	flag.StringVar(&variants, "variants", "all", "Comma-separated variants to build")
	flag.StringVar(&format, "format", "", "Output format: png, jpeg, tiff, bmp or edds (overrides config)")
	flag.BoolVar(&watch, "watch", false, "Keep running and rebuild textures when sources change")
	flag.StringVar(&input, "i", "", "Render a single XCF file")
	flag.StringVar(&output, "o", "", "Output image for -i; the extension selects the format")
	flag.BoolVar(&all, "all", false, "With -i, render hidden layers too")
	flag.StringVar(&layers, "layers", "", "With -i, comma-separated layers to show besides Background")
	flag.BoolVar(&info, "info", false, "With -i, print the document structure instead of rendering")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	log, err := newLogger(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	xcf.SetLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if input != "" {
		err = runSingle(input, output, layers, all, info)
	} else {
		err = runConfig(ctx, log, configPath, variants, format, watch)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func runSingle(input, output, layers string, all, info bool) error {
	doc, err := xcf.Open(input)
	if err != nil {
		return err
	}
	if info {
		fmt.Println(doc)
		tree, err := doc.Tree()
		if err != nil {
			return err
		}
		tree.Walk(func(n *xcf.Node, depth int) {
			if n.Layer != nil {
				fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.Layer.Name)
			}
		})
		return nil
	}
	if output == "" {
		return errors.New("-o is required with -i")
	}

	opts := &xcf.FlattenOptions{IncludeHidden: all}
	if layers != "" && !all {
		show := visibleSet(strings.Split(layers, ","))
		opts.Visible = func(l *xcf.Layer) bool { return l.IsGroup || show(l.Name) }
	}
	img, err := doc.Flatten(opts)
	if err != nil {
		return err
	}
	return writeImage(output, img)
}

func runConfig(ctx context.Context, log *slog.Logger, path, variantList, format string, watch bool) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	if format != "" {
		if _, err := encoderFor(format); err != nil {
			return err
		}
		cfg.Format = format
	}
	selected, err := parseVariants(variantList)
	if err != nil {
		return err
	}
	if len(cfg.Textures) == 0 {
		return fmt.Errorf("no textures defined in %s", path)
	}

	r := &renderer{
		cfg:      cfg,
		docs:     cache.NewWithOptions(cfg.SourceDir, &cache.Options{Logger: log}),
		variants: selected,
		log:      log,
	}
	if err := r.renderAll(ctx); err != nil {
		return err
	}
	if !watch {
		return nil
	}
	log.Info("watching sources", "dir", cfg.SourceDir)
	return r.watch(ctx, time.Second)
}
