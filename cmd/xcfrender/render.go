package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/woozymasta/xcf"
	"github.com/woozymasta/xcf/cache"
	"github.com/woozymasta/xcf/texture"
)

type encoder func(w io.Writer, img image.Image) error

// encoderFor returns the image encoder for an output format or extension.
func encoderFor(format string) (encoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return png.Encode, nil
	case "jpg", "jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}, nil
	case "tif", "tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}, nil
	case "bmp":
		return bmp.Encode, nil
	case "edds":
		return func(w io.Writer, img image.Image) error {
			return texture.Encode(w, img, texture.DefaultWriteOptions())
		}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// writeImage encodes img to path, picking the encoder from the extension.
func writeImage(path string, img image.Image) (err error) {
	enc, err := encoderFor(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := enc(bw, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return bw.Flush()
}

// renderVariant flattens doc with only Background and layers visible.
// Groups stay visible so listed layers inside them are reached.
func renderVariant(doc *xcf.Document, layers []string) (*image.NRGBA, error) {
	show := visibleSet(layers)
	return doc.Flatten(&xcf.FlattenOptions{
		Visible: func(l *xcf.Layer) bool { return l.IsGroup || show(l.Name) },
	})
}

// renderer builds configured textures from cached documents.
type renderer struct {
	cfg      *Config
	docs     *cache.Cache
	variants []string
	log      *slog.Logger
}

// renderAll renders every texture, checking ctx between documents.
func (r *renderer) renderAll(ctx context.Context) error {
	for _, name := range r.cfg.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.renderTexture(name); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderTexture(name string) error {
	tex := r.cfg.Textures[name]
	doc, err := r.docs.Get(tex.Src)
	if err != nil {
		return fmt.Errorf("texture %q: %w", name, err)
	}

	for _, variant := range r.variants {
		layers := tex.Variants[variant]
		if len(layers) == 0 {
			continue
		}
		start := time.Now()
		img, err := renderVariant(doc, layers)
		if err != nil {
			return fmt.Errorf("texture %q %s: %w", name, variant, err)
		}
		path := filepath.Join(r.cfg.OutputDir, outputName(name, variant, r.cfg.Format))
		if err := writeImage(path, img); err != nil {
			return fmt.Errorf("texture %q %s: %w", name, variant, err)
		}
		r.log.Info("texture written", "texture", name, "variant", variant, "path", path,
			"elapsed", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// watch re-renders textures whose source document changed until ctx is
// done. The cache evicts changed documents; a poll notices the new file.
func (r *renderer) watch(ctx context.Context, interval time.Duration) error {
	errc := make(chan error, 1)
	go func() { errc <- r.docs.Watch(ctx) }()

	seen := make(map[string]*xcf.Document)
	for _, name := range r.cfg.Names() {
		if doc, err := r.docs.Get(r.cfg.Textures[name].Src); err == nil {
			seen[name] = doc
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return <-errc
		case err := <-errc:
			return err
		case <-ticker.C:
		}

		for _, name := range r.cfg.Names() {
			doc, err := r.docs.Get(r.cfg.Textures[name].Src)
			if err != nil {
				r.log.Warn("texture source unavailable", "texture", name, "error", err)
				continue
			}
			if seen[name] == doc {
				continue
			}
			seen[name] = doc
			if err := r.renderTexture(name); err != nil {
				r.log.Error("render failed", "texture", name, "error", err)
			}
		}
	}
}
