package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Variants are the texture variants in render order. The diffuse variant is
// written without a suffix.
var Variants = []string{"diffuse", "norm", "bump", "gloss", "glow", "pants", "shirt"}

// Texture defines which layers of one source document make up each variant.
type Texture struct {
	// Src is the document name, looked up as <source_dir>/<src>.xcf.
	Src string `toml:"src"`
	// Variants maps a variant name to the layers shown for it. The
	// "Background" layer is always shown.
	Variants map[string][]string `toml:"variants"`
}

type Config struct {
	SourceDir string             `toml:"source_dir"`
	OutputDir string             `toml:"output_dir"`
	Format    string             `toml:"format"`
	Textures  map[string]Texture `toml:"textures"`
}

func defaultConfig() *Config {
	return &Config{
		SourceDir: "src",
		OutputDir: "textures",
		Format:    "png",
		Textures:  map[string]Texture{},
	}
}

// LoadConfig reads the texture definition at path over the defaults. A
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	base := filepath.Dir(path)
	cfg.SourceDir = resolve(base, cfg.SourceDir)
	cfg.OutputDir = resolve(base, cfg.OutputDir)

	return cfg, cfg.validate()
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

func (c *Config) validate() error {
	if _, err := encoderFor(c.Format); err != nil {
		return err
	}
	for name, tex := range c.Textures {
		if tex.Src == "" {
			return fmt.Errorf("texture %q: src is empty", name)
		}
		for variant := range tex.Variants {
			if !slices.Contains(Variants, variant) {
				return fmt.Errorf("texture %q: unknown variant %q", name, variant)
			}
		}
	}
	return nil
}

// Names returns the texture names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Textures))
	for name := range c.Textures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseVariants turns a comma-separated list into a variant filter. "all"
// or an empty list selects every variant.
func parseVariants(list string) ([]string, error) {
	if list == "" || list == "all" {
		return Variants, nil
	}
	var out []string
	for _, v := range strings.Split(list, ",") {
		v = strings.TrimSpace(v)
		if !slices.Contains(Variants, v) {
			return nil, fmt.Errorf("unknown variant %q (want one of %s)", v, strings.Join(Variants, ", "))
		}
		out = append(out, v)
	}
	return out, nil
}

// outputName is the file name a texture variant is written to.
func outputName(texture, variant, format string) string {
	if variant == "diffuse" {
		return texture + "." + format
	}
	return texture + "_" + variant + "." + format
}

// visibleSet returns the layer predicate for a variant: Background plus the
// listed layers.
func visibleSet(layers []string) func(name string) bool {
	show := make(map[string]bool, len(layers)+1)
	show["Background"] = true
	for _, l := range layers {
		show[l] = true
	}
	return func(name string) bool { return show[name] }
}
