// Package groupcfg loads and persists per-group render settings.
//
// The on-disk format is deliberately primitive: one key=value per
// line, '#' comments, whitespace insignificant. Groups are edited by
// hand in whatever editor the user has, so the format stays greppable
// and diff-friendly.
package groupcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelpress/internal/domain/filters"
)

// Config is the per-group settings record. It is constructed fresh on
// every render invocation; nothing caches it across runs, so re-edits
// always take effect.
type Config struct {
	LeftCrop   float64
	RightCrop  float64
	BottomCrop float64

	StartTrim float64 // seconds removed from the combined timeline start
	EndTrim   float64 // seconds removed from the combined timeline end

	Preview       bool
	PreviewLength float64 // seconds

	DefaultScale     string
	DefaultDenoise   string
	DefaultSharpen   string
	AdditionalParams string

	// Extra retains unknown keys verbatim. They are never interpreted
	// but survive a rewrite of the file.
	Extra map[string]string
}

// Default returns the documented safe defaults for a fresh group.
func Default() Config {
	return Config{
		Preview:       true,
		PreviewLength: 10,
		DefaultScale:  filters.DefaultScale,
	}
}

// CropRequired reports whether any crop fraction is non-zero, which
// forces the re-encode path.
func (c Config) CropRequired() bool {
	return c.LeftCrop > 0 || c.RightCrop > 0 || c.BottomCrop > 0
}

// ParseError means the config file could not be read at all. Malformed
// individual lines never produce it; they are skipped.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("group config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Path returns the config file location for a group.
func Path(groupDir, key string) string {
	return filepath.Join(groupDir, key+".cfg")
}

// Load parses the group config at path. Missing keys fall back to
// defaults; malformed lines are skipped; unknown keys are retained.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}

	cfg := Default()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = stripSpace(key)
		value = stripSpace(value)
		if key == "" {
			continue
		}
		cfg.apply(key, value)
	}
	return cfg, nil
}

func (c *Config) apply(key, value string) {
	switch key {
	case "left-crop":
		setFloat(&c.LeftCrop, value)
	case "right-crop":
		setFloat(&c.RightCrop, value)
	case "bottom-crop":
		setFloat(&c.BottomCrop, value)
	case "start-trim":
		setFloat(&c.StartTrim, value)
	case "end-trim":
		setFloat(&c.EndTrim, value)
	case "preview":
		if b, err := strconv.ParseBool(value); err == nil {
			c.Preview = b
		}
	case "preview-length":
		setFloat(&c.PreviewLength, value)
	case "default-scale":
		c.DefaultScale = value
	case "default-denoise":
		c.DefaultDenoise = value
	case "default-sharpen":
		c.DefaultSharpen = value
	case "additional-params":
		c.AdditionalParams = value
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
}

func setFloat(dst *float64, value string) {
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		*dst = f
	}
}

// stripSpace removes ALL whitespace, not just the ends: "left - crop"
// and "left-crop" are the same key.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r':
			return -1
		}
		return r
	}, s)
}

// Write serializes cfg to path with a commented header explaining the
// crop convention. Used to seed a fresh group before editing.
func Write(path string, cfg Config) error {
	var b strings.Builder
	b.WriteString("# reelpress group settings\n")
	b.WriteString("# crop fractions are the TOTAL frame proportion removed from that\n")
	b.WriteString("# edge (0.0-1.0); trims are seconds on the combined timeline\n")
	fmt.Fprintf(&b, "left-crop=%s\n", formatFloat(cfg.LeftCrop))
	fmt.Fprintf(&b, "right-crop=%s\n", formatFloat(cfg.RightCrop))
	fmt.Fprintf(&b, "bottom-crop=%s\n", formatFloat(cfg.BottomCrop))
	fmt.Fprintf(&b, "start-trim=%s\n", formatFloat(cfg.StartTrim))
	fmt.Fprintf(&b, "end-trim=%s\n", formatFloat(cfg.EndTrim))
	fmt.Fprintf(&b, "preview=%t\n", cfg.Preview)
	fmt.Fprintf(&b, "preview-length=%s\n", formatFloat(cfg.PreviewLength))
	fmt.Fprintf(&b, "default-scale=%s\n", cfg.DefaultScale)
	fmt.Fprintf(&b, "default-denoise=%s\n", cfg.DefaultDenoise)
	fmt.Fprintf(&b, "default-sharpen=%s\n", cfg.DefaultSharpen)
	fmt.Fprintf(&b, "additional-params=%s\n", cfg.AdditionalParams)
	for key, value := range cfg.Extra {
		fmt.Fprintf(&b, "%s=%s\n", key, value)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
