package groupcfg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelpress/internal/domain/filters"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "DJI_0001.cfg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp cfg: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeTemp(t, "# empty file\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CropRequired() {
		t.Fatalf("fresh config must not require crop")
	}
	if !cfg.Preview || cfg.PreviewLength != 10 {
		t.Fatalf("preview defaults wrong: %+v", cfg)
	}
	if cfg.DefaultScale != filters.DefaultScale {
		t.Fatalf("default scale = %q", cfg.DefaultScale)
	}
}

func TestLoadParsesAndStripsWhitespace(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeTemp(t, `
# a shoot with letterbox crop
left-crop = 0.1
 right - crop =0.1
bottom-crop=0
start-trim= 12.5
end-trim=3
preview=false
preview-length=6
default-denoise=hqdn3d=2:1:2:3
additional-params=eq=gamma=1.05, noise=alls=6
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LeftCrop != 0.1 || cfg.RightCrop != 0.1 || cfg.BottomCrop != 0 {
		t.Fatalf("crops = %v/%v/%v", cfg.LeftCrop, cfg.RightCrop, cfg.BottomCrop)
	}
	if cfg.StartTrim != 12.5 || cfg.EndTrim != 3 {
		t.Fatalf("trims = %v/%v", cfg.StartTrim, cfg.EndTrim)
	}
	if cfg.Preview || cfg.PreviewLength != 6 {
		t.Fatalf("preview = %v/%v", cfg.Preview, cfg.PreviewLength)
	}
	if cfg.DefaultDenoise != "hqdn3d=2:1:2:3" {
		t.Fatalf("denoise = %q", cfg.DefaultDenoise)
	}
	// values keep inner commas but lose all whitespace
	if cfg.AdditionalParams != "eq=gamma=1.05,noise=alls=6" {
		t.Fatalf("additional-params = %q", cfg.AdditionalParams)
	}
	if !cfg.CropRequired() {
		t.Fatalf("0.1 left crop must require crop")
	}
}

func TestLoadSkipsMalformedAndRetainsUnknown(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeTemp(t, `
left-crop=not-a-number
just a stray line without equals
preview=maybe
camera-operator=sasha
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LeftCrop != 0 {
		t.Fatalf("malformed float should keep default, got %v", cfg.LeftCrop)
	}
	if !cfg.Preview {
		t.Fatalf("malformed bool should keep default")
	}
	if cfg.Extra["camera-operator"] != "sasha" {
		t.Fatalf("unknown key not retained: %+v", cfg.Extra)
	}
}

func TestLoadUnreadable(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.cfg"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "VID_20240315_123456.cfg")
	in := Default()
	in.LeftCrop = 0.05
	in.StartTrim = 42
	in.Preview = false
	in.DefaultSharpen = "cas=0.4"
	in.Extra = map[string]string{"note": "b-roll"}

	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.LeftCrop != 0.05 || out.StartTrim != 42 || out.Preview || out.DefaultSharpen != "cas=0.4" {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if out.Extra["note"] != "b-roll" {
		t.Fatalf("extra key lost: %+v", out.Extra)
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	got := Path("/footage/DJI_0086", "DJI_0086")
	if got != filepath.Join("/footage/DJI_0086", "DJI_0086.cfg") {
		t.Fatalf("Path = %q", got)
	}
}
