// Package ffmpeg adapts the external ffmpeg/ffprobe binaries to the
// Prober and Encoder ports.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"reelpress/internal/ports"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Preflight verifies both binaries are reachable on PATH.
func (a *Adapter) Preflight() error {
	for _, bin := range []string{a.ffmpeg, a.ffprobe} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("required tool missing: %w", err)
		}
	}
	return nil
}

// ProbeError means media metadata could not be read; without it the
// pipeline cannot proceed for that group.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string { return fmt.Sprintf("probe %s: %v", e.Path, e.Err) }
func (e *ProbeError) Unwrap() error { return e.Err }

// EncodeError wraps a failed external encode invocation.
type EncodeError struct {
	Output string
	Err    error
}

func (e *EncodeError) Error() string { return fmt.Sprintf("encode %s: %v", e.Output, e.Err) }
func (e *EncodeError) Unwrap() error { return e.Err }

// probeResult matches the ffprobe JSON layout.
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func (a *Adapter) Probe(ctx context.Context, path string) (ports.ProbeInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return ports.ProbeInfo{}, &ProbeError{Path: path, Err: fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(out)))}
	}

	var res probeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return ports.ProbeInfo{}, &ProbeError{Path: path, Err: fmt.Errorf("parse output: %w", err)}
	}

	var info ports.ProbeInfo
	if dur, err := strconv.ParseFloat(res.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	for _, stream := range res.Streams {
		switch stream.CodecType {
		case "video":
			if info.VideoCodec == "" {
				info.Width = stream.Width
				info.Height = stream.Height
				info.VideoCodec = stream.CodecName
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = stream.CodecName
			}
		}
	}
	if info.VideoCodec == "" {
		return ports.ProbeInfo{}, &ProbeError{Path: path, Err: fmt.Errorf("no video stream")}
	}
	return info, nil
}

func (a *Adapter) ConcatCopy(ctx context.Context, entries []ports.ConcatEntry, output string) error {
	list, cleanup, err := writeConcatList(filepath.Dir(output), entries)
	if err != nil {
		return &EncodeError{Output: output, Err: err}
	}
	defer cleanup()

	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat", "-safe", "0",
		"-i", list,
		"-c", "copy",
		"-movflags", "+faststart",
		output,
	}
	return a.runEncode(ctx, output, args)
}

func (a *Adapter) ConcatEncode(ctx context.Context, entries []ports.ConcatEntry, profile ports.EncodeProfile, output string) error {
	list, cleanup, err := writeConcatList(filepath.Dir(output), entries)
	if err != nil {
		return &EncodeError{Output: output, Err: err}
	}
	defer cleanup()

	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat", "-safe", "0",
		"-i", list,
	}
	args = appendProfile(args, profile)
	args = append(args, "-c:a", "copy", output)
	return a.runEncode(ctx, output, args)
}

func (a *Adapter) Render(ctx context.Context, spec ports.RenderSpec) error {
	args := buildRenderArgs(spec)
	return a.runEncode(ctx, spec.Output, args)
}

func buildRenderArgs(spec ports.RenderSpec) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}
	if spec.Start > 0 {
		args = append(args, "-ss", fmtSeconds(spec.Start))
	}
	args = append(args, "-i", spec.Input)
	if spec.Duration > 0 {
		args = append(args, "-t", fmtSeconds(spec.Duration))
	}
	if spec.FilterGraph != "" {
		args = append(args, "-vf", spec.FilterGraph)
	}
	args = appendProfile(args, spec.Profile)

	switch spec.Audio {
	case ports.AudioCopy:
		args = append(args, "-c:a", "copy")
	default:
		// Fixed-format audio for cross-platform playback.
		args = append(args, "-c:a", "aac", "-b:a", "384k", "-ar", "48000", "-ac", "2")
	}
	if spec.Loudnorm && spec.Audio != ports.AudioCopy {
		args = append(args, "-af", "loudnorm")
	}
	if spec.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, spec.Output)
}

func appendProfile(args []string, profile ports.EncodeProfile) []string {
	args = append(args, "-c:v", profile.VideoCodec)
	if profile.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(profile.CRF))
	}
	if profile.Preset != "" {
		args = append(args, "-preset", profile.Preset)
	}
	if profile.PixelFormat != "" {
		args = append(args, "-pix_fmt", profile.PixelFormat)
	}
	return append(args, profile.ExtraArgs...)
}

func (a *Adapter) runEncode(ctx context.Context, output string, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &EncodeError{Output: output, Err: fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(out)))}
	}
	return nil
}

// writeConcatList renders entries into an ffconcat list file next to
// the output. Paths are single-quoted with embedded quotes escaped the
// way the concat demuxer expects.
func writeConcatList(dir string, entries []ports.ConcatEntry) (string, func(), error) {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, e := range entries {
		abs, err := filepath.Abs(e.Path)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
		if e.InPoint >= 0 {
			fmt.Fprintf(&b, "inpoint %s\n", fmtSeconds(e.InPoint))
		}
		if e.OutPoint >= 0 {
			fmt.Fprintf(&b, "outpoint %s\n", fmtSeconds(e.OutPoint))
		}
	}

	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}

// RenderConcatList exposes the list format for tests and dry-run
// display without touching the filesystem.
func RenderConcatList(entries []ports.ConcatEntry) string {
	var b strings.Builder
	b.WriteString("ffconcat version 1.0\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(e.Path))
		if e.InPoint >= 0 {
			fmt.Fprintf(&b, "inpoint %s\n", fmtSeconds(e.InPoint))
		}
		if e.OutPoint >= 0 {
			fmt.Fprintf(&b, "outpoint %s\n", fmtSeconds(e.OutPoint))
		}
	}
	return b.String()
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
