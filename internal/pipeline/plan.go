package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelpress/internal/ports"
	"reelpress/internal/types"
)

// TrimRangeError means the configured trims leave no timeline to
// render. The stage fails before any output is written.
type TrimRangeError struct {
	Group     string
	Duration  float64
	StartTrim float64
	EndTrim   float64
}

func (e *TrimRangeError) Error() string {
	return fmt.Sprintf("group %s: trim range empty: duration %.3fs - start %.3fs - end %.3fs = %.3fs",
		e.Group, e.Duration, e.StartTrim, e.EndTrim, e.Duration-e.StartTrim-e.EndTrim)
}

// bt709 colorimetry is tagged on every re-encode; omitting it lets
// players guess the luminance range and drift the image.
var colorimetryArgs = []string{
	"-colorspace", "bt709",
	"-color_primaries", "bt709",
	"-color_trc", "bt709",
}

// profileFor selects the re-encode parameters for a detected source
// codec family. Different sources need different quality settings to
// avoid visible banding; unknown codecs get the conservative profile.
func profileFor(codec types.Codec) ports.EncodeProfile {
	switch codec {
	case types.CodecH264:
		return ports.EncodeProfile{
			VideoCodec:  "libx264",
			CRF:         18,
			Preset:      "slow",
			PixelFormat: "yuv420p",
			ExtraArgs:   colorimetryArgs,
		}
	case types.CodecHEVC:
		return ports.EncodeProfile{
			VideoCodec:  "libx265",
			CRF:         20,
			Preset:      "medium",
			PixelFormat: "yuv420p10le",
			ExtraArgs:   colorimetryArgs,
		}
	default:
		return ports.EncodeProfile{
			VideoCodec:  "libx264",
			CRF:         16,
			Preset:      "slow",
			PixelFormat: "yuv420p",
			ExtraArgs:   colorimetryArgs,
		}
	}
}

// concatPlan builds the fast-path concat list. The start trim is
// consumed across leading clips: each fully-covered clip is dropped
// and the first surviving clip gets the remaining budget as its
// in-point. The end trim mirrors that over trailing clips, normally
// just an out-point on the last clip.
func concatPlan(groupKey string, clips []types.Clip, startTrim, endTrim float64) ([]ports.ConcatEntry, error) {
	var total float64
	for _, c := range clips {
		total += c.Duration
	}
	if total-startTrim-endTrim <= 0 {
		return nil, &TrimRangeError{Group: groupKey, Duration: total, StartTrim: startTrim, EndTrim: endTrim}
	}

	start := startTrim
	i := 0
	for i < len(clips) && clips[i].Duration <= start {
		start -= clips[i].Duration
		i++
	}
	end := endTrim
	j := len(clips) - 1
	for j >= i && clips[j].Duration <= end {
		end -= clips[j].Duration
		j--
	}
	if i > j {
		return nil, &TrimRangeError{Group: groupKey, Duration: total, StartTrim: startTrim, EndTrim: endTrim}
	}

	entries := make([]ports.ConcatEntry, 0, j-i+1)
	for k := i; k <= j; k++ {
		entry := ports.ConcatEntry{Path: clips[k].Path, InPoint: -1, OutPoint: -1}
		if k == i && start > 0 {
			entry.InPoint = start
		}
		if k == j && end > 0 {
			entry.OutPoint = clips[k].Duration - end
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// artifacts are the per-group output paths. Their existence is the
// pipeline's only persisted state.
type artifacts struct {
	Combined string
	Preview  string
	Final    string
	Manifest string
}

func artifactsFor(group types.Group) artifacts {
	base := filepath.Join(group.Dir, group.Key)
	return artifacts{
		Combined: base + "_combined.mp4",
		Preview:  base + "_preview.mp4",
		Final:    base + "_final.mp4",
		Manifest: base + "_manifest.json",
	}
}

func totalDuration(clips []types.Clip) float64 {
	var total float64
	for _, c := range clips {
		total += c.Duration
	}
	return total
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// withTempOutput runs fn against a temporary sibling path and renames
// it over path only on success. An interrupted or failed encode leaves
// at most a *.tmp.* file, which resume logic never mistakes for a
// finished artifact.
func withTempOutput(path string, fn func(tmp string) error) error {
	ext := filepath.Ext(path)
	tmp := strings.TrimSuffix(path, ext) + ".tmp" + ext
	if err := fn(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
