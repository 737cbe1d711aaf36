package types

import "time"

// Codec is the detected video codec family of a source clip. The render
// pipeline keys its encoder profile off this value.
type Codec string

const (
	CodecH264  Codec = "h264"
	CodecHEVC  Codec = "hevc"
	CodecOther Codec = "other"
)

// CodecFromName maps an ffprobe codec_name onto a codec family.
// Unrecognized codecs collapse into CodecOther, which selects the
// conservative fallback encoder profile.
func CodecFromName(name string) Codec {
	switch name {
	case "h264", "avc", "avc1":
		return CodecH264
	case "hevc", "h265", "hvc1", "hev1":
		return CodecHEVC
	default:
		return CodecOther
	}
}

// Clip is a single raw source file. Clips are read-only: the pipeline
// never mutates or rewrites a source clip.
type Clip struct {
	Path     string
	Prefix   string
	Duration float64 // seconds, filled in by probing
	Width    int
	Height   int
	Codec    Codec
}

// Group is one shoot: an ordered run of clips sharing a filename
// prefix. Clip order is lexicographic filename order and determines
// concatenation order.
type Group struct {
	Key   string
	Dir   string
	Clips []Clip
}

// Manifest records one render of a group for audit and
// reproducibility. Written next to the artifacts as
// <key>_manifest.json.
type Manifest struct {
	RenderID  string    `json:"render_id"`
	CreatedAt time.Time `json:"created_at"`
	GroupKey  string    `json:"group_key"`
	GroupDir  string    `json:"group_dir"`
	FastPath  bool      `json:"fast_path"`

	Combined string `json:"combined,omitempty"`
	Preview  string `json:"preview,omitempty"`
	Final    string `json:"final,omitempty"`

	CropX int `json:"crop_x"`
	CropY int `json:"crop_y"`
	CropW int `json:"crop_w"`
	CropH int `json:"crop_h"`

	StartTrim   float64 `json:"start_trim_sec"`
	EndTrim     float64 `json:"end_trim_sec"`
	FilterGraph string  `json:"filter_graph,omitempty"`
}
