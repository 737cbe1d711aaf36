package ports

import "context"

// ProbeInfo is the structured metadata returned for one media file.
type ProbeInfo struct {
	Width      int
	Height     int
	Duration   float64 // seconds
	VideoCodec string
	AudioCodec string
}

// ConcatEntry is one source file in a concat list. InPoint/OutPoint are
// seconds into the file; a negative value means unset.
type ConcatEntry struct {
	Path     string
	InPoint  float64
	OutPoint float64
}

// EncodeProfile carries the codec-specific parameters for a re-encode.
type EncodeProfile struct {
	VideoCodec  string
	CRF         int
	Preset      string
	PixelFormat string
	// ExtraArgs holds codec-family specific flags, notably the
	// mandatory colorimetry tags applied on every re-encode.
	ExtraArgs []string
}

// AudioMode selects how the audio stream of a render is produced.
type AudioMode int

const (
	// AudioAAC re-encodes to stereo AAC 384k/48kHz for playback
	// compatibility.
	AudioAAC AudioMode = iota
	// AudioCopy stream-copies the source audio untouched.
	AudioCopy
)

// RenderSpec describes one single-input filtered encode.
type RenderSpec struct {
	Input       string
	Start       float64 // seek before decode; <= 0 means from the top
	Duration    float64 // 0 means to the end
	FilterGraph string
	Profile     EncodeProfile
	Audio       AudioMode
	Loudnorm    bool // apply loudness normalization on the audio path
	FastStart   bool
	Output      string
}

// Prober inspects a media file. Pure query, no side effects.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}

// Encoder wraps the external transcoding engine. Implementations block
// until the external process exits.
type Encoder interface {
	// ConcatCopy concatenates entries with stream copy, honoring
	// per-entry in/out points. Zero re-encode.
	ConcatCopy(ctx context.Context, entries []ConcatEntry, output string) error
	// ConcatEncode concatenates entries while re-encoding video with
	// the given profile.
	ConcatEncode(ctx context.Context, entries []ConcatEntry, profile EncodeProfile, output string) error
	// Render runs a single-input filtered encode.
	Render(ctx context.Context, spec RenderSpec) error
}

// ConfigEditor hands a group config file to the user for editing and
// returns when editing is complete. Headless environments substitute a
// no-op implementation.
type ConfigEditor interface {
	Edit(ctx context.Context, path string) error
}

// Confirmer asks the user a yes/no question before a destructive step.
type Confirmer interface {
	Confirm(prompt string) bool
}
