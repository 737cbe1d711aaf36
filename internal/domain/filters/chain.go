// Package filters assembles the ordered video filter graph from
// defaults and user overrides.
package filters

import "strings"

// Slot identifies one named stage of the filter chain. Stage order is
// fixed; only stage contents vary.
type Slot int

const (
	SlotCrop Slot = iota
	SlotScale
	SlotFormat
	SlotDenoise
	SlotTexture
	SlotSharpen
	SlotColor
	SlotLook

	slotCount
)

func (s Slot) String() string {
	switch s {
	case SlotCrop:
		return "crop"
	case SlotScale:
		return "scale"
	case SlotFormat:
		return "format"
	case SlotDenoise:
		return "denoise"
	case SlotTexture:
		return "texture"
	case SlotSharpen:
		return "sharpen"
	case SlotColor:
		return "color"
	case SlotLook:
		return "look"
	default:
		return "unknown"
	}
}

// DefaultScale upscales to 2160p with lanczos resampling, the stock
// scale stage written into every fresh group config.
const DefaultScale = "scale=-2:2160:flags=lanczos"

var denoiseNames = map[string]struct{}{
	"hqdn3d":        {},
	"nlmeans":       {},
	"atadenoise":    {},
	"bm3d":          {},
	"vaguedenoiser": {},
	"dctdnoiz":      {},
}

var sharpenNames = map[string]struct{}{
	"unsharp":   {},
	"cas":       {},
	"smartblur": {},
}

var colorNames = map[string]struct{}{
	"eq":               {},
	"curves":           {},
	"colorbalance":     {},
	"colortemperature": {},
	"hue":              {},
	"vibrance":         {},
}

var lookNames = map[string]struct{}{
	"lut3d":    {},
	"lut1d":    {},
	"haldclut": {},
}

// Classify maps a single filter expression onto the slot it belongs to.
// Matching is by the filter-function name before '='. Anything
// unrecognized lands in the texture slot. The format slot is owned by
// the codec profile and never produced by classification.
func Classify(expr string) Slot {
	name := strings.TrimSpace(expr)
	if i := strings.IndexByte(name, '='); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)

	switch {
	case name == "crop":
		return SlotCrop
	case name == "scale":
		return SlotScale
	default:
	}
	if _, ok := denoiseNames[name]; ok {
		return SlotDenoise
	}
	if _, ok := sharpenNames[name]; ok {
		return SlotSharpen
	}
	if _, ok := colorNames[name]; ok {
		return SlotColor
	}
	if _, ok := lookNames[name]; ok {
		return SlotLook
	}
	return SlotTexture
}

// Chain holds the eight stage slots. Single-valued slots are
// last-writer-wins; the texture slot accumulates in arrival order.
type Chain struct {
	slots   [slotCount]string
	texture []string
}

func NewChain() *Chain {
	return &Chain{}
}

// Set writes a slot directly, bypassing classification. Used for the
// computed crop rectangle and the profile-pinned format stage.
func (c *Chain) Set(slot Slot, expr string) {
	if slot == SlotTexture {
		c.texture = append(c.texture, expr)
		return
	}
	c.slots[slot] = expr
}

// Apply consumes a comma-separated list of user filter expressions,
// classifying each into its slot.
func (c *Chain) Apply(exprs string) {
	for _, expr := range strings.Split(exprs, ",") {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		c.Set(Classify(expr), expr)
	}
}

// Slot returns the current contents of a slot, texture stages joined
// by commas.
func (c *Chain) Slot(slot Slot) string {
	if slot == SlotTexture {
		return strings.Join(c.texture, ",")
	}
	return c.slots[slot]
}

// Build assembles the final filter graph: non-empty slots in fixed
// order crop, scale, format, denoise, texture, sharpen, color, look.
func (c *Chain) Build() string {
	parts := make([]string, 0, slotCount)
	for slot := SlotCrop; slot < slotCount; slot++ {
		if v := c.Slot(slot); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ",")
}
