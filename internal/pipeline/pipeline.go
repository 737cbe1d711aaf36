// Package pipeline runs the per-group render state machine:
// resolve config, probe sources, then combine, preview and final
// stages. Progress is persisted solely as artifacts on disk, so a
// re-run resumes where the last one stopped.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"reelpress/internal/domain/filters"
	"reelpress/internal/domain/geometry"
	"reelpress/internal/domain/groupcfg"
	"reelpress/internal/ports"
	"reelpress/internal/types"
)

// Deps are the external collaborators of one pipeline run.
type Deps struct {
	Prober  ports.Prober
	Encoder ports.Encoder
	Editor  ports.ConfigEditor
	Confirm ports.Confirmer
	Logger  *slog.Logger
}

// Options are invocation-scoped switches, mostly CLI flags.
type Options struct {
	DryRun            bool
	FilterAudio       bool
	SkipNormalization bool
	EditConfig        bool
	ForcePreview      bool
	// PreviewLength overrides the group's preview length when > 0.
	PreviewLength float64
	// SeedPreviewLength replaces the stock preview length when seeding
	// a fresh group config.
	SeedPreviewLength float64
}

// Result summarizes what one group run produced.
type Result struct {
	Group        string
	FastPath     bool
	Combined     string
	Preview      string
	Final        string
	FinalSkipped bool // user declined the overwrite
}

type Runner struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Runner {
	return &Runner{deps: deps, opts: opts}
}

// Run processes one group to completion. Errors are fatal for this
// group only; the caller isolates them from sibling groups.
func (r *Runner) Run(ctx context.Context, group types.Group) (Result, error) {
	res := Result{Group: group.Key}
	if len(group.Clips) == 0 {
		return res, fmt.Errorf("group %s: no source clips", group.Key)
	}
	log := r.deps.Logger.With("group", group.Key)

	cfg, err := r.resolveConfig(ctx, group, log)
	if err != nil {
		return res, err
	}

	clips, err := r.probeClips(ctx, group)
	if err != nil {
		return res, fmt.Errorf("group %s: probe stage: %w", group.Key, err)
	}
	first := clips[0]
	log.Debug("sources probed",
		"clips", len(clips),
		"codec", first.Codec,
		"resolution", fmt.Sprintf("%dx%d", first.Width, first.Height),
		"total_duration", totalDuration(clips))

	paths := artifactsFor(group)
	if !cfg.CropRequired() && !exists(paths.Final) {
		return r.runFastPath(ctx, group, clips, cfg, paths, log)
	}
	return r.runCropPath(ctx, group, clips, cfg, paths, log)
}

// runFastPath emits the final artifact via a single copy-mode
// concat+trim, skipping the combine stage and re-encoding entirely.
func (r *Runner) runFastPath(ctx context.Context, group types.Group, clips []types.Clip, cfg groupcfg.Config, paths artifacts, log *slog.Logger) (Result, error) {
	res := Result{Group: group.Key, FastPath: true}

	entries, err := concatPlan(group.Key, clips, cfg.StartTrim, cfg.EndTrim)
	if err != nil {
		return res, err
	}
	log.Info("fast path selected", "entries", len(entries),
		"start_trim", cfg.StartTrim, "end_trim", cfg.EndTrim)

	profile := profileFor(clips[0].Codec)
	chain, rect := buildChain(cfg, clips[0], profile, false)

	if r.previewWanted(cfg) {
		// No combined file exists on the fast path, so the preview is
		// rendered from the first emitted clip at its in-point.
		start := entries[0].InPoint
		if start < 0 {
			start = 0
		}
		if err := r.renderPreview(ctx, entries[0].Path, start, r.previewLength(cfg), chain, profile, paths.Preview, log); err != nil {
			return res, fmt.Errorf("group %s: preview stage: %w", group.Key, err)
		}
		res.Preview = paths.Preview
	}

	if r.opts.DryRun {
		log.Info("dry-run: would concat-copy to final", "output", paths.Final)
		res.Final = paths.Final
		return res, nil
	}
	err = withTempOutput(paths.Final, func(tmp string) error {
		return r.deps.Encoder.ConcatCopy(ctx, entries, tmp)
	})
	if err != nil {
		return res, fmt.Errorf("group %s: final stage: %w", group.Key, err)
	}
	res.Final = paths.Final
	log.Info("final rendered (stream copy)", "output", paths.Final)

	if err := r.writeManifest(group, cfg, res, rect, chain); err != nil {
		return res, fmt.Errorf("group %s: manifest: %w", group.Key, err)
	}
	return res, nil
}

// runCropPath is the full re-encode chain: combine, preview, final.
func (r *Runner) runCropPath(ctx context.Context, group types.Group, clips []types.Clip, cfg groupcfg.Config, paths artifacts, log *slog.Logger) (Result, error) {
	res := Result{Group: group.Key}
	profile := profileFor(clips[0].Codec)

	combinedDur, err := r.combineStage(ctx, group, clips, cfg, profile, paths, log)
	if err != nil {
		return res, err
	}
	res.Combined = paths.Combined

	chain, rect := buildChain(cfg, clips[0], profile, cfg.CropRequired())

	if r.previewWanted(cfg) {
		if err := r.renderPreview(ctx, paths.Combined, cfg.StartTrim, r.previewLength(cfg), chain, profile, paths.Preview, log); err != nil {
			return res, fmt.Errorf("group %s: preview stage: %w", group.Key, err)
		}
		res.Preview = paths.Preview
	}

	trimDur := combinedDur - cfg.StartTrim - cfg.EndTrim
	if trimDur <= 0 {
		return res, &TrimRangeError{
			Group:     group.Key,
			Duration:  combinedDur,
			StartTrim: cfg.StartTrim,
			EndTrim:   cfg.EndTrim,
		}
	}

	if exists(paths.Final) {
		prompt := fmt.Sprintf("final artifact %s exists, overwrite?", paths.Final)
		if r.deps.Confirm == nil || !r.deps.Confirm.Confirm(prompt) {
			log.Warn("final exists and overwrite was not confirmed, skipping final stage",
				"output", paths.Final)
			res.FinalSkipped = true
			return res, nil
		}
	}

	spec := ports.RenderSpec{
		Input:       paths.Combined,
		Start:       cfg.StartTrim,
		Duration:    trimDur,
		FilterGraph: chain.Build(),
		Profile:     profile,
		Audio:       ports.AudioAAC,
		Loudnorm:    r.opts.FilterAudio,
		FastStart:   true,
	}
	if r.opts.SkipNormalization {
		spec.Audio = ports.AudioCopy
	}

	if r.opts.DryRun {
		log.Info("dry-run: would render final",
			"output", paths.Final, "duration", trimDur, "filters", spec.FilterGraph)
		res.Final = paths.Final
		return res, nil
	}
	err = withTempOutput(paths.Final, func(tmp string) error {
		s := spec
		s.Output = tmp
		return r.deps.Encoder.Render(ctx, s)
	})
	if err != nil {
		return res, fmt.Errorf("group %s: final stage: %w", group.Key, err)
	}
	res.Final = paths.Final
	log.Info("final rendered", "output", paths.Final, "duration", trimDur)

	if err := r.writeManifest(group, cfg, res, rect, chain); err != nil {
		return res, fmt.Errorf("group %s: manifest: %w", group.Key, err)
	}
	return res, nil
}

// combineStage produces <key>_combined.mp4 unless it already exists,
// and returns the combined duration. Cropping later forces a re-encode
// here: copy-mode concat demands uniform codec parameters, which the
// crop would break.
func (r *Runner) combineStage(ctx context.Context, group types.Group, clips []types.Clip, cfg groupcfg.Config, profile ports.EncodeProfile, paths artifacts, log *slog.Logger) (float64, error) {
	if exists(paths.Combined) {
		log.Info("combine artifact present, skipping combine stage", "combined", paths.Combined)
		info, err := r.deps.Prober.Probe(ctx, paths.Combined)
		if err != nil {
			return 0, fmt.Errorf("group %s: probe stage: %w", group.Key, err)
		}
		return info.Duration, nil
	}

	entries := make([]ports.ConcatEntry, 0, len(clips))
	for _, c := range clips {
		entries = append(entries, ports.ConcatEntry{Path: c.Path, InPoint: -1, OutPoint: -1})
	}

	if r.opts.DryRun {
		log.Info("dry-run: would combine sources",
			"clips", len(entries), "reencode", cfg.CropRequired(), "output", paths.Combined)
		return totalDuration(clips), nil
	}

	err := withTempOutput(paths.Combined, func(tmp string) error {
		if cfg.CropRequired() {
			return r.deps.Encoder.ConcatEncode(ctx, entries, profile, tmp)
		}
		return r.deps.Encoder.ConcatCopy(ctx, entries, tmp)
	})
	if err != nil {
		return 0, fmt.Errorf("group %s: combine stage: %w", group.Key, err)
	}
	log.Info("sources combined", "output", paths.Combined, "reencode", cfg.CropRequired())

	info, err := r.deps.Prober.Probe(ctx, paths.Combined)
	if err != nil {
		return 0, fmt.Errorf("group %s: probe stage: %w", group.Key, err)
	}
	return info.Duration, nil
}

// renderPreview writes a short verification clip through the full
// filter chain. Previews are always re-encoded: their whole point is
// seeing the crop and filter choices before the final render.
func (r *Runner) renderPreview(ctx context.Context, input string, start, length float64, chain *filters.Chain, profile ports.EncodeProfile, output string, log *slog.Logger) error {
	spec := ports.RenderSpec{
		Input:       input,
		Start:       start,
		Duration:    length,
		FilterGraph: chain.Build(),
		Profile:     profile,
		Audio:       ports.AudioAAC,
	}
	if r.opts.DryRun {
		log.Info("dry-run: would render preview",
			"output", output, "start", start, "length", length, "filters", spec.FilterGraph)
		return nil
	}
	err := withTempOutput(output, func(tmp string) error {
		s := spec
		s.Output = tmp
		return r.deps.Encoder.Render(ctx, s)
	})
	if err != nil {
		return err
	}
	log.Info("preview rendered", "output", output, "length", length)
	return nil
}

// resolveConfig loads the group config, seeding a default file and
// running the editor collaborator first when appropriate. The file is
// parsed after editing so the edits take effect this run.
func (r *Runner) resolveConfig(ctx context.Context, group types.Group, log *slog.Logger) (groupcfg.Config, error) {
	path := groupcfg.Path(group.Dir, group.Key)
	if !exists(path) {
		seed := groupcfg.Default()
		if r.opts.SeedPreviewLength > 0 {
			seed.PreviewLength = r.opts.SeedPreviewLength
		}
		if r.opts.DryRun {
			log.Info("dry-run: would create default group config", "config", path)
			return applyOverrides(seed, r.opts), nil
		}
		if err := groupcfg.Write(path, seed); err != nil {
			return groupcfg.Config{}, fmt.Errorf("group %s: seed config: %w", group.Key, err)
		}
		log.Info("created default group config", "config", path)
	}

	if r.opts.EditConfig && r.deps.Editor != nil && !r.opts.DryRun {
		if err := r.deps.Editor.Edit(ctx, path); err != nil {
			return groupcfg.Config{}, fmt.Errorf("group %s: edit config: %w", group.Key, err)
		}
	}

	cfg, err := groupcfg.Load(path)
	if err != nil {
		return groupcfg.Config{}, fmt.Errorf("group %s: config stage: %w", group.Key, err)
	}
	return applyOverrides(cfg, r.opts), nil
}

func applyOverrides(cfg groupcfg.Config, opts Options) groupcfg.Config {
	if opts.ForcePreview {
		cfg.Preview = true
	}
	return cfg
}

func (r *Runner) previewWanted(cfg groupcfg.Config) bool {
	return cfg.Preview || r.opts.ForcePreview
}

func (r *Runner) previewLength(cfg groupcfg.Config) float64 {
	if r.opts.PreviewLength > 0 {
		return r.opts.PreviewLength
	}
	return cfg.PreviewLength
}

// probeClips returns a probed copy of the group's clips; sources are
// never mutated in place.
func (r *Runner) probeClips(ctx context.Context, group types.Group) ([]types.Clip, error) {
	clips := make([]types.Clip, len(group.Clips))
	for i, clip := range group.Clips {
		info, err := r.deps.Prober.Probe(ctx, clip.Path)
		if err != nil {
			return nil, err
		}
		clip.Duration = info.Duration
		clip.Width = info.Width
		clip.Height = info.Height
		clip.Codec = types.CodecFromName(info.VideoCodec)
		clips[i] = clip
	}
	return clips, nil
}

func (r *Runner) writeManifest(group types.Group, cfg groupcfg.Config, res Result, rect geometry.Rect, chain *filters.Chain) error {
	if r.opts.DryRun {
		return nil
	}
	m := types.Manifest{
		RenderID:    uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		GroupKey:    group.Key,
		GroupDir:    group.Dir,
		FastPath:    res.FastPath,
		Combined:    res.Combined,
		Preview:     res.Preview,
		Final:       res.Final,
		CropX:       rect.X,
		CropY:       rect.Y,
		CropW:       rect.W,
		CropH:       rect.H,
		StartTrim:   cfg.StartTrim,
		EndTrim:     cfg.EndTrim,
		FilterGraph: chain.Build(),
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(artifactsFor(group).Manifest, append(data, '\n'), 0o644)
}

// buildChain assembles the group's filter chain: computed crop (when
// cropping), configured defaults, profile-pinned pixel format, then
// user filters — classified so overrides land on their slots.
func buildChain(cfg groupcfg.Config, clip types.Clip, profile ports.EncodeProfile, includeCrop bool) (*filters.Chain, geometry.Rect) {
	rect := geometry.Compute(clip.Width, clip.Height, cfg.LeftCrop, cfg.RightCrop, cfg.BottomCrop)

	chain := filters.NewChain()
	if includeCrop {
		chain.Set(filters.SlotCrop, rect.Filter())
	}
	if cfg.DefaultScale != "" {
		chain.Apply(cfg.DefaultScale)
	}
	if profile.PixelFormat != "" {
		chain.Set(filters.SlotFormat, "format="+profile.PixelFormat)
	}
	if cfg.DefaultDenoise != "" {
		chain.Apply(cfg.DefaultDenoise)
	}
	if cfg.DefaultSharpen != "" {
		chain.Apply(cfg.DefaultSharpen)
	}
	if cfg.AdditionalParams != "" {
		chain.Apply(cfg.AdditionalParams)
	}
	return chain, rect
}
