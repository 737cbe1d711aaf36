package ffmpeg

import (
	"strings"
	"testing"

	"reelpress/internal/ports"
)

func TestRenderConcatList(t *testing.T) {
	t.Parallel()

	entries := []ports.ConcatEntry{
		{Path: "/footage/DJI_0086/DJI_0086_001.MP4", InPoint: 5, OutPoint: -1},
		{Path: "/footage/DJI_0086/DJI_0086_002.MP4", InPoint: -1, OutPoint: 40},
	}
	got := RenderConcatList(entries)
	want := "ffconcat version 1.0\n" +
		"file '/footage/DJI_0086/DJI_0086_001.MP4'\n" +
		"inpoint 5.000\n" +
		"file '/footage/DJI_0086/DJI_0086_002.MP4'\n" +
		"outpoint 40.000\n"
	if got != want {
		t.Fatalf("concat list mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderConcatListEscapesQuotes(t *testing.T) {
	t.Parallel()

	got := RenderConcatList([]ports.ConcatEntry{{Path: "/a/it's.mp4", InPoint: -1, OutPoint: -1}})
	if !strings.Contains(got, `file '/a/it'\''s.mp4'`) {
		t.Fatalf("quote not escaped: %s", got)
	}
}

func TestBuildRenderArgs(t *testing.T) {
	t.Parallel()

	spec := ports.RenderSpec{
		Input:       "/g/DJI_0086_combined.mp4",
		Start:       12.5,
		Duration:    90,
		FilterGraph: "crop=3456:1944:192:216,scale=-2:2160:flags=lanczos,format=yuv420p",
		Profile: ports.EncodeProfile{
			VideoCodec:  "libx264",
			CRF:         18,
			Preset:      "slow",
			PixelFormat: "yuv420p",
			ExtraArgs:   []string{"-colorspace", "bt709"},
		},
		Audio:     ports.AudioAAC,
		FastStart: true,
		Output:    "/g/DJI_0086_final.mp4.tmp",
	}
	args := strings.Join(buildRenderArgs(spec), " ")

	for _, want := range []string{
		"-ss 12.500 -i /g/DJI_0086_combined.mp4",
		"-t 90.000",
		"-vf crop=3456:1944:192:216,",
		"-c:v libx264 -crf 18 -preset slow -pix_fmt yuv420p -colorspace bt709",
		"-c:a aac -b:a 384k -ar 48000 -ac 2",
		"-movflags +faststart /g/DJI_0086_final.mp4.tmp",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("args missing %q:\n%s", want, args)
		}
	}
	if strings.Contains(args, "loudnorm") {
		t.Fatalf("unexpected loudnorm: %s", args)
	}
}

func TestBuildRenderArgsAudioModes(t *testing.T) {
	t.Parallel()

	copySpec := ports.RenderSpec{Input: "in.mp4", Output: "out.mp4", Audio: ports.AudioCopy,
		Profile: ports.EncodeProfile{VideoCodec: "libx264"}}
	args := strings.Join(buildRenderArgs(copySpec), " ")
	if !strings.Contains(args, "-c:a copy") || strings.Contains(args, "-b:a") {
		t.Fatalf("audio copy args wrong: %s", args)
	}

	normSpec := copySpec
	normSpec.Audio = ports.AudioAAC
	normSpec.Loudnorm = true
	args = strings.Join(buildRenderArgs(normSpec), " ")
	if !strings.Contains(args, "-af loudnorm") {
		t.Fatalf("loudnorm missing: %s", args)
	}
}
