// Package discovery finds raw camera clips and sorts them into
// per-group directories.
//
// Two filename families are recognized:
//
//	DJI_0086.MP4, DJI_0086_001.MP4, ...     group key DJI_0086
//	VID_20240315_123456_00_001.mp4, ...     group key VID_20240315_123456
//
// The group key is the shared prefix of one recording session: DJI
// bodies keep the four-digit sequence across split parts, Insta360
// style cameras keep the start timestamp. Lexicographic filename order
// within a key is the recording order.
package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"reelpress/internal/types"
)

var (
	familyA = regexp.MustCompile(`^(DJI_\d{4})(?:_\d{3})?\.(?:mp4|MP4|mov|MOV)$`)
	familyB = regexp.MustCompile(`^(VID_\d{8}_\d{6})_\d{2}_\d{3}\.(?:mp4|MP4|mov|MOV)$`)

	// Shapes a group directory name may take.
	keyA = regexp.MustCompile(`^DJI_\d{4}$`)
	keyB = regexp.MustCompile(`^VID_\d{8}_\d{6}$`)
)

// GroupKey derives the group key from a clip filename. ok is false for
// files that match neither camera family.
func GroupKey(name string) (key string, ok bool) {
	if m := familyA.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	if m := familyB.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	return "", false
}

// IsGroupDirName reports whether a directory name has the shape of a
// group key.
func IsGroupDirName(name string) bool {
	return keyA.MatchString(name) || keyB.MatchString(name)
}

// Scan enumerates raw clips under root and returns the group
// directories to process, relocating loose clips into per-key
// subdirectories as needed.
//
// When every matched file in root shares a single key, root itself is
// the group and nothing moves: the user already isolated one session.
// Relocation is idempotent; a clip whose destination already exists is
// skipped with a warning, never overwritten.
//
// With dryRun set, planned moves are logged and the group set reflects
// the directory as it stands.
func Scan(logger *slog.Logger, root string, dryRun bool) ([]types.Group, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	type loose struct {
		name string
		key  string
	}
	var looseClips []loose
	keys := make(map[string]struct{})
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		key, ok := GroupKey(name)
		if !ok {
			if isVideoName(name) {
				logger.Debug("unrecognized video name, skipping", "file", name)
			}
			continue
		}
		looseClips = append(looseClips, loose{name: name, key: key})
		keys[key] = struct{}{}
	}

	// Single shared key: the scan root is already the group.
	if len(looseClips) > 0 && len(keys) == 1 {
		group, err := readGroup(root, looseClips[0].key)
		if err != nil {
			return nil, err
		}
		logger.Info("scan root is a single group", "group", group.Key, "clips", len(group.Clips))
		return []types.Group{group}, nil
	}

	for _, clip := range looseClips {
		destDir := filepath.Join(root, clip.key)
		dest := filepath.Join(destDir, clip.name)
		if _, err := os.Stat(dest); err == nil {
			logger.Warn("destination clip exists, leaving source in place",
				"file", clip.name, "group", clip.key)
			continue
		}
		if dryRun {
			logger.Info("dry-run: would move clip", "file", clip.name, "group", clip.key)
			continue
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return nil, fmt.Errorf("create group dir %s: %w", destDir, err)
		}
		if err := os.Rename(filepath.Join(root, clip.name), dest); err != nil {
			return nil, fmt.Errorf("move %s into %s: %w", clip.name, clip.key, err)
		}
		logger.Debug("moved clip into group", "file", clip.name, "group", clip.key)
	}

	// Collect every created or pre-existing group directory.
	entries, err = os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("rescan %s: %w", root, err)
	}
	var groups []types.Group
	for _, entry := range entries {
		if !entry.IsDir() || !IsGroupDirName(entry.Name()) {
			continue
		}
		group, err := readGroup(filepath.Join(root, entry.Name()), entry.Name())
		if err != nil {
			return nil, err
		}
		if len(group.Clips) == 0 {
			continue
		}
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups, nil
}

// readGroup lists the clips of one group directory in lexicographic
// order. Clips carrying a different key than the directory are left
// alone but excluded.
func readGroup(dir, key string) (types.Group, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.Group{}, fmt.Errorf("read group %s: %w", dir, err)
	}
	group := types.Group{Key: key, Dir: dir}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		clipKey, ok := GroupKey(entry.Name())
		if !ok || clipKey != key {
			continue
		}
		group.Clips = append(group.Clips, types.Clip{
			Path:   filepath.Join(dir, entry.Name()),
			Prefix: key,
		})
	}
	sort.Slice(group.Clips, func(i, j int) bool {
		return filepath.Base(group.Clips[i].Path) < filepath.Base(group.Clips[j].Path)
	})
	return group, nil
}

func isVideoName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".mov", ".mkv", ".avi":
		return true
	}
	return false
}
