package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultSessionPattern matches session files anywhere under a workspace.
const DefaultSessionPattern = "**/*.json"

// SessionInfo summarizes one discovered session file without building a
// scene from it.
type SessionInfo struct {
	Path        string
	Version     string
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Notes       int
	Images      int
	Connections int
	Groups      int

	FileSize    int64
	FileModTime time.Time

	// Err is set when the file matched the pattern but could not be read
	// as a session document. The entry is still listed so a broken file
	// is visible rather than silently skipped.
	Err error
}

// Discover lists session files under root matching a doublestar pattern,
// newest first by file modification time. An empty pattern selects
// DefaultSessionPattern.
func Discover(root, pattern string, logger *slog.Logger) ([]SessionInfo, error) {
	if pattern == "" {
		pattern = DefaultSessionPattern
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern)
	if err != nil {
		return nil, fmt.Errorf("discover sessions: %w", err)
	}

	infos := make([]SessionInfo, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(root, filepath.FromSlash(m))
		stat, err := os.Stat(path)
		if err != nil || stat.IsDir() {
			continue
		}
		info := Summarize(path)
		info.FileSize = stat.Size()
		info.FileModTime = stat.ModTime()
		if info.Err != nil && logger != nil {
			logger.Debug("not a session file", "path", path, "error", info.Err)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].FileModTime.After(infos[j].FileModTime)
	})
	return infos, nil
}

// Summarize reads just enough of a session file to report its version and
// entity counts. It works on any known format version without migrating.
func Summarize(path string) SessionInfo {
	info := SessionInfo{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		info.Err = fmt.Errorf("read session: %w", err)
		return info
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		info.Err = &SchemaError{Field: "document", Err: err}
		return info
	}
	version, ok := raw["version"].(string)
	if !ok {
		info.Err = &SchemaError{Field: "version"}
		return info
	}
	if versionIndex(version) < 0 {
		info.Err = &UnknownVersionError{Version: version}
		return info
	}
	info.Version = version

	info.Notes = listLen(raw["notes"])
	info.Images = listLen(raw["images"])
	info.Connections = listLen(raw["connections"])
	info.Groups = listLen(raw["groups"])

	info.CreatedAt = parseStamp(raw["created_at"])
	info.ModifiedAt = parseStamp(raw["modified_at"])
	return info
}

func listLen(v any) int {
	if l, ok := v.([]any); ok {
		return len(l)
	}
	return 0
}

func parseStamp(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
