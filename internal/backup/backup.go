package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/aniarc/internal/userstate"
)

// Format is the encoding of a backup file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var ErrUnknownFormat = errors.New("unknown backup format")

// ParseFormat accepts "yaml", "yml" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatOf picks the format from the extension of path.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// FileName returns the backup path for a snapshot taken at t.
func FileName(dir string, f Format, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("userstate-%s.%s", t.UTC().Format("20060102T150405Z"), f))
}

// Load reads and parses a backup file.
func Load(path string) (userstate.Snapshot, error) {
	var snap userstate.Snapshot

	f, err := FormatOf(path)
	if err != nil {
		return snap, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return snap, fmt.Errorf("failed to read backup file: %w", err)
	}

	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &snap)
	default:
		err = json.Unmarshal(data, &snap)
	}
	if err != nil {
		return snap, fmt.Errorf("failed to parse backup %s: %w", f, err)
	}
	return snap, nil
}

// Write encodes snap into path, replacing it atomically.
func Write(path string, snap userstate.Snapshot) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case FormatYAML:
		data, err = yaml.Marshal(snap)
	default:
		data, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".userstate-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move backup into place: %w", err)
	}
	return nil
}
