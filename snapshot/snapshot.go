// Package snapshot writes one JSON document per crawled profile, either to a
// local directory or to any storage URL supported by viant/afs.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/viant/afs"
	"github.com/viant/afs/url"

	vk "github.com/anatolykoptev/go-vk"
)

// DefaultDir is where snapshots go when no directory is given.
const DefaultDir = "./apiData"

const timeLayout = "20060102_150405"

// Writer writes profile snapshots under a base URL.
type Writer struct {
	fs   afs.Service
	base string
	now  func() time.Time
}

// New creates a Writer rooted at dir. dir may be a local path or a URL such
// as s3://bucket/prefix. Local directories are created if missing.
func New(dir string) (*Writer, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if !strings.Contains(dir, "://") {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("snapshot: resolve %s: %w", dir, err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("snapshot: create %s: %w", abs, err)
		}
		dir = abs
	}
	return &Writer{fs: afs.New(), base: dir, now: time.Now}, nil
}

// Dir returns the resolved base location.
func (w *Writer) Dir() string { return w.base }

// Write stores p as indented JSON and returns the written location.
func (w *Writer) Write(ctx context.Context, p *vk.UserProfile) (string, error) {
	data, err := json.MarshalIndent(p, "", "    ")
	if err != nil {
		return "", fmt.Errorf("snapshot: encode %d: %w", p.ID, err)
	}
	dest := url.Join(w.base, FileName(p, w.now()))
	if err := w.fs.Upload(ctx, dest, 0o644, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("snapshot: upload %s: %w", dest, err)
	}
	return dest, nil
}

// FileName returns "<First>_<Last>_id<N>_<YYYYmmdd_HHMMSS>.json" for p. Name
// parts that sanitize to nothing are left out. The ID keeps same-named users
// written within one second apart.
func FileName(p *vk.UserProfile, t time.Time) string {
	var parts []string
	for _, s := range []string{p.FirstName, p.LastName} {
		if s = sanitize(s); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, "id"+p.ID.String(), t.Format(timeLayout))
	return strings.Join(parts, "_") + ".json"
}

// sanitize keeps letters, digits and dashes; runs of anything else become one underscore.
func sanitize(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
