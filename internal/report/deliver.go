package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RenderError reports a failure to produce the document file.
type RenderError struct {
	SessionID string
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report for session %s: %v", e.SessionID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Archiver stores a copy of a rendered report.
type Archiver interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// Artifact is a rendered report handed to the caller's transport.
type Artifact struct {
	SessionID   string
	Path        string
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Body        io.ReadSeeker
}

// Handoff streams an artifact to its destination. The body is only valid
// until Handoff returns.
type Handoff func(ctx context.Context, a Artifact) error

// Deliverer renders reports into short-lived temp files.
type Deliverer struct {
	dir       string
	renderers map[Format]Renderer
	archive   Archiver
	now       func() time.Time
}

// Option customises a Deliverer.
type Option func(*Deliverer)

// WithRenderer overrides the renderer used for a format.
func WithRenderer(format Format, r Renderer) Option {
	return func(d *Deliverer) { d.renderers[format] = r }
}

// WithArchive uploads every rendered file before hand-off.
func WithArchive(a Archiver) Option {
	return func(d *Deliverer) { d.archive = a }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Deliverer) { d.now = now }
}

// NewDeliverer writes temp files into dir, or the OS temp dir when dir is empty.
func NewDeliverer(dir string, opts ...Option) *Deliverer {
	if dir == "" {
		dir = os.TempDir()
	}
	d := &Deliverer{
		dir: dir,
		renderers: map[Format]Renderer{
			FormatPDF:  PDFRenderer{},
			FormatDOCX: DOCXRenderer{},
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func safeName(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "_")
	if s == "" {
		return "session"
	}
	return s
}

// DownloadName is the attachment file name offered to clients.
func DownloadName(sessionID string, at time.Time, ext string) string {
	return fmt.Sprintf("Interview_Training_Report_%s_%s.%s", safeName(sessionID), at.UTC().Format("20060102-150405"), ext)
}

// Deliver renders doc to a unique temp file, optionally archives it, and passes
// it to handoff. The temp file is removed on every path. Render failures return
// *RenderError; handoff failures are logged and returned.
func (d *Deliverer) Deliver(ctx context.Context, doc Document, format Format, handoff Handoff) error {
	renderer, ok := d.renderers[format]
	if !ok {
		return &RenderError{SessionID: doc.SessionID, Err: errors.Errorf("unsupported report format %q", format)}
	}

	now := d.now()
	name := fmt.Sprintf("interview_report_%s_%d_%s.%s", safeName(doc.SessionID), now.UnixNano(), uuid.NewString(), renderer.Extension())
	path := filepath.Join(d.dir, name)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return &RenderError{SessionID: doc.SessionID, Err: errors.Wrap(err, "create temp file")}
	}
	defer d.cleanup(doc.SessionID, f, path)

	if err := renderer.Render(f, doc); err != nil {
		return &RenderError{SessionID: doc.SessionID, Err: err}
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return &RenderError{SessionID: doc.SessionID, Err: errors.Wrap(err, "measure temp file")}
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return &RenderError{SessionID: doc.SessionID, Err: errors.Wrap(err, "rewind temp file")}
	}

	if d.archive != nil {
		d.archiveCopy(ctx, doc.SessionID, f, name, size, renderer.ContentType())
	}

	artifact := Artifact{
		SessionID:   doc.SessionID,
		Path:        path,
		Name:        DownloadName(doc.SessionID, now, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Size:        size,
		ModTime:     now,
		Body:        f,
	}
	if err := handoff(ctx, artifact); err != nil {
		log.Error().Err(err).
			Str("session_id", doc.SessionID).
			Str("stage", "deliver").
			Msg("report hand-off failed")
		return errors.Wrap(err, "hand off report")
	}
	return nil
}

func (d *Deliverer) archiveCopy(ctx context.Context, sessionID string, f *os.File, name string, size int64, contentType string) {
	key := fmt.Sprintf("reports/%s/%s", safeName(sessionID), name)
	if err := d.archive.Put(ctx, key, io.NewSectionReader(f, 0, size), size, contentType); err != nil {
		log.Warn().Err(err).
			Str("session_id", sessionID).
			Str("stage", "archive").
			Str("key", key).
			Msg("report archive upload failed")
	}
}

func (d *Deliverer) cleanup(sessionID string, f *os.File, path string) {
	if err := f.Close(); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Str("stage", "cleanup").Msg("close report temp file")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("session_id", sessionID).Str("stage", "cleanup").Str("path", path).Msg("remove report temp file")
	}
}
