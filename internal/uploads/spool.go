// Package uploads spools multipart file parts to disk so the web driver can read
// them back by path, in the order they were posted.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/liteclaw/webbridge/internal/web"
)

const (
	filePrefix = "upload-"

	// maxFieldBytes caps a single non-file form value.
	maxFieldBytes int64 = 1 << 20
)

// Spool stores uploaded files under a single directory.
type Spool struct {
	dir      string
	maxBytes int64
	logger   zerolog.Logger
}

// NewSpool creates the spool directory if needed. A non-positive maxBytes selects
// web.DefaultMaxAttachmentBytes.
func NewSpool(dir string, maxBytes int64, logger zerolog.Logger) (*Spool, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "webbridge-uploads")
	}
	if maxBytes <= 0 {
		maxBytes = web.DefaultMaxAttachmentBytes
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Spool{
		dir:      dir,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "uploads").Logger(),
	}, nil
}

// Dir returns the spool directory.
func (s *Spool) Dir() string { return s.dir }

// Batch is the set of files spooled for one request.
type Batch struct {
	Files  []web.FileDescriptor
	logger zerolog.Logger
}

// Handles returns the descriptors as driver file handles, in wire order.
func (b *Batch) Handles() []any {
	if b == nil {
		return nil
	}
	out := make([]any, 0, len(b.Files))
	for _, f := range b.Files {
		out = append(out, f)
	}
	return out
}

// Cleanup removes every spooled file of the batch.
func (b *Batch) Cleanup() {
	if b == nil {
		return
	}
	for _, f := range b.Files {
		if err := os.Remove(f.TmpName); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.logger.Warn().Err(err).Str("path", f.TmpName).Msg("Failed to remove spooled upload")
		}
	}
	b.Files = nil
}

// Save copies r into a new spool file. Files over the size cap are removed and
// reported with web.ErrAttachmentTooLarge.
func (s *Spool) Save(field, filename, contentType string, r io.Reader) (web.FileDescriptor, error) {
	fh, err := os.CreateTemp(s.dir, filePrefix+"*")
	if err != nil {
		return web.FileDescriptor{}, fmt.Errorf("create spool file: %w", err)
	}

	n, err := io.Copy(fh, io.LimitReader(r, s.maxBytes+1))
	closeErr := fh.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxBytes {
		err = fmt.Errorf("%w: %s exceeds %d bytes", web.ErrAttachmentTooLarge, filename, s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(fh.Name())
		if errors.Is(err, web.ErrAttachmentRead) {
			return web.FileDescriptor{}, err
		}
		return web.FileDescriptor{}, fmt.Errorf("%w: spool %s: %v", web.ErrAttachmentRead, filename, err)
	}

	return web.FileDescriptor{
		Field:   field,
		Name:    filename,
		Type:    contentType,
		TmpName: fh.Name(),
		Size:    n,
	}, nil
}

// ReadMultipart consumes mr, returning the plain form fields and the spooled files in the
// order their parts appeared. A repeated field keeps its last value. On error every file
// spooled so far is removed.
func (s *Spool) ReadMultipart(mr *multipart.Reader) (map[string]any, *Batch, error) {
	fields := map[string]any{}
	batch := &Batch{logger: s.logger}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			batch.Cleanup()
			return nil, nil, fmt.Errorf("read multipart: %w", err)
		}

		name := part.FormName()
		filename := part.FileName()
		if filename == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			part.Close()
			if err != nil {
				batch.Cleanup()
				return nil, nil, fmt.Errorf("read form field %s: %w", name, err)
			}
			if int64(len(value)) > maxFieldBytes {
				batch.Cleanup()
				return nil, nil, fmt.Errorf("form field %s exceeds %d bytes", name, maxFieldBytes)
			}
			if name != "" {
				fields[strings.TrimSuffix(name, "[]")] = string(value)
			}
			continue
		}

		desc, err := s.Save(name, filename, part.Header.Get("Content-Type"), part)
		part.Close()
		if err != nil {
			batch.Cleanup()
			return nil, nil, err
		}
		batch.Files = append(batch.Files, desc)
	}

	if len(batch.Files) > 0 {
		s.logger.Debug().Int("files", len(batch.Files)).Msg("Uploads spooled")
	}
	return fields, batch, nil
}
