package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cast"
)

// DefaultMaxAttachmentBytes caps a single decoded upload.
const DefaultMaxAttachmentBytes int64 = 25 * 1024 * 1024

var (
	// ErrAttachmentRead indicates an uploaded file could not be resolved or read.
	ErrAttachmentRead = errors.New("attachment read failed")
	// ErrAttachmentTooLarge indicates an uploaded file exceeds the size cap.
	ErrAttachmentTooLarge = fmt.Errorf("%w: file too large", ErrAttachmentRead)
)

// FileDescriptor is an array-style upload reference: the file already sits on disk at TmpName.
type FileDescriptor struct {
	Field   string `json:"field,omitempty"`
	Name    string `json:"name,omitempty"`
	Type    string `json:"type,omitempty"`
	TmpName string `json:"tmp_name"`
	Size    int64  `json:"size,omitempty"`
}

// DecoderConfig configures attachment decoding.
type DecoderConfig struct {
	MaxBytes  int64
	ProbeMime bool
}

// Decoder turns uploaded files into self-contained data URIs.
type Decoder struct {
	maxBytes  int64
	probeMime bool
}

// NewDecoder creates a decoder. A non-positive MaxBytes selects DefaultMaxAttachmentBytes.
func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxAttachmentBytes
	}
	return &Decoder{maxBytes: cfg.MaxBytes, probeMime: cfg.ProbeMime}
}

// Decode reads file completely and returns "data:<mime>;base64,<content>".
//
// Accepted handles are *multipart.FileHeader, FileDescriptor (or a pointer to one),
// a map carrying a "tmp_name" key, and a plain filesystem path.
// Every failure wraps ErrAttachmentRead.
func (d *Decoder) Decode(file any) (string, error) {
	data, err := d.read(file)
	if err != nil {
		return "", err
	}
	return DataURI(d.detectMime(data), data), nil
}

func (d *Decoder) read(file any) ([]byte, error) {
	switch f := file.(type) {
	case *multipart.FileHeader:
		if f == nil {
			return nil, fmt.Errorf("%w: nil file header", ErrAttachmentRead)
		}
		src, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrAttachmentRead, f.Filename, err)
		}
		defer src.Close()
		return d.readAll(f.Filename, src)
	case FileDescriptor:
		return d.readPath(f.TmpName)
	case *FileDescriptor:
		if f == nil {
			return nil, fmt.Errorf("%w: nil file descriptor", ErrAttachmentRead)
		}
		return d.readPath(f.TmpName)
	case map[string]any:
		return d.readPath(cast.ToString(f["tmp_name"]))
	case map[string]string:
		return d.readPath(f["tmp_name"])
	case string:
		return d.readPath(f)
	default:
		return nil, fmt.Errorf("%w: unsupported file handle %T", ErrAttachmentRead, file)
	}
}

func (d *Decoder) readPath(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: missing file path", ErrAttachmentRead)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrAttachmentRead, path, err)
	}
	fh, err := os.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrAttachmentRead, resolved, err)
	}
	defer fh.Close()
	return d.readAll(resolved, fh)
}

func (d *Decoder) readAll(name string, r io.Reader) ([]byte, error) {
	limited := &io.LimitedReader{R: r, N: d.maxBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrAttachmentRead, name, err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAttachmentTooLarge, name, d.maxBytes)
	}
	return data, nil
}

func (d *Decoder) detectMime(data []byte) string {
	if !d.probeMime {
		return ""
	}
	mt := mimetype.Detect(data).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}

// DataURI encodes data as a base64 data URI.
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI produced by DataURI back into its parts.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload separator")
	}
	mime, ok := strings.CutSuffix(strings.TrimSpace(header), ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI: %w", err)
	}
	return mime, data, nil
}
