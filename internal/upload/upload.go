// Package upload turns a user-selected file into quiz.UploadedMaterial.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/abhisek/examgen/internal/quiz"
)

// Sentinel errors for uploads.
var (
	ErrNoFile          = errors.New("no file selected")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// UploadError reports a file that cannot be used as study material. No
// application state changes when one is returned.
type UploadError struct {
	Name   string
	Err    error
	Detail string
}

func (e *UploadError) Error() string {
	msg := e.Err.Error()
	if e.Name != "" {
		msg = e.Name + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Load reads the file at path. maxBytes <= 0 disables the size check.
func Load(path string, maxBytes int64) (quiz.UploadedMaterial, error) {
	if strings.TrimSpace(path) == "" {
		return quiz.UploadedMaterial{}, &UploadError{Err: ErrNoFile}
	}

	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return quiz.UploadedMaterial{}, &UploadError{Name: name, Err: ErrNoFile, Detail: "not found"}
		}
		return quiz.UploadedMaterial{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return quiz.UploadedMaterial{}, &UploadError{Name: name, Err: ErrNoFile, Detail: "is a directory"}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return quiz.UploadedMaterial{}, tooLarge(name, info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return quiz.UploadedMaterial{}, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(name, data, maxBytes)
}

// FromReader reads at most maxBytes+1 bytes from r.
func FromReader(name string, r io.Reader, maxBytes int64) (quiz.UploadedMaterial, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return quiz.UploadedMaterial{}, fmt.Errorf("read %s: %w", name, err)
	}
	return FromBytes(name, data, maxBytes)
}

// FromBytes validates data and classifies it by content, not by name.
func FromBytes(name string, data []byte, maxBytes int64) (quiz.UploadedMaterial, error) {
	if len(data) == 0 {
		return quiz.UploadedMaterial{}, &UploadError{Name: name, Err: ErrNoFile, Detail: "empty file"}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return quiz.UploadedMaterial{}, tooLarge(name, int64(len(data)), maxBytes)
	}

	mimeType, kind, err := Sniff(data)
	if err != nil {
		return quiz.UploadedMaterial{}, &UploadError{Name: name, Err: ErrUnsupportedType, Detail: mimeType}
	}

	return quiz.UploadedMaterial{
		Name:     name,
		Data:     data,
		MIMEType: mimeType,
		Kind:     kind,
	}, nil
}

// Sniff detects the media type of data. Only PDF documents, images and
// videos are accepted; the detected type is returned either way.
func Sniff(data []byte) (string, quiz.Kind, error) {
	mt := mimetype.Detect(data)
	mimeType, _, _ := strings.Cut(mt.String(), ";")

	switch {
	case mt.Is("application/pdf"),
		strings.HasPrefix(mimeType, "image/"),
		strings.HasPrefix(mimeType, "video/"):
		return mimeType, quiz.KindFromMIME(mimeType), nil
	}
	return mimeType, "", ErrUnsupportedType
}

func tooLarge(name string, size, max int64) error {
	return &UploadError{
		Name:   name,
		Err:    ErrFileTooLarge,
		Detail: fmt.Sprintf("%.1f MB, max %.0f MB", float64(size)/(1<<20), float64(max)/(1<<20)),
	}
}
