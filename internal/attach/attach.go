// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package attach turns user-selected images and documents into base64
// payloads with a media type, ready to ride on a single outgoing message.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jeranaias/guru-tui/internal/model"
)

// DefaultDocumentMimeType is used when a document's type cannot be determined.
const DefaultDocumentMimeType = "application/octet-stream"

// MaxAttachmentSize caps how much of a file is read.
const MaxAttachmentSize = 20 * 1024 * 1024 // 20MB inline request limit

// DocumentExtensions is the allow-list for document attachments.
var DocumentExtensions = []string{".dart", ".yaml", ".json", ".txt", ".pdf", ".md", ".log"}

var (
	// ErrNotImage is returned when an image attachment is not image/*.
	ErrNotImage = errors.New("not an image")

	// ErrUnsupportedDocument is returned for document extensions outside the allow-list.
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrTooLarge is returned for files over MaxAttachmentSize.
	ErrTooLarge = errors.New("attachment too large")
)

// =============================================================================
// KIND
// =============================================================================

// Kind distinguishes the two attachment inputs.
type Kind int

const (
	KindNone Kind = iota
	KindImage
	KindDocument
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDocument:
		return "document"
	default:
		return "none"
	}
}

// =============================================================================
// ENCODING
// =============================================================================

// EncodeImage base64-encodes an image. The media type is sniffed from the
// content and must be image/*.
func EncodeImage(data []byte) (*model.Image, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return &model.Image{
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: baseType(mt.String()),
	}, nil
}

// EncodeDocument base64-encodes a document named name. The extension must be
// in DocumentExtensions.
func EncodeDocument(name string, data []byte) (*model.File, error) {
	if !IsAllowedDocument(name) {
		return nil, fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedDocument,
			filepath.Ext(name), strings.Join(DocumentExtensions, ", "))
	}
	return &model.File{
		Name:     filepath.Base(name),
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: DocumentMimeType(name, data),
		Size:     int64(len(data)),
	}, nil
}

// IsAllowedDocument reports whether name has an allow-listed extension.
func IsAllowedDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range DocumentExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// DocumentMimeType picks a media type for a document. Sniffed binary types
// (PDF) win; text content is typed by extension; anything else falls back to
// DefaultDocumentMimeType.
func DocumentMimeType(name string, data []byte) string {
	if len(data) > 0 {
		mt := mimetype.Detect(data)
		if !mt.Is("text/plain") && !mt.Is("application/octet-stream") {
			return baseType(mt.String())
		}
	}
	if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return byExt
	}
	return DefaultDocumentMimeType
}

// extensionTypes types allow-listed formats that sniff as plain text.
var extensionTypes = map[string]string{
	".json": "application/json",
	".yaml": "application/x-yaml",
	".md":   "text/markdown",
	".log":  "text/plain",
	".txt":  "text/plain",
	".pdf":  "application/pdf",
}

// baseType strips parameters such as "; charset=utf-8".
func baseType(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		return strings.TrimSpace(mime[:i])
	}
	return mime
}

// ReadFile reads at most MaxAttachmentSize bytes from path.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, filepath.Base(path), FormatFileSize(MaxAttachmentSize))
	}
	return data, nil
}

// Load reads path and encodes it as kind. Documents are checked against the
// allow-list before the file is opened.
func Load(kind Kind, path string) (*model.Image, *model.File, error) {
	if kind == KindDocument && !IsAllowedDocument(path) {
		_, err := EncodeDocument(path, nil)
		return nil, nil, err
	}
	data, err := ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if kind == KindImage {
		img, err := EncodeImage(data)
		return img, nil, err
	}
	f, err := EncodeDocument(path, data)
	return nil, f, err
}

// =============================================================================
// SIZE FORMATTING
// =============================================================================

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with base-1024 units and at most one
// decimal place, e.g. "0 B", "512 B", "1.5 KB", "2 MB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	s := fmt.Sprintf("%.1f", value)
	s = strings.TrimSuffix(s, ".0")
	return s + " " + sizeUnits[unit]
}
