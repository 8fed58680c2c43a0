// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package attach

import "github.com/jeranaias/guru-tui/internal/model"

// Staged holds the attachment pending on the input row. At most one of
// image and document is set; staging one clears the other.
type Staged struct {
	image *model.Image
	file  *model.File
}

// SetImage stages an image and drops any staged document.
func (s *Staged) SetImage(img *model.Image) {
	s.image = img
	s.file = nil
}

// SetDocument stages a document and drops any staged image.
func (s *Staged) SetDocument(f *model.File) {
	s.file = f
	s.image = nil
}

// Clear drops whatever is staged.
func (s *Staged) Clear() {
	s.image = nil
	s.file = nil
}

// Image returns the staged image, if any.
func (s *Staged) Image() *model.Image { return s.image }

// Document returns the staged document, if any.
func (s *Staged) Document() *model.File { return s.file }

// Kind reports what is staged.
func (s *Staged) Kind() Kind {
	switch {
	case s.image != nil:
		return KindImage
	case s.file != nil:
		return KindDocument
	default:
		return KindNone
	}
}

// Empty reports whether nothing is staged.
func (s *Staged) Empty() bool { return s.Kind() == KindNone }

// Label is the chip text shown above the input, e.g. "main.dart (1.2 KB)".
func (s *Staged) Label() string {
	switch {
	case s.file != nil:
		return s.file.Name + " (" + FormatFileSize(s.file.Size) + ")"
	case s.image != nil:
		return "Image attached"
	default:
		return ""
	}
}

// Take returns the staged payloads and clears the stage.
func (s *Staged) Take() (*model.Image, *model.File) {
	img, f := s.image, s.file
	s.Clear()
	return img, f
}
