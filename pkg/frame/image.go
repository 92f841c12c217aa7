// Photoframe Core
// Copyright (c) 2026 The Photoframe Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Photoframe Core.
//
// Photoframe Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Photoframe Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Photoframe Core.  If not, see <http://www.gnu.org/licenses/>.

package frame

import (
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// mimeSniffLen bounds how much of a file is read for mimetype detection.
const mimeSniffLen = 3072

// ImageHolder describes one selected image. Holders are created per
// selection call and never persisted.
type ImageHolder struct {
	// ID is a content-path-derived stable identifier.
	ID string
	// Source is the full path of the image on the mounted device.
	Source string
	// Mimetype is the detected media type, empty if detection failed.
	Mimetype string
	// Filename is the display name of the image.
	Filename string
	// CacheAllowed is always false for storage images: the files are
	// already local, caching them again would only wear the SD card.
	CacheAllowed bool
}

// detectMimetype sniffs the media type from the file header. Detection
// failures yield an empty string, not an error: the renderer downstream
// re-validates mimetypes anyway.
func detectMimetype(fs afero.Fs, path string) string {
	f, err := fs.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, mimeSniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && n == 0 {
		return ""
	}
	return mimetype.Detect(head[:n]).String()
}
