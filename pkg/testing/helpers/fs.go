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

// Package helpers provides filesystem fixtures for tests.
package helpers

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// JPEGHeader is a minimal JPEG magic so mimetype sniffing sees image/jpeg.
var JPEGHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46}

// FSHelper provides utilities for filesystem mocking in tests.
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing.
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// CreatePhotoTree creates a content directory with albums and root images.
// Files are created oldest-first with one minute between modification
// times, so the last name in each list is the newest.
func (h *FSHelper) CreatePhotoTree(contentPath string, rootImages []string, albums map[string][]string) error {
	if err := h.Fs.MkdirAll(contentPath, 0o755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}

	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	if err := h.createImages(contentPath, rootImages, base); err != nil {
		return err
	}

	for album, images := range albums {
		albumPath := filepath.Join(contentPath, album)
		if err := h.Fs.MkdirAll(albumPath, 0o755); err != nil {
			return fmt.Errorf("failed to create album %s: %w", albumPath, err)
		}
		if err := h.createImages(albumPath, images, base); err != nil {
			return err
		}
	}
	return nil
}

func (h *FSHelper) createImages(dir string, names []string, base time.Time) error {
	for i, name := range names {
		path := filepath.Join(dir, name)
		if err := afero.WriteFile(h.Fs, path, JPEGHeader, 0o644); err != nil {
			return fmt.Errorf("failed to write image %s: %w", path, err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := h.Fs.Chtimes(path, mtime, mtime); err != nil {
			return fmt.Errorf("failed to set mtime on %s: %w", path, err)
		}
	}
	return nil
}

// TouchDir bumps the directory mtime, simulating a content change the
// cache must notice.
func (h *FSHelper) TouchDir(path string, t time.Time) error {
	if err := h.Fs.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("failed to touch directory %s: %w", path, err)
	}
	return nil
}
