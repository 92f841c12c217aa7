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

// Package keywords manages the album keyword list for a mounted content
// directory, including the ALLALBUMS and _PHOTOFRAME_ sentinels.
package keywords

import (
	"fmt"

	"github.com/PhotoframeProject/photoframe-core/pkg/dircache"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// AllAlbums expands to the current album names at read time. It is
	// never stored post-expansion.
	AllAlbums = "ALLALBUMS"
	// RootImages addresses images directly under the content root. It is
	// auto-removed once the root has no direct images.
	RootImages = "_PHOTOFRAME_"
)

// Store persists the keyword list. The on-disk format is owned by the
// caller (the config layer in this repo).
type Store interface {
	Keywords() []string
	SetKeywords(keywords []string) error
}

// Registry manages album keyword state over a content directory.
type Registry struct {
	store       Store
	cache       *dircache.Cache
	fs          afero.Fs
	contentPath string
}

func NewRegistry(store Store, cache *dircache.Cache, fs afero.Fs, contentPath string) *Registry {
	return &Registry{
		store:       store,
		cache:       cache,
		fs:          fs,
		contentPath: contentPath,
	}
}

// AlbumNames returns the subdirectory names of the content root, newest
// first. An absent content root yields an empty result.
func (r *Registry) AlbumNames() []string {
	if exists, _ := afero.DirExists(r.fs, r.contentPath); !exists {
		return nil
	}
	_, dirs := r.cache.Scan(r.contentPath)
	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.Name)
	}
	return names
}

// RootImageNames returns files directly under the content root, newest first.
func (r *Registry) RootImageNames() []string {
	if exists, _ := afero.DirExists(r.fs, r.contentPath); !exists {
		return nil
	}
	files, _ := r.cache.Scan(r.contentPath)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// List returns the stored keywords with AllAlbums expanded to the current
// album names. The expansion is computed at read time and not written
// back. If the result would be empty and the content root has direct
// images, the RootImages sentinel is seeded and persisted.
func (r *Registry) List() []string {
	if exists, _ := afero.DirExists(r.fs, r.contentPath); !exists {
		return nil
	}

	stored := r.store.Keywords()
	keywords := make([]string, 0, len(stored))
	expand := false
	for _, kw := range stored {
		if kw == AllAlbums {
			expand = true
			continue
		}
		keywords = append(keywords, kw)
	}

	if expand {
		albums := r.AlbumNames()
		for _, album := range albums {
			if !helpers.Contains(keywords, album) {
				keywords = append(keywords, album)
			}
		}
		if helpers.Contains(albums, AllAlbums) {
			log.Error().Msgf("an album must not be named %q", AllAlbums)
		}
	}

	if len(keywords) == 0 && len(r.RootImageNames()) > 0 {
		keywords = append(keywords, RootImages)
		if err := r.store.SetKeywords(keywords); err != nil {
			log.Warn().Err(err).Msg("unable to persist seeded keyword")
		}
	}

	return keywords
}

// Validate accepts the sentinels and any name matching a discovered album.
// Anything else is rejected with an explanatory error.
func (r *Registry) Validate(keyword string) error {
	if keyword == AllAlbums || keyword == RootImages {
		return nil
	}
	if helpers.Contains(r.AlbumNames(), keyword) {
		return nil
	}
	return fmt.Errorf("no such album %q", keyword)
}

// Reconcile prunes stored keywords that no longer match an album and drops
// the RootImages sentinel once the root has no direct images. Invoked
// after every mount.
func (r *Registry) Reconcile() {
	stored := r.store.Keywords()
	albums := r.AlbumNames()

	kept := make([]string, 0, len(stored))
	for _, kw := range stored {
		switch {
		case kw == AllAlbums:
			kept = append(kept, kw)
		case kw == RootImages:
			if len(r.RootImageNames()) > 0 {
				kept = append(kept, kw)
			} else {
				log.Debug().Msgf("removing keyword %q: no images directly inside the content root", kw)
			}
		case helpers.Contains(albums, kw):
			kept = append(kept, kw)
		default:
			log.Info().Msgf("removing invalid keyword: %s", kw)
		}
	}

	if len(kept) == len(stored) {
		return
	}
	if err := r.store.SetKeywords(kept); err != nil {
		log.Warn().Err(err).Msg("unable to persist reconciled keywords")
	}
}
