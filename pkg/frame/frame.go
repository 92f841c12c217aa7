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

// Package frame orchestrates the removable-storage photo source: device
// mounting, directory caching, keyword management and image selection.
// It has no background goroutines; every entry point is synchronous and
// driven by one caller per content request.
package frame

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/PhotoframeProject/photoframe-core/pkg/config"
	"github.com/PhotoframeProject/photoframe-core/pkg/dircache"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/command"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/syncutil"
	"github.com/PhotoframeProject/photoframe-core/pkg/keywords"
	"github.com/PhotoframeProject/photoframe-core/pkg/selection"
	"github.com/PhotoframeProject/photoframe-core/pkg/storage"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Service composes discovery, mounting, caching, keywords and selection
// into the photo source exposed to the slideshow manager.
type Service struct {
	cfg       *config.Instance
	fs        afero.Fs
	cache     *dircache.Cache
	discovery *storage.Discovery
	mounts    *storage.MountManager
	registry  *keywords.Registry
	rng       *rand.Rand
	state     State
	substate  Substate
	mu        syncutil.RWMutex
}

// New wires up the service. The clock is injectable for tests; a nil clock
// uses the real one. The rng is only used by tests needing determinism.
func New(cfg *config.Instance, fs afero.Fs, executor command.Executor, clock clockwork.Clock) *Service {
	cache := dircache.New(fs, clock)
	discovery := storage.NewDiscovery(executor, fs)
	mounts := storage.NewMountManager(
		executor, fs, discovery, cache, cfg.MountRoot(), cfg.ContentDirName())
	registry := keywords.NewRegistry(cfg, cache, fs, mounts.ContentPath())
	mounts.SetOnMounted(registry.Reconcile)

	return &Service{
		cfg:       cfg,
		fs:        fs,
		cache:     cache,
		discovery: discovery,
		mounts:    mounts,
		registry:  registry,
		state:     StateNoImages,
	}
}

// Kind returns the source kind of this service.
func (*Service) Kind() SourceKind {
	return KindStorage
}

// Startup reconciles the service with whatever mount state survived from a
// previous run: mounts a device if the content directory is missing,
// remounts if the root is mounted but empty, and otherwise adopts the
// already-mounted device and sweeps the keyword list.
func (s *Service) Startup(ctx context.Context) {
	contentPath := s.mounts.ContentPath()

	exists, _ := afero.DirExists(s.fs, contentPath)
	if !exists {
		_ = s.mounts.Mount(ctx)
		return
	}

	if empty, _ := afero.IsEmpty(s.fs, contentPath); empty {
		s.mounts.Unmount(ctx)
		_ = s.mounts.Mount(ctx)
		return
	}

	s.registry.Reconcile()
	for _, unit := range s.discovery.Enumerate(ctx, storage.EnumerateOptions{OnlyMounted: true}) {
		if unit.Mountpoint == s.mounts.Root() {
			s.mounts.SetActive(unit)
			log.Info().Str("device", unit.Device).Msg("adopted already-mounted storage device")
			break
		}
	}
	if s.mounts.Active() == nil {
		// Service still works, the status message just can't name the device.
		log.Warn().
			Str("root", s.mounts.Root()).
			Msg("unable to determine which storage device is mounted to the root")
	}
}

// UpdateState refreshes and returns the source state. A missing content
// directory triggers a mount attempt; a failed attempt reports the
// not-connected substate. Nothing here is fatal.
func (s *Service) UpdateState(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.substate = SubstateNone

	if exists, _ := afero.DirExists(s.fs, s.mounts.ContentPath()); !exists {
		if err := s.mounts.Mount(ctx); err != nil {
			s.state = StateNoImages
			s.substate = SubstateNotConnected
			return s.state
		}
	}

	if len(s.registry.AlbumNames()) == 0 && len(s.registry.RootImageNames()) == 0 {
		s.state = StateNoImages
		return s.state
	}

	s.state = StateReady
	return s.state
}

// State returns the last computed state and substate.
func (s *Service) State() (State, Substate) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.substate
}

// ExplainState returns a human explanation for a degraded state, or an
// empty string when there is nothing to explain.
func (s *Service) ExplainState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateNoImages {
		return ""
	}
	if s.substate == SubstateNotConnected {
		return "No storage device (e.g. USB-stick) has been detected"
	}
	return fmt.Sprintf(
		"Place images and/or albums inside a %q-directory on your storage device",
		s.cfg.ContentDirName())
}

// Messages returns operator-facing status messages about the storage source.
func (s *Service) Messages() []Message {
	active := s.mounts.Active()
	exists, _ := afero.DirExists(s.fs, s.mounts.ContentPath())
	if active != nil && exists {
		return []Message{{
			Level: MessageSuccess,
			Text:  fmt.Sprintf("Storage device %q is connected", active.Name()),
		}}
	}
	return []Message{{
		Level: MessageError,
		Text: fmt.Sprintf(
			"No storage device could be found that contains the %q-directory! "+
				"Try to reboot or manually mount the desired storage device to %q",
			s.cfg.ContentDirName(), s.mounts.Root()),
	}}
}

// HelpKeywords describes how keywords map onto the content directory.
func (s *Service) HelpKeywords() string {
	contentDir := s.cfg.ContentDirName()
	return fmt.Sprintf(
		"Place photo albums in /%s/{album_name} on your storage device.\n"+
			"Use the {album_name} as keyword (CasE-seNsitiVe!).\n"+
			"If you want to display all albums simply write %q as keyword.\n"+
			"Alternatively, place images directly inside the /%s/ directory.",
		contentDir, keywords.AllAlbums, contentDir)
}

// Keywords returns the current keyword list with sentinels resolved.
func (s *Service) Keywords() []string {
	return s.registry.List()
}

// ValidateKeyword reports whether keyword names a sentinel or an existing album.
func (s *Service) ValidateKeyword(keyword string) error {
	return s.registry.Validate(keyword)
}

// Mount exposes an explicit mount attempt, e.g. for the diagnostics CLI.
func (s *Service) Mount(ctx context.Context) error {
	return s.mounts.Mount(ctx)
}

// Unmount exposes an explicit unmount, e.g. for safe device removal.
func (s *Service) Unmount(ctx context.Context) {
	s.mounts.Unmount(ctx)
}

// ActiveDevice returns the mounted storage unit, or nil.
func (s *Service) ActiveDevice() *storage.StorageUnit {
	return s.mounts.Active()
}

// ImagesForKeyword returns a bounded, recency-biased, duplicate-free
// selection of images for keyword. The decay factor and selection bound
// are read fresh from configuration on every call. Files that vanish
// between scan and selection are skipped with a warning.
func (s *Service) ImagesForKeyword(_ context.Context, keyword string) []ImageHolder {
	contentPath := s.mounts.ContentPath()
	if exists, _ := afero.DirExists(s.fs, contentPath); !exists {
		return nil
	}

	dir := contentPath
	if keyword != keywords.RootImages {
		dir = filepath.Join(contentPath, keyword)
		if exists, _ := afero.DirExists(s.fs, dir); !exists {
			log.Warn().
				Str("album", dir).
				Msg("album does not exist, was the storage device unplugged?")
			return nil
		}
	}

	files, _ := s.cache.Scan(dir)
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}

	selected := selection.Sample(s.rng, names, s.cfg.MaxImages(), s.cfg.DecayFactor())

	images := make([]ImageHolder, 0, len(selected))
	for _, name := range selected {
		full := filepath.Join(dir, name)
		if exists, _ := afero.Exists(s.fs, full); !exists {
			log.Warn().Str("file", full).Msg("file vanished before selection, skipping")
			continue
		}
		images = append(images, ImageHolder{
			ID:           helpers.HashString(full),
			Source:       full,
			Mimetype:     detectMimetype(s.fs, full),
			Filename:     name,
			CacheAllowed: false,
		})
	}
	return images
}
