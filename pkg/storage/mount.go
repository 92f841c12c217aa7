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

package storage

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/command"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrNoDevice is returned by Mount when no candidate device could be
// mounted with the expected content directory. It is a recoverable
// condition, re-evaluated on the next state refresh.
var ErrNoDevice = errors.New("no storage device with a content directory could be mounted")

// CacheInvalidator is notified on every mount-table change. A directory
// mtime probe on a path lost to unmount is not a reliable equality check,
// so the cache must be dropped explicitly.
type CacheInvalidator interface {
	InvalidateAll()
}

// MountManager mounts and unmounts removable storage devices against a
// single mount root. Mount and unmount are blocking external-process
// invocations and are serialized per root by an internal mutex.
type MountManager struct {
	executor   command.Executor
	fs         afero.Fs
	discovery  *Discovery
	cache      CacheInvalidator
	onMounted  func()
	active     *StorageUnit
	root       string
	contentDir string
	mu         syncutil.Mutex
}

func NewMountManager(
	executor command.Executor,
	fs afero.Fs,
	discovery *Discovery,
	cache CacheInvalidator,
	root, contentDir string,
) *MountManager {
	return &MountManager{
		executor:   executor,
		fs:         fs,
		discovery:  discovery,
		cache:      cache,
		root:       root,
		contentDir: contentDir,
	}
}

// SetOnMounted registers a hook invoked after a device with a content
// directory has been mounted. Used for the keyword validity sweep.
func (m *MountManager) SetOnMounted(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMounted = hook
}

// Root returns the mount root path.
func (m *MountManager) Root() string {
	return m.root
}

// ContentPath returns the expected content directory beneath the mount root.
func (m *MountManager) ContentPath() string {
	return filepath.Join(m.root, m.contentDir)
}

// Active returns the currently mounted storage unit, or nil when no device
// is mounted.
func (m *MountManager) Active() *StorageUnit {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	unit := *m.active
	return &unit
}

// SetActive records an externally observed active device. Used at startup
// when a device is already mounted to the root from a previous run.
func (m *MountManager) SetActive(unit StorageUnit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = &unit
}

// Mount creates the mount root if absent, then tries every unmounted
// candidate in discovery order until one mounts and carries the content
// directory. Unplugging and replugging a stick makes the OS see a new,
// fresher device, so discovery order prefers the most recent plug.
func (m *MountManager) Mount(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exists, _ := afero.DirExists(m.fs, m.root); !exists {
		if err := m.executor.Run(ctx, "mkdir", m.root); err != nil {
			log.Error().Err(err).Str("path", m.root).Msg("unable to create mount root")
		}
	}

	candidates := m.discovery.Enumerate(ctx, EnumerateOptions{OnlyUnmounted: true})

	for _, candidate := range candidates {
		err := m.executor.Run(ctx, "sudo", "-n", "mount", candidate.Device, m.root)
		if err == nil {
			log.Info().
				Str("device", candidate.Device).
				Str("root", m.root).
				Msg("storage device mounted")

			if exists, _ := afero.DirExists(m.fs, m.ContentPath()); exists {
				m.active = &candidate
				m.cache.InvalidateAll()
				if m.onMounted != nil {
					m.onMounted()
				}
				return nil
			}

			log.Warn().
				Str("device", candidate.Device).
				Str("content", m.ContentPath()).
				Msg("mounted device has no content directory")
		} else {
			log.Warn().
				Err(err).
				Str("device", candidate.Device).
				Str("root", m.root).
				Msg("unable to mount storage device")
		}

		m.unmountLocked(ctx)
	}

	m.active = nil
	log.Debug().Str("root", m.root).Msg("no storage device could be mounted")
	return ErrNoDevice
}

// Unmount unmounts the root. It is idempotent: unmounting an already
// unmounted root logs but never fails.
func (m *MountManager) Unmount(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmountLocked(ctx)
	m.active = nil
}

func (m *MountManager) unmountLocked(ctx context.Context) {
	err := m.executor.Run(ctx, "sudo", "-n", "umount", m.root)
	if err != nil {
		log.Debug().Err(err).Str("root", m.root).Msg("unable to unmount root")
		return
	}
	m.cache.InvalidateAll()
}
