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

// Package dircache caches directory scans keyed by path.
//
// An entry stays valid until the directory mtime changes or the wall clock
// crosses the next 03:00 boundary after the scan. The mtime check catches
// intra-day additions, the daily cutoff catches identical-looking remounts
// at different times; together they bound staleness to at most one day
// without repeatedly rescanning large media directories.
package dircache

import (
	"sort"
	"strings"
	"time"

	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// cutoffHour is the local hour after which entries from the previous day
// are considered stale, accounting for media synced onto the device daily.
const cutoffHour = 3

// Entry is one directory member with its modification time.
type Entry struct {
	MTime time.Time
	Name  string
}

// pathEntry holds one cached scan. Entries are replaced wholesale, never
// mutated, so returned slices stay safe to read without the cache lock.
type pathEntry struct {
	createdAt time.Time
	dirMTime  time.Time
	files     []Entry
	dirs      []Entry
}

// Cache caches directory scans keyed by absolute path. Safe for concurrent
// use; readers never observe a partially updated entry.
type Cache struct {
	fs      afero.Fs
	clock   clockwork.Clock
	entries map[string]*pathEntry
	mu      syncutil.RWMutex
}

// New creates a Cache over fs. A nil clock uses the real clock.
func New(fs afero.Fs, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		fs:      fs,
		clock:   clock,
		entries: make(map[string]*pathEntry),
	}
}

// Scan returns the files and subdirectories of path, each sorted newest
// first and with hidden (dot-prefixed) entries excluded. A valid cached
// result is returned without touching the filesystem beyond one stat; a
// nonexistent path yields two empty slices and creates no entry.
func (c *Cache) Scan(path string) (files, dirs []Entry) {
	info, err := c.fs.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	dirMTime := info.ModTime()

	c.mu.RLock()
	entry := c.entries[path]
	c.mu.RUnlock()

	if entry != nil && c.valid(entry, dirMTime) {
		log.Debug().Str("path", path).Msg("using cached directory scan")
		return entry.files, entry.dirs
	}

	members, err := afero.ReadDir(c.fs, path)
	if err != nil {
		return nil, nil
	}

	fresh := &pathEntry{
		createdAt: c.clock.Now(),
		dirMTime:  dirMTime,
	}
	for _, member := range members {
		if strings.HasPrefix(member.Name(), ".") {
			continue
		}
		e := Entry{MTime: member.ModTime(), Name: member.Name()}
		if member.IsDir() {
			fresh.dirs = append(fresh.dirs, e)
		} else {
			fresh.files = append(fresh.files, e)
		}
	}
	sortNewestFirst(fresh.files)
	sortNewestFirst(fresh.dirs)

	c.mu.Lock()
	c.entries[path] = fresh
	c.mu.Unlock()

	log.Debug().
		Str("path", path).
		Int("files", len(fresh.files)).
		Int("dirs", len(fresh.dirs)).
		Msg("cached directory scan")

	return fresh.files, fresh.dirs
}

// valid reports whether entry may still be served for a directory whose
// current mtime is dirMTime.
func (c *Cache) valid(entry *pathEntry, dirMTime time.Time) bool {
	now := c.clock.Now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), cutoffHour, 0, 0, 0, now.Location())
	if now.Before(cutoff) {
		cutoff = cutoff.AddDate(0, 0, -1)
	}
	if entry.createdAt.Before(cutoff) {
		return false
	}
	return entry.dirMTime.Equal(dirMTime)
}

// Invalidate drops the cached entry for path, if any.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// InvalidateAll drops every cached entry. Called by the mount manager on
// every mount-table change.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*pathEntry)
	log.Debug().Msg("directory cache invalidated")
}

// sortNewestFirst orders entries descending by modification time, with the
// name as a tie-breaker for a stable ordering.
func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MTime.Equal(entries[j].MTime) {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].MTime.After(entries[j].MTime)
	})
}
