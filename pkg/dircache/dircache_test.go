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

package dircache

import (
	"testing"
	"time"

	testhelpers "github.com/PhotoframeProject/photoframe-core/pkg/testing/helpers"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFs counts directory opens so tests can prove a cached result
// was served without a second underlying read.
type countingFs struct {
	afero.Fs
	opens int
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens++
	return c.Fs.Open(name) //nolint:wrapcheck // test wrapper
}

const content = "/mnt/usb1/photoframe"

func newFixture(t *testing.T, at time.Time) (*countingFs, *clockwork.FakeClock, *Cache) {
	t.Helper()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, h.CreatePhotoTree(content,
		[]string{"old.jpg", "mid.jpg", "new.jpg"},
		map[string][]string{"Trip": {"a.jpg", "b.jpg"}},
	))
	require.NoError(t, h.TouchDir(content, at.Add(-time.Hour)))

	fs := &countingFs{Fs: h.Fs}
	clock := clockwork.NewFakeClockAt(at)
	return fs, clock, New(fs, clock)
}

func TestScanSortsNewestFirstAndSkipsHidden(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	h := testhelpers.NewMemoryFS()
	require.NoError(t, h.CreatePhotoTree(content,
		[]string{"old.jpg", "new.jpg"}, nil))
	require.NoError(t, afero.WriteFile(h.Fs, content+"/.hidden.jpg", []byte("x"), 0o644))

	cache := New(h.Fs, clockwork.NewFakeClockAt(at))
	files, dirs := cache.Scan(content)

	require.Len(t, files, 2)
	assert.Empty(t, dirs)
	assert.Equal(t, "new.jpg", files[0].Name)
	assert.Equal(t, "old.jpg", files[1].Name)
}

func TestScanServesCachedResultWithoutRescan(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	fs, _, cache := newFixture(t, at)

	first, firstDirs := cache.Scan(content)
	opensAfterFirst := fs.opens
	second, secondDirs := cache.Scan(content)

	assert.Equal(t, first, second)
	assert.Equal(t, firstDirs, secondDirs)
	assert.Equal(t, opensAfterFirst, fs.opens, "second scan must not re-read the directory")
}

func TestScanRescansWhenDirMTimeChanges(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	fs, _, cache := newFixture(t, at)

	files, _ := cache.Scan(content)
	require.Len(t, files, 3)

	// Simulate a new file arriving: write it and bump the directory mtime.
	require.NoError(t, afero.WriteFile(fs, content+"/fresh.jpg", testhelpers.JPEGHeader, 0o644))
	require.NoError(t, fs.Chtimes(content+"/fresh.jpg", at, at))
	require.NoError(t, fs.Chtimes(content, at, at))

	files, _ = cache.Scan(content)
	assert.Len(t, files, 4)
	assert.Equal(t, "fresh.jpg", files[0].Name)
}

func TestScanInvalidAfterDailyCutoff(t *testing.T) {
	t.Parallel()

	// Entry created at 02:59 must be stale at 03:01 even with an
	// unchanged directory mtime.
	at := time.Date(2026, 1, 3, 2, 59, 0, 0, time.UTC)
	fs, clock, cache := newFixture(t, at)

	cache.Scan(content)
	opensAfterFirst := fs.opens

	clock.Advance(2 * time.Minute)
	cache.Scan(content)
	assert.Greater(t, fs.opens, opensAfterFirst, "scan after 03:00 must re-read the directory")
}

func TestScanStillValidSameDay(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC)
	fs, clock, cache := newFixture(t, at)

	cache.Scan(content)
	opensAfterFirst := fs.opens

	clock.Advance(6 * time.Hour) // 15:00, still before next 03:00
	cache.Scan(content)
	assert.Equal(t, opensAfterFirst, fs.opens)
}

func TestScanNonexistentPath(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	_, _, cache := newFixture(t, at)

	files, dirs := cache.Scan("/mnt/usb1/nope")
	assert.Empty(t, files)
	assert.Empty(t, dirs)
}

func TestInvalidateForcesRescan(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	fs, _, cache := newFixture(t, at)

	cache.Scan(content)
	opensAfterFirst := fs.opens

	cache.Invalidate(content)
	cache.Scan(content)
	assert.Greater(t, fs.opens, opensAfterFirst)

	opensAfterSecond := fs.opens
	cache.InvalidateAll()
	cache.Scan(content)
	assert.Greater(t, fs.opens, opensAfterSecond)
}
