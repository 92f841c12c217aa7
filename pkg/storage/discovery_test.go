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
	"fmt"
	"testing"

	"github.com/PhotoframeProject/photoframe-core/pkg/testing/mocks"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func udevProperties(devname string, freshness int64) []byte {
	return []byte(fmt.Sprintf(
		"ID_BUS=usb\nDEVNAME=%s\nUSEC_INITIALIZED=%d\nID_MODEL=Flash_Disk\n",
		devname, freshness))
}

func lsblkJSON(partitions ...string) []byte {
	out := `{"blockdevices":[{"name":"disk","children":[`
	for i, p := range partitions {
		if i > 0 {
			out += ","
		}
		out += p
	}
	out += `]}]}`
	return []byte(out)
}

func partitionJSON(name, fstype, mountpoint string) string {
	mp := "null"
	if mountpoint != "" {
		mp = fmt.Sprintf("%q", mountpoint)
	}
	return fmt.Sprintf(
		`{"name":%q,"fstype":%q,"uuid":"1234-ABCD","label":" PHOTOS ","size":16008609792,`+
			`"hotplug":true,"mountpoint":%s}`, name, fstype, mp)
}

// newTestDiscovery creates a discovery over an in-memory /sys/block tree.
func newTestDiscovery(t *testing.T, exec *mocks.MockCommandExecutor, devices ...string) *Discovery {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, dev := range devices {
		require.NoError(t, fs.MkdirAll("/sys/block/"+dev, 0o755))
	}
	return NewDiscovery(exec, fs)
}

func TestEnumerateReturnsSupportedPartitions(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/sda"}).
		Return(udevProperties("/dev/sda", 100), nil)
	exec.On("Output", mock.Anything, "lsblk", []string{"-bOJ", "/dev/sda"}).
		Return(lsblkJSON(
			partitionJSON("sda1", "vfat", ""),
			partitionJSON("sda2", "squashfs", ""),
		), nil)

	d := newTestDiscovery(t, exec, "sda")
	units := d.Enumerate(context.Background(), EnumerateOptions{})

	require.Len(t, units, 1, "unsupported filesystems are filtered")
	unit := units[0]
	assert.Equal(t, "/dev/sda1", unit.Device)
	assert.Equal(t, "vfat", unit.Filesystem)
	assert.Equal(t, "1234-ABCD", unit.UUID)
	assert.Equal(t, "PHOTOS", unit.Label, "labels are trimmed")
	assert.Equal(t, int64(16008609792), unit.SizeBytes)
	assert.True(t, unit.Hotplug)
	assert.Equal(t, int64(100), unit.Freshness)
	assert.False(t, unit.Mounted())
	assert.Equal(t, "PHOTOS", unit.Name())
}

func TestEnumerateOrdersByFreshnessDescending(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/sda"}).
		Return(udevProperties("/dev/sda", 100), nil)
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/sdb"}).
		Return(udevProperties("/dev/sdb", 900), nil)
	exec.On("Output", mock.Anything, "lsblk", []string{"-bOJ", "/dev/sda"}).
		Return(lsblkJSON(partitionJSON("sda1", "ext4", "")), nil)
	exec.On("Output", mock.Anything, "lsblk", []string{"-bOJ", "/dev/sdb"}).
		Return(lsblkJSON(partitionJSON("sdb1", "exfat", "")), nil)

	d := newTestDiscovery(t, exec, "sda", "sdb")
	units := d.Enumerate(context.Background(), EnumerateOptions{})

	require.Len(t, units, 2)
	assert.Equal(t, "/dev/sdb1", units[0].Device, "freshest device first")
	assert.Equal(t, "/dev/sda1", units[1].Device)
}

func TestEnumerateMountStateFilters(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/sda"}).
		Return(udevProperties("/dev/sda", 100), nil)
	exec.On("Output", mock.Anything, "lsblk", []string{"-bOJ", "/dev/sda"}).
		Return(lsblkJSON(
			partitionJSON("sda1", "vfat", "/mnt/usb1"),
			partitionJSON("sda2", "vfat", ""),
		), nil)

	d := newTestDiscovery(t, exec, "sda")

	mounted := d.Enumerate(context.Background(), EnumerateOptions{OnlyMounted: true})
	require.Len(t, mounted, 1)
	assert.Equal(t, "/dev/sda1", mounted[0].Device)
	assert.Equal(t, "/mnt/usb1", mounted[0].Mountpoint)

	unmounted := d.Enumerate(context.Background(), EnumerateOptions{OnlyUnmounted: true})
	require.Len(t, unmounted, 1)
	assert.Equal(t, "/dev/sda2", unmounted[0].Device)
}

func TestEnumerateSkipsNonUSBDevices(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/mmcblk0"}).
		Return([]byte("DEVNAME=/dev/mmcblk0\nID_BUS=mmc\n"), nil)

	d := newTestDiscovery(t, exec, "mmcblk0")
	assert.Empty(t, d.Enumerate(context.Background(), EnumerateOptions{}))
	exec.AssertNotCalled(t, "Output", mock.Anything, "lsblk", mock.Anything)
}

func TestEnumerateToleratesCommandFailures(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockCommandExecutor{}
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/sda"}).
		Return([]byte(nil), errors.New("udevadm not found"))
	exec.On("Output", mock.Anything, "udevadm",
		[]string{"info", "--query=property", "/sys/block/sdb"}).
		Return(udevProperties("/dev/sdb", 50), nil)
	exec.On("Output", mock.Anything, "lsblk", []string{"-bOJ", "/dev/sdb"}).
		Return([]byte("not json"), nil)

	d := newTestDiscovery(t, exec, "sda", "sdb")
	assert.Empty(t, d.Enumerate(context.Background(), EnumerateOptions{}),
		"device layer failures yield an empty result, not an error")
}

func TestEnumerateWithoutBlockDeviceTree(t *testing.T) {
	t.Parallel()

	d := NewDiscovery(&mocks.MockCommandExecutor{}, afero.NewMemMapFs())
	assert.Empty(t, d.Enumerate(context.Background(), EnumerateOptions{}))
}

func TestLsblkFlagDecoding(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]bool{
		`true`: true, `false`: false, `"1"`: true, `"0"`: false, `1`: true, `0`: false,
	} {
		var f lsblkFlag
		require.NoError(t, f.UnmarshalJSON([]byte(raw)))
		assert.Equal(t, want, bool(f), "raw=%s", raw)
	}
}
