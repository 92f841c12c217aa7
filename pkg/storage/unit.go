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

// Package storage discovers and mounts removable storage devices.
package storage

// StorageUnit is an immutable description of one candidate partition on a
// removable device. Units are discovered fresh on each enumeration and are
// never persisted beyond the mount manager's active device reference.
type StorageUnit struct {
	// Device is the block device path, e.g. /dev/sda1.
	Device string
	// UUID is the filesystem UUID, if the partition has one.
	UUID string
	// Label is the volume label, if set.
	Label string
	// Filesystem is the filesystem type, one of SupportedFilesystems.
	Filesystem string
	// Mountpoint is where the partition is currently mounted, or empty.
	Mountpoint string
	// SizeBytes is the partition size in bytes.
	SizeBytes int64
	// Freshness is a monotonic marker of when the device was initialized
	// by the OS. A just-plugged device has a higher value than stale ones.
	Freshness int64
	// Hotplug reports whether the kernel flagged the device as hotpluggable.
	Hotplug bool
}

// Name returns the volume label if set, otherwise the device path.
func (u StorageUnit) Name() string {
	if u.Label == "" {
		return u.Device
	}
	return u.Label
}

// Mounted reports whether the partition is currently mounted anywhere.
func (u StorageUnit) Mounted() bool {
	return u.Mountpoint != ""
}

// UnitBuilder assembles a StorageUnit in fluent style and yields the
// immutable value at the end.
type UnitBuilder struct {
	unit StorageUnit
}

func NewUnit() *UnitBuilder {
	return &UnitBuilder{}
}

func (b *UnitBuilder) Device(device string) *UnitBuilder {
	b.unit.Device = device
	return b
}

func (b *UnitBuilder) UUID(uuid string) *UnitBuilder {
	b.unit.UUID = uuid
	return b
}

func (b *UnitBuilder) Label(label string) *UnitBuilder {
	b.unit.Label = label
	return b
}

func (b *UnitBuilder) Filesystem(fs string) *UnitBuilder {
	b.unit.Filesystem = fs
	return b
}

func (b *UnitBuilder) Mountpoint(mountpoint string) *UnitBuilder {
	b.unit.Mountpoint = mountpoint
	return b
}

func (b *UnitBuilder) Size(size int64) *UnitBuilder {
	b.unit.SizeBytes = size
	return b
}

func (b *UnitBuilder) Freshness(freshness int64) *UnitBuilder {
	b.unit.Freshness = freshness
	return b
}

func (b *UnitBuilder) Hotplug(hotplug bool) *UnitBuilder {
	b.unit.Hotplug = hotplug
	return b
}

// Build returns the assembled StorageUnit.
func (b *UnitBuilder) Build() StorageUnit {
	return b.unit
}
