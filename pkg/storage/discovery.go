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
	"encoding/json"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/PhotoframeProject/photoframe-core/pkg/helpers"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const defaultSysBlockPath = "/sys/block"

// SupportedFilesystems lists the filesystem types a candidate partition may
// carry. Anything else is filtered out at discovery.
var SupportedFilesystems = []string{"exfat", "vfat", "ntfs", "ext2", "ext3", "ext4"}

// EnumerateOptions filter discovery results by mount state.
type EnumerateOptions struct {
	// OnlyMounted drops partitions without a mountpoint.
	OnlyMounted bool
	// OnlyUnmounted drops partitions that are already mounted.
	OnlyUnmounted bool
}

// Discovery enumerates candidate partitions on bus-attached removable
// devices via udevadm and lsblk. It is read-only and has no side effects.
type Discovery struct {
	executor command.Executor
	fs       afero.Fs
	sysBlock string
}

func NewDiscovery(executor command.Executor, fs afero.Fs) *Discovery {
	return &Discovery{
		executor: executor,
		fs:       fs,
		sysBlock: defaultSysBlockPath,
	}
}

// lsblk -bOJ output. Older lsblk versions emit "0"/"1" strings where newer
// ones emit booleans, so hotplug needs a tolerant decoder.
type lsblkOutput struct {
	BlockDevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Children []lsblkPartition `json:"children"`
}

type lsblkPartition struct {
	FSType     *string   `json:"fstype"`
	UUID       *string   `json:"uuid"`
	Label      *string   `json:"label"`
	Mountpoint *string   `json:"mountpoint"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Hotplug    lsblkFlag `json:"hotplug"`
}

// lsblkFlag decodes a boolean that lsblk may emit as true/false, 0/1 or "0"/"1".
type lsblkFlag bool

func (f *lsblkFlag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// Enumerate returns candidate partitions ordered by freshness descending,
// so a just-plugged device sorts before stale ones. Failures to reach the
// OS device layer yield an empty result, not an error: absent media is the
// normal case for a photo frame.
func (d *Discovery) Enumerate(ctx context.Context, opts EnumerateOptions) []StorageUnit {
	entries, err := afero.ReadDir(d.fs, d.sysBlock)
	if err != nil {
		log.Debug().Err(err).Str("path", d.sysBlock).Msg("cannot read block device tree")
		return nil
	}

	var units []StorageUnit
	for _, entry := range entries {
		out, err := d.executor.Output(ctx, "udevadm", "info", "--query=property",
			filepath.Join(d.sysBlock, entry.Name()))
		if err != nil {
			log.Debug().Err(err).Str("device", entry.Name()).Msg("udevadm query failed")
			continue
		}

		props := parseProperties(out)
		if props["ID_BUS"] != "usb" {
			continue
		}

		devname := props["DEVNAME"]
		if devname == "" {
			continue
		}

		freshness, err := strconv.ParseInt(props["USEC_INITIALIZED"], 10, 64)
		if err != nil {
			freshness = 0
		}

		units = append(units, d.partitionsOf(ctx, devname, freshness, opts)...)
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].Freshness > units[j].Freshness
	})
	return units
}

// partitionsOf runs lsblk against one block device and converts its
// supported partitions into storage units.
func (d *Discovery) partitionsOf(
	ctx context.Context, devname string, freshness int64, opts EnumerateOptions,
) []StorageUnit {
	out, err := d.executor.Output(ctx, "lsblk", "-bOJ", devname)
	if err != nil {
		log.Debug().Err(err).Str("device", devname).Msg("lsblk query failed")
		return nil
	}

	var topology lsblkOutput
	if err := json.Unmarshal(out, &topology); err != nil {
		log.Debug().Err(err).Str("device", devname).Msg("cannot parse lsblk output")
		return nil
	}
	if len(topology.BlockDevices) == 0 {
		return nil
	}

	var units []StorageUnit
	for _, part := range topology.BlockDevices[0].Children {
		if part.FSType == nil || !helpers.Contains(SupportedFilesystems, *part.FSType) {
			continue
		}

		mounted := part.Mountpoint != nil && *part.Mountpoint != ""
		if (opts.OnlyMounted && !mounted) || (opts.OnlyUnmounted && mounted) {
			continue
		}

		builder := NewUnit().
			Device(filepath.Join(filepath.Dir(devname), part.Name)).
			Filesystem(*part.FSType).
			Size(part.Size).
			Hotplug(bool(part.Hotplug)).
			Freshness(freshness)
		if part.UUID != nil {
			builder = builder.UUID(*part.UUID)
		}
		if part.Label != nil && strings.TrimSpace(*part.Label) != "" {
			builder = builder.Label(strings.TrimSpace(*part.Label))
		}
		if mounted {
			builder = builder.Mountpoint(*part.Mountpoint)
		}
		units = append(units, builder.Build())
	}
	return units
}

// parseProperties decodes udevadm's key=value lines.
func parseProperties(out []byte) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[k] = v
	}
	return props
}
