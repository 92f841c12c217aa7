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

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "PHOTOFRAME_CFG"
	CfgFile       = "config.toml"

	// DefaultDecayFactor is used when selection.decay_factor is unset.
	DefaultDecayFactor = 0.003
	// DefaultMaxImages bounds how many images a single selection returns.
	DefaultMaxImages = 200
	// DefaultMountRoot is where storage devices get mounted.
	DefaultMountRoot = "/mnt/usb1"
	// DefaultContentDir is the directory name looked for at the volume root.
	DefaultContentDir = "photoframe"
)

type Values struct {
	Storage      Storage   `toml:"storage,omitempty"`
	Selection    Selection `toml:"selection,omitempty"`
	Service      Service   `toml:"service,omitempty"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

type Storage struct {
	MountRoot  string   `toml:"mount_root,omitempty"`
	ContentDir string   `toml:"content_dir,omitempty"`
	Keywords   []string `toml:"keywords,omitempty,multiline"`
}

type Selection struct {
	DecayFactor *float64 `toml:"decay_factor,omitempty"`
	MaxImages   int      `toml:"max_images,omitempty"`
}

type Service struct {
	FrameID string `toml:"frame_id,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Storage: Storage{
		MountRoot:  DefaultMountRoot,
		ContentDir: DefaultContentDir,
	},
	Selection: Selection{
		MaxImages: DefaultMaxImages,
	},
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load re-reads the config file from disk. On any failure the previously
// loaded values are kept, so accessors keep returning the last good values.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Instance) saveLocked() error {
	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	// set current schema version
	c.vals.ConfigSchema = SchemaVersion

	// generate a frame id if one doesn't exist
	if c.vals.Service.FrameID == "" {
		newID := uuid.New().String()
		c.vals.Service.FrameID = newID
		log.Info().Msgf("generated new frame id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) MountRoot() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.MountRoot == "" {
		return DefaultMountRoot
	}
	return c.vals.Storage.MountRoot
}

func (c *Instance) ContentDirName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Storage.ContentDir == "" {
		return DefaultContentDir
	}
	return c.vals.Storage.ContentDir
}

// DecayFactor returns the configured selection decay factor. Unset or
// unusable values fall back to DefaultDecayFactor, never an error.
func (c *Instance) DecayFactor() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	df := c.vals.Selection.DecayFactor
	if df == nil || math.IsNaN(*df) || math.IsInf(*df, 0) {
		return DefaultDecayFactor
	}
	return *df
}

func (c *Instance) SetDecayFactor(df float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Selection.DecayFactor = &df
}

func (c *Instance) SetMaxImages(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Selection.MaxImages = n
}

func (c *Instance) MaxImages() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Selection.MaxImages <= 0 {
		return DefaultMaxImages
	}
	return c.vals.Selection.MaxImages
}

func (c *Instance) FrameID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.FrameID
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

// Keywords returns a copy of the stored keyword list. Together with
// SetKeywords it implements the keyword registry's persistence store.
func (c *Instance) Keywords() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	kws := make([]string, len(c.vals.Storage.Keywords))
	copy(kws, c.vals.Storage.Keywords)
	return kws
}

func (c *Instance) SetKeywords(keywords []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	kws := make([]string, len(keywords))
	copy(kws, keywords)
	c.vals.Storage.Keywords = kws
	return c.saveLocked()
}
