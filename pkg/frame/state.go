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

package frame

// SourceKind tags the closed set of photo source kinds this service can
// represent. Cloud-backed sources live outside this core; the storage
// source is the only kind implemented here.
type SourceKind int

const (
	KindStorage SourceKind = iota
)

func (k SourceKind) String() string {
	switch k {
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// State is the coarse photo-source state exposed to the slideshow manager.
type State int

const (
	// StateReady means a mounted device carries albums or root images.
	StateReady State = iota
	// StateNoImages means nothing can be displayed right now.
	StateNoImages
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateNoImages:
		return "no images"
	default:
		return "unknown"
	}
}

// Substate refines StateNoImages.
type Substate int

const (
	SubstateNone Substate = iota
	// SubstateNotConnected means no storage device could be mounted.
	SubstateNotConnected
)

// MessageLevel classifies operator-facing messages.
type MessageLevel string

const (
	MessageSuccess MessageLevel = "SUCCESS"
	MessageError   MessageLevel = "ERROR"
)

// Message is an operator-facing status line about the storage source.
type Message struct {
	Level MessageLevel
	Text  string
}
