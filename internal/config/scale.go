/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import "time"

const (
	// LoopWait is the pause between two scheduler ticks.
	LoopWait = 15 * time.Millisecond
	// DefaultCharDelay is the typewriter delay per revealed character.
	DefaultCharDelay = 30 * time.Millisecond
)

// Lorem is placeholder text for layout checks and demo windows.
const Lorem = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Vestibulum at " +
	"elit non orci luctus porta et sit amet turpis. Vestibulum magna velit, " +
	"finibus vel luctus vitae, condimentum eleifend diam. Maecenas ultrices " +
	"neque at orci porta, a gravida eros aliquam. Phasellus eget ex placerat, " +
	"condimentum nunc eget, convallis ante. Quisque feugiat magna massa, sit " +
	"amet consectetur velit iaculis non. Aliquam nec."

// Scale is the layout unit shared by every component. It is computed once at
// startup and passed by value; nothing mutates it afterwards.
type Scale struct {
	EM float32 // pixels per unit
}

// DefaultScale is used when no screen information is available.
var DefaultScale = Scale{EM: 8}

// ScaleForScreen picks the unit from the screen height in pixels.
func ScaleForScreen(screenH int) Scale {
	switch {
	case screenH >= 2160:
		return Scale{EM: 20}
	case screenH >= 1440:
		return Scale{EM: 10}
	default:
		return DefaultScale
	}
}

// Resolve returns the configured unit, or the screen-derived one when the
// config leaves it at zero.
func (d DisplayConfig) Resolve(screenH int) Scale {
	if d.EM > 0 {
		return Scale{EM: float32(d.EM)}
	}
	return ScaleForScreen(screenH)
}

// U converts n units to pixels.
func (s Scale) U(n float32) float32 { return n * s.EM }
