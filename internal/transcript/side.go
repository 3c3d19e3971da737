/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transcript

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSide is returned for any placement outside Left, Right and Center.
var ErrInvalidSide = errors.New("invalid side")

// Side is where a bubble sits in the chat log. The zero value means "not
// given" and is only meaningful as an override argument.
type Side uint8

const (
	SideUnset Side = iota
	Left
	Right
	Center
)

// Grid used to place bubbles: the log is Columns wide, a bubble spans
// BubbleColumns of them.
const (
	Columns       = 32
	BubbleColumns = 18
)

// Placement is the grid column a bubble starts at and how many it spans.
type Placement struct {
	Column int
	Span   int
}

func (s Side) String() string {
	switch s {
	case SideUnset:
		return "unset"
	case Left:
		return "left"
	case Right:
		return "right"
	case Center:
		return "center"
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// ParseSide maps "left", "right" and "center" (any case) to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "center", "centre":
		return Center, nil
	}
	return SideUnset, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Placement returns the grid placement for s.
func (s Side) Placement() (Placement, error) {
	switch s {
	case Left:
		return Placement{Column: 0, Span: BubbleColumns}, nil
	case Right:
		return Placement{Column: Columns - BubbleColumns, Span: BubbleColumns}, nil
	case Center:
		return Placement{Column: (Columns - BubbleColumns) / 2, Span: BubbleColumns}, nil
	}
	return Placement{}, fmt.Errorf("%w: %v", ErrInvalidSide, s)
}
