/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"context"
	"strings"
)

// Flags holds arbitrary story state. Plain map access works; the helpers
// only save a type assertion.
type Flags map[string]any

// Bool returns the flag as a bool. ok is false when it is unset or not a bool.
func (f Flags) Bool(key string) (v, ok bool) {
	v, ok = f[key].(bool)
	return v, ok
}

// Text returns the flag as a string.
func (f Flags) Text(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

// Has reports whether key is set.
func (f Flags) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// YesNo reads the first letter of reply: y means yes, n means no. Anything
// else is not an answer and ok is false.
func YesNo(reply string) (yes, ok bool) {
	s := strings.TrimSpace(strings.ToLower(reply))
	switch {
	case strings.HasPrefix(s, "y"):
		return true, true
	case strings.HasPrefix(s, "n"):
		return false, true
	}
	return false, false
}

// AskFlag asks a yes/no question once and stores the answer in Flags[key].
// An unrecognised reply leaves the flag untouched and returns ok false so
// the story can ask again.
func (c *Controller) AskFlag(ctx context.Context, key, prompt string) (ok bool, err error) {
	reply, err := c.Input(ctx, prompt)
	if err != nil {
		return false, err
	}
	yes, ok := YesNo(reply)
	if ok {
		c.Flags[key] = yes
	}
	return ok, nil
}
