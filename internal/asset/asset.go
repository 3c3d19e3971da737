/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package asset resolves image keys used by stories (faces, backgrounds) to
// decoded, scaled images.
package asset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	applog "sutdvn/internal/log"
)

// ErrResourceMissing is returned when no file exists for an image key.
var ErrResourceMissing = errors.New("resource missing")

// Extensions tried for a key, in order.
var Extensions = []string{".png", ".webp", ".jpg", ".bmp"}

// Library loads and caches images from a file system rooted at the assets dir.
type Library struct {
	fsys fs.FS
	log  *slog.Logger

	mu     sync.Mutex
	cache  map[string]image.Image
	scaled map[scaledKey]image.Image
}

type scaledKey struct {
	key  string
	w, h int
	fit  Fit
}

// Fit selects how an image is mapped onto a target box.
type Fit uint8

const (
	// Stretch ignores the aspect ratio.
	Stretch Fit = iota
	// Contain scales to fit entirely inside the box.
	Contain
	// Cover scales to fill the box, cropping the overflow.
	Cover
)

// NewLibrary returns a library reading from fsys. A nil fsys makes every
// lookup miss.
func NewLibrary(fsys fs.FS) *Library {
	return &Library{
		fsys:   fsys,
		log:    applog.WithComponent("asset"),
		cache:  map[string]image.Image{},
		scaled: map[scaledKey]image.Image{},
	}
}

func validKey(key string) bool {
	if key == "" || strings.ContainsAny(key, `\:`) {
		return false
	}
	return fs.ValidPath(key) && path.Clean(key) == key
}

// Load decodes the image for key, trying each of Extensions.
func (l *Library) Load(key string) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(key)
}

func (l *Library) load(key string) (image.Image, error) {
	if img, ok := l.cache[key]; ok {
		return img, nil
	}
	if l.fsys == nil || !validKey(key) {
		return nil, fmt.Errorf("%w: %q", ErrResourceMissing, key)
	}
	for _, ext := range Extensions {
		f, err := l.fsys.Open(key + ext)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("open %s: %w", key+ext, err)
		}
		img, _, err := image.Decode(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key+ext, err)
		}
		l.cache[key] = img
		return img, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrResourceMissing, key)
}

// Scaled returns the image for key scaled into a w x h box.
func (l *Library) Scaled(key string, w, h int, fit Fit) (image.Image, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sk := scaledKey{key, w, h, fit}
	if img, ok := l.scaled[sk]; ok {
		return img, nil
	}
	src, err := l.load(key)
	if err != nil {
		return nil, err
	}
	out := Resize(src, w, h, fit)
	l.scaled[sk] = out
	return out, nil
}

// ScaledOrPlaceholder is Scaled that logs failures and falls back to a
// placeholder of the requested size.
func (l *Library) ScaledOrPlaceholder(key string, w, h int, fit Fit) (image.Image, error) {
	img, err := l.Scaled(key, w, h, fit)
	if err != nil {
		l.log.Error("image unavailable", slog.String("key", key), slog.Any("err", err))
		return Placeholder(w, h), err
	}
	return img, nil
}

// Resize draws src into a new w x h image with Catmull-Rom filtering.
func Resize(src image.Image, w, h int, fit Fit) *image.RGBA {
	w, h = max(w, 1), max(h, 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}
	dr := dst.Bounds()
	switch fit {
	case Contain:
		dr = fitRect(sb.Dx(), sb.Dy(), w, h, false)
	case Cover:
		dr = fitRect(sb.Dx(), sb.Dy(), w, h, true)
	}
	draw.CatmullRom.Scale(dst, dr, src, sb, draw.Src, nil)
	return dst
}

// fitRect centres an sw x sh rect scaled into w x h. cover scales up to the
// larger factor so the box is filled.
func fitRect(sw, sh, w, h int, cover bool) image.Rectangle {
	fx := float64(w) / float64(sw)
	fy := float64(h) / float64(sh)
	f := min(fx, fy)
	if cover {
		f = max(fx, fy)
	}
	dw := int(float64(sw)*f + 0.5)
	dh := int(float64(sh)*f + 0.5)
	x := (w - dw) / 2
	y := (h - dh) / 2
	return image.Rect(x, y, x+dw, y+dh)
}

var (
	placeholderA = color.RGBA{R: 0xff, B: 0xff, A: 0xff}
	placeholderB = color.RGBA{A: 0xff}
)

// Placeholder is a magenta and black checkerboard marking a missing image.
func Placeholder(w, h int) *image.RGBA {
	w, h = max(w, 1), max(h, 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	cell := max(min(w, h)/8, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := placeholderB
			if (x/cell+y/cell)%2 == 0 {
				c = placeholderA
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
