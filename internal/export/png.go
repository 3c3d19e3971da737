/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"sutdvn/internal/asset"
	"sutdvn/internal/desktop"
)

var (
	frameBorder = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	frameText   = color.RGBA{A: 255}
	frameWindow = color.RGBA{R: 236, G: 236, B: 236, A: 255}
)

// RenderFrame rasterises a desktop frame. Images come from lib; missing ones
// are drawn as placeholders.
func RenderFrame(f desktop.Frame, lib *asset.Library) *image.RGBA {
	w, h := max(int(f.Width), 1), max(int(f.Height), 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(img, 0, 0, w-1, h-1, toRGBA(desktop.DesktopColor))
	if lib != nil && f.Background != "" {
		if bg, err := lib.Scaled(f.Background, w, h, asset.Cover); err == nil {
			draw.Draw(img, img.Bounds(), bg, image.Point{}, draw.Over)
		}
	}

	for _, win := range f.Windows {
		b := win.Bounds
		fillRect(img, ix(b.X), ix(b.Y), ix(b.X+b.W)-1, ix(b.Y+b.H)-1, frameWindow)
		fillRect(img, ix(win.Bar.X), ix(win.Bar.Y), ix(win.Bar.X+win.Bar.W)-1, ix(win.Bar.Y+win.Bar.H)-1, toRGBA(desktop.BarColor))
		drawText(img, win.Title, win.Bar.X+f.EM/2, win.Bar.Y+win.Bar.H/2+4)
		if win.Close.W > 0 {
			strokeRect(img, ix(win.Close.X), ix(win.Close.Y), ix(win.Close.X+win.Close.W)-1, ix(win.Close.Y+win.Close.H)-1, frameBorder)
			drawText(img, "x", win.Close.X+win.Close.W/2-3, win.Close.Y+win.Close.H/2+4)
		}
		strokeRect(img, ix(b.X), ix(b.Y), ix(b.X+b.W)-1, ix(b.Y+b.H)-1, frameBorder)
		if win.Content.H <= 0 {
			continue
		}
		switch win.Kind {
		case desktop.KindImage:
			if lib == nil {
				continue
			}
			c := win.Content
			pic, _ := lib.ScaledOrPlaceholder(win.Image, ix(c.W), ix(c.H), asset.Contain)
			draw.Draw(img, image.Rect(ix(c.X), ix(c.Y), ix(c.X+c.W), ix(c.Y+c.H)), pic, image.Point{}, draw.Over)
		case desktop.KindChat:
			drawChat(img, f.Chat)
		}
	}
	return img
}

func drawChat(img *image.RGBA, c desktop.ChatFrame) {
	if !c.Visible {
		return
	}
	area := c.Layout.Log
	for _, b := range c.Bubbles {
		r := b.Rect
		if r.Y < area.Y || r.Y+r.H > area.Y+area.H {
			continue
		}
		fillRect(img, ix(r.X), ix(r.Y), ix(r.X+r.W)-1, ix(r.Y+r.H)-1, toRGBA(b.Color))
		strokeRect(img, ix(r.X), ix(r.Y), ix(r.X+r.W)-1, ix(r.Y+r.H)-1, frameBorder)
		lh := float32(basicfont.Face7x13.Metrics().Height.Round())
		for i, ln := range b.Lines {
			drawText(img, ln, r.X+4, r.Y+4+lh*float32(i+1)-3)
		}
	}
	skip := c.Layout.Skip
	col := desktop.SkipOffColor
	label := "Skip"
	if c.Skipping {
		col, label = desktop.SkipOnColor, "Skipping"
	}
	strokeRect(img, ix(skip.X), ix(skip.Y), ix(skip.X+skip.W)-1, ix(skip.Y+skip.H)-1, toRGBA(col))
	drawText(img, label, skip.X+4, skip.Y+skip.H/2+4)
	e := c.Layout.Entry
	entry := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	if c.InputEnabled {
		entry = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	fillRect(img, ix(e.X), ix(e.Y), ix(e.X+e.W)-1, ix(e.Y+e.H)-1, entry)
	strokeRect(img, ix(e.X), ix(e.Y), ix(e.X+e.W)-1, ix(e.Y+e.H)-1, frameBorder)
}

// FramePNG renders f and writes it to outPath.
func FramePNG(f desktop.Frame, lib *asset.Library, outPath string) error {
	img := RenderFrame(f, lib)
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return file.Close()
}

func ix(v float32) int { return int(v + 0.5) }

func toRGBA(c color.NRGBA) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func drawText(img *image.RGBA, s string, x, y float32) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(frameText),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(ix(x), ix(y)),
	}
	d.DrawString(s)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	r := image.Rect(x0, y0, x1+1, y1+1).Intersect(img.Bounds())
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}
