/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"sutdvn/internal/desktop"
	applog "sutdvn/internal/log"
	"sutdvn/internal/transcript"
	"sutdvn/internal/version"
)

// PDFOptions controls the chat log export. Units are points.
type PDFOptions struct {
	Title    string
	FontSize float64
	Margin   float64
}

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript is empty")

// TranscriptPDF writes entries as chat bubbles on A4 pages, placed on the
// same 32 column grid the chat window uses.
func TranscriptPDF(entries []Entry, outPath string, opt PDFOptions) error {
	if len(entries) == 0 {
		return ErrEmptyTranscript
	}
	if opt.Title == "" {
		opt.Title = "SUTD VN chat log"
	}
	if opt.FontSize <= 0 {
		opt.FontSize = 11
	}
	if opt.Margin <= 0 {
		opt.Margin = 36
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(opt.Title, true)
	pdf.SetCreator("sutdvn "+version.String(), true)
	pdf.SetMargins(opt.Margin, opt.Margin, opt.Margin)
	pdf.SetAutoPageBreak(false, opt.Margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	colW := (pageW - 2*opt.Margin) / transcript.Columns
	lineH := opt.FontSize * 1.3
	pad := opt.FontSize / 2

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", opt.FontSize+3)
	pdf.Text(opt.Margin, opt.Margin+opt.FontSize, tr(opt.Title))
	pdf.SetFont("Helvetica", "", opt.FontSize-2)
	pdf.Text(opt.Margin, opt.Margin+opt.FontSize+lineH,
		tr(fmt.Sprintf("session %s, %s", applog.SessionID(), time.Now().Format(time.RFC1123))))
	y := opt.Margin + opt.FontSize + 3*lineH

	pdf.SetFont("Helvetica", "", opt.FontSize)
	for _, e := range entries {
		pl, err := e.Side.Placement()
		if err != nil {
			pl, _ = transcript.Center.Placement()
		}
		x := opt.Margin + float64(pl.Column)*colW
		w := float64(pl.Span) * colW
		text := tr(e.Text)
		lines := pdf.SplitLines([]byte(text), w-2*pad)
		h := float64(len(lines))*lineH + 2*pad
		if y+h > pageH-opt.Margin {
			pdf.AddPage()
			y = opt.Margin
		}
		c := desktop.BubbleColor(e.Side)
		pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
		pdf.SetDrawColor(96, 96, 96)
		pdf.Rect(x, y, w, h, "FD")
		align := "L"
		if e.Side == transcript.Center {
			align = "C"
		}
		pdf.SetXY(x+pad, y+pad)
		pdf.MultiCell(w-2*pad, lineH, text, "", align, false)
		y += h + lineH
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
