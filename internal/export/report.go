/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export produces incident artifacts from alert events: a PDF
// summary report and annotated frame snapshots.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"firewatch/internal/domain"
)

// ReportOptions controls PDF report generation. Units are points.
type ReportOptions struct {
	Title    string
	Operator string
	// Frames maps alert IDs to JPEG bytes; frames without an entry are
	// listed but not pictured.
	Frames map[int64][]byte
}

// WriteEventReport renders a single-event incident report to outPath. One
// title page with event metadata, then one page per alert frame.
func WriteEventReport(ev *domain.Event, outPath string, opt ReportOptions) error {
	if ev == nil {
		return fmt.Errorf("event is nil")
	}
	title := opt.Title
	if title == "" {
		title = fmt.Sprintf("Wildfire alert event %d", ev.ID)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor("Firewatch", false)
	pdf.SetFont("Helvetica", "", 12)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 28, title, "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(120, 18, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(0, 18, value, "", 1, "L", false, 0, "")
	}
	line("Camera", ev.Camera.Name)
	line("Position", fmt.Sprintf("%.4f, %.4f", ev.Camera.Lat, ev.Camera.Lon))
	line("First detection", ev.Created.UTC().Format(time.RFC3339))
	line("Alert frames", fmt.Sprintf("%d", len(ev.Alerts)))
	if opt.Operator != "" {
		line("Operator", opt.Operator)
	}
	if ev.Acknowledged {
		line("Status", "acknowledged")
	} else {
		line("Status", "open")
	}

	for i, a := range ev.Alerts {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 20, fmt.Sprintf("Frame %d of %d", i+1, len(ev.Alerts)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 16, a.Created.UTC().Format(time.RFC3339), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 16, fmt.Sprintf("Azimuth %.1f°, %d detection(s)", a.Azimuth, len(a.Boxes)), "", 1, "L", false, 0, "")
		pdf.Ln(6)

		if img, ok := opt.Frames[a.ID]; ok && len(img) > 0 {
			name := fmt.Sprintf("frame-%d", a.ID)
			pdf.RegisterImageOptionsReader(name,
				gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(img))
			pageW, _ := pdf.GetPageSize()
			left, _, right, _ := pdf.GetMargins()
			pdf.ImageOptions(name, left, pdf.GetY(), pageW-left-right, 0, false,
				gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
