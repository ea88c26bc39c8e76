//go:build fyne && cgo

/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"firewatch/internal/api"
	"firewatch/internal/archive"
	"firewatch/internal/bridge"
	"firewatch/internal/compose"
	"firewatch/internal/config"
	"firewatch/internal/crash"
	"firewatch/internal/domain"
	"firewatch/internal/export"
	applog "firewatch/internal/log"
	"firewatch/internal/store"
	"firewatch/internal/telemetry"
	"firewatch/internal/view"
	"firewatch/internal/viewport"
)

// Run starts the Fyne-based alert monitoring dashboard.
func Run() error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	defer crash.Recover("")

	cfg, token, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	telemetry.InitDefault()

	client := api.NewClient(cfg.API.BaseURL, token, api.Options{
		Timeout:     time.Duration(cfg.API.TimeoutMs) * time.Millisecond,
		TLSInsecure: cfg.API.TLSInsecure,
	})

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	cache, err := store.Open(filepath.Join(cacheDir, "firewatch"))
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer cache.Close()

	var ackArchive *archive.Archive
	if cfg.General.EnableArchive && cfg.Archive.DSN != "" {
		a, err := archive.Open(context.Background(), cfg.Archive.DSN)
		if err != nil {
			l.Warn("archive unavailable", slog.Any("err", err))
		} else {
			ackArchive = a
			defer a.Close()
		}
	}

	fyneApp := app.NewWithID("firewatch")
	w := fyneApp.NewWindow("Firewatch")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	// Viewport substrate: one tree, one controller, one bridge, one
	// renderer. All of it runs on the UI goroutine.
	tree := view.NewTree(view.NewLoop())
	vc := viewport.New(viewport.Config{MaxScale: cfg.Viewport.MaxScale})
	bridge.Attach(tree, vc, bridge.Options{BaseStrokeWidth: cfg.Viewport.BBoxStrokeWidth})
	dash := compose.MountDashboard(tree)

	alertCanvas := NewAlertCanvas(vc, cfg.Viewport.BBoxStrokeWidth)
	status := widget.NewLabel("Ready")

	var events []domain.Event
	eventList := widget.NewList(
		func() int { return len(events) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < 0 || i >= len(events) {
				return
			}
			ev := events[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%s — %s",
				ev.Camera.Name, ev.Created.Local().Format("15:04")))
		},
	)

	// loadFrame fetches the current frame's media (cache first) and hands it
	// to both the canvas and the load coordinator.
	loadFrame := func() {
		src := dash.CurrentSrc()
		if src == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			data, hit, _ := cache.Media(ctx, src)
			if !hit {
				var err error
				data, err = client.FetchMedia(ctx, src)
				if err != nil {
					l.Warn("media fetch failed", slog.String("src", src), slog.Any("err", err))
					return
				}
				_ = cache.PutMedia(ctx, src, data)
			}
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				l.Warn("media decode failed", slog.String("src", src), slog.Any("err", err))
				return
			}
			fyne.Do(func() {
				if dash.CurrentSrc() != src {
					return // operator moved on while we fetched
				}
				if ev := dash.Event(); ev != nil {
					alertCanvas.SetFrame(img, ev.Alerts[dash.Frame()].Boxes)
				}
				dash.NoteImageLoaded(src)
			})
		}()
	}

	frameSlider := widget.NewSlider(0, 0)
	frameSlider.Step = 1
	frameSlider.OnChanged = func(v float64) {
		if int(v) != dash.Frame() {
			dash.ShowFrame(int(v))
			loadFrame()
		}
	}

	showEvent := func(ev *domain.Event) {
		dash.ShowEvent(ev)
		frameSlider.Max = float64(len(ev.Alerts) - 1)
		frameSlider.SetValue(float64(dash.Frame()))
		status.SetText(fmt.Sprintf("Event %d — %s, %d frames",
			ev.ID, ev.Camera.Name, len(ev.Alerts)))
		loadFrame()
	}

	eventList.OnSelected = func(i widget.ListItemID) {
		if i < 0 || i >= len(events) {
			return
		}
		showEvent(&events[i])
	}

	refresh := func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			fetched, err := client.ListEvents(ctx)
			if err != nil {
				l.Warn("event refresh failed", slog.Any("err", err))
				// fall back to the local cache so the list survives outages
				if cached, cerr := cache.Events(ctx); cerr == nil {
					fetched = cached
				} else {
					return
				}
			} else {
				for i := range fetched {
					alerts, err := client.ListAlertsForEvent(ctx, fetched[i].ID)
					if err != nil {
						continue
					}
					fetched[i].Alerts = alerts
				}
				_ = cache.PutEvents(ctx, fetched)
			}
			display := domain.FilterDisplayable(fetched)
			fyne.Do(func() {
				events = display
				eventList.Refresh()
				status.SetText(fmt.Sprintf("%d open events", len(events)))
			})
		}()
	}

	acknowledge := func() {
		ev := dash.Event()
		if ev == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := client.AcknowledgeEvent(ctx, ev.ID); err != nil {
				l.Warn("acknowledge failed", slog.Int64("event_id", ev.ID), slog.Any("err", err))
				return
			}
			_ = cache.MarkAcknowledged(ctx, ev.ID)
			if ackArchive != nil {
				_ = ackArchive.RecordAcknowledgement(ctx, ev, cfg.API.Login)
			}
			telemetry.Event("event_acknowledged", map[string]any{"event_id": ev.ID})
			fyne.Do(refresh)
		}()
	}

	exportReport := func() {
		ev := dash.Event()
		if ev == nil {
			return
		}
		dialog.ShowFileSave(func(uri fyne.URIWriteCloser, err error) {
			if err != nil || uri == nil {
				return
			}
			path := uri.URI().Path()
			_ = uri.Close()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()
				frames := map[int64][]byte{}
				for _, a := range ev.Alerts {
					if data, hit, _ := cache.Media(ctx, a.MediaURL); hit {
						frames[a.ID] = data
					}
				}
				if err := export.WriteEventReport(ev, path, export.ReportOptions{
					Operator: cfg.API.Login,
					Frames:   frames,
				}); err != nil {
					l.Error("report export failed", slog.Any("err", err))
					return
				}
				fyne.Do(func() { status.SetText("Report written: " + path) })
			}()
		}, w)
	}

	resetBtn := widget.NewButton("Reset view", func() { vc.Reset() })
	ackBtn := widget.NewButton("Acknowledge", acknowledge)
	exportBtn := widget.NewButton("Export report", exportReport)
	boxToggle := widget.NewCheck("Boxes", alertCanvas.SetShowBoxes)
	boxToggle.SetChecked(true)
	toolbar := container.NewHBox(resetBtn, ackBtn, exportBtn, boxToggle)

	left := container.NewBorder(widget.NewLabel("Alerts"), nil, nil, nil, eventList)
	center := container.NewBorder(toolbar, container.NewVBox(frameSlider, status), nil, nil, alertCanvas)
	w.SetContent(container.NewHSplit(left, center))

	// periodic platform refresh
	refreshEvery := time.Duration(cfg.General.RefreshSeconds) * time.Second
	if refreshEvery <= 0 {
		refreshEvery = 30 * time.Second
	}
	refreshTicker := time.NewTicker(refreshEvery)
	defer refreshTicker.Stop()
	go func() {
		for range refreshTicker.C {
			fyne.Do(refresh)
		}
	}()

	// frame auto-play on the displayed event
	playTicker := time.NewTicker(2 * time.Second)
	defer playTicker.Stop()
	go func() {
		for range playTicker.C {
			fyne.Do(func() {
				if dash.Event() == nil {
					return
				}
				dash.Advance()
				frameSlider.SetValue(float64(dash.Frame()))
				loadFrame()
			})
		}
	}()

	w.SetOnClosed(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
	})

	refresh()
	l.Info("dashboard ready")
	w.ShowAndRun()
	return nil
}
