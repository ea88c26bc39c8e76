/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"firewatch/internal/api"
	"firewatch/internal/config"
	"firewatch/internal/crash"
	"firewatch/internal/domain"
	"firewatch/internal/export"
	applog "firewatch/internal/log"
	"firewatch/internal/store"
	"firewatch/internal/telemetry"
	"firewatch/internal/ui"
	"firewatch/internal/version"
)

func usage() {
	fmt.Println("Firewatch — wildfire camera alert dashboard")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  firewatch version|-v|--version      Show version")
	fmt.Println("  firewatch login <login>             Store credentials and fetch an API token")
	fmt.Println("  firewatch events                    List open alert events from the platform")
	fmt.Println("  firewatch report <event-id> <out>   Export a PDF incident report for an event")
	fmt.Println("  firewatch ui                        Launch desktop dashboard (build with -tags fyne for full UI)")
}

func newClient(cfg config.AppConfig, token string) *api.Client {
	return api.NewClient(cfg.API.BaseURL, token, api.Options{
		Timeout:     time.Duration(cfg.API.TimeoutMs) * time.Millisecond,
		TLSInsecure: cfg.API.TLSInsecure,
	})
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover("")
	telemetry.InitDefault()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) <= 1 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Firewatch — wildfire camera alert dashboard")
		fmt.Println(version.String())
	case "login":
		if len(args) < 3 {
			fmt.Println("login requires <login>")
			usage()
			os.Exit(2)
		}
		login := args[2]
		cfg, _, err := config.Load()
		if err != nil {
			fatal(l, "load config", err)
		}
		pw := config.Password()
		if pw == "" {
			fmt.Println("Set", config.EnvAPIPassword, "or store a password in the keyring first")
			os.Exit(2)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		client := newClient(cfg, "")
		token, err := client.Login(ctx, login, pw)
		if err != nil {
			fatal(l, "login", err)
		}
		cfg.API.Login = login
		if err := config.Save(cfg, token); err != nil {
			fatal(l, "save config", err)
		}
		fmt.Println("Logged in; token stored in the OS keyring.")
	case "events":
		cfg, token, err := config.Load()
		if err != nil {
			fatal(l, "load config", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		events, err := newClient(cfg, token).ListEvents(ctx)
		if err != nil {
			fatal(l, "list events", err)
		}
		events = domain.FilterDisplayable(events)
		if len(events) == 0 {
			fmt.Println("No open events.")
			return
		}
		for _, ev := range events {
			fmt.Printf("%8d  %-24s  %s\n", ev.ID, ev.Camera.Name,
				ev.Created.Local().Format(time.RFC3339))
		}
	case "report":
		if len(args) < 4 {
			fmt.Println("report requires <event-id> and <out>")
			usage()
			os.Exit(2)
		}
		eventID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			fmt.Println("invalid event id:", args[2])
			os.Exit(2)
		}
		outPath, _ := filepath.Abs(args[3])
		cfg, token, err := config.Load()
		if err != nil {
			fatal(l, "load config", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		client := newClient(cfg, token)

		events, err := client.ListEvents(ctx)
		if err != nil {
			fatal(l, "list events", err)
		}
		var target *domain.Event
		for i := range events {
			if events[i].ID == eventID {
				target = &events[i]
				break
			}
		}
		if target == nil {
			fmt.Println("event not found:", eventID)
			os.Exit(1)
		}
		alerts, err := client.ListAlertsForEvent(ctx, eventID)
		if err != nil {
			fatal(l, "list alerts", err)
		}
		target.Alerts = alerts

		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		cache, err := store.Open(filepath.Join(cacheDir, "firewatch"))
		if err != nil {
			fatal(l, "open cache", err)
		}
		defer cache.Close()

		frames := map[int64][]byte{}
		for _, a := range alerts {
			data, hit, _ := cache.Media(ctx, a.MediaURL)
			if !hit {
				data, err = client.FetchMedia(ctx, a.MediaURL)
				if err != nil {
					l.Warn("media fetch failed", slog.String("src", a.MediaURL), slog.Any("err", err))
					continue
				}
				_ = cache.PutMedia(ctx, a.MediaURL, data)
			}
			frames[a.ID] = data
		}
		if err := export.WriteEventReport(target, outPath, export.ReportOptions{
			Operator: cfg.API.Login,
			Frames:   frames,
		}); err != nil {
			fatal(l, "write report", err)
		}
		fmt.Println("Report written to", outPath)
	case "ui":
		if err := ui.Run(); err != nil {
			fatal(l, "ui", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func fatal(l *slog.Logger, op string, err error) {
	l.Error(op+" failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
