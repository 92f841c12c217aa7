//go:build linux

/*
Photoframe Core
Copyright (c) 2026 The Photoframe Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of Photoframe Core.

Photoframe Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Photoframe Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Photoframe Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/PhotoframeProject/photoframe-core/pkg/config"
	"github.com/PhotoframeProject/photoframe-core/pkg/frame"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers"
	"github.com/PhotoframeProject/photoframe-core/pkg/helpers/command"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := flag.String(
		"config-dir",
		"/etc/photoframe",
		"directory holding the photoframe config file",
	)
	logDir := flag.String(
		"log-dir",
		"/var/log/photoframe",
		"directory to write rotated logs to",
	)
	showStatus := flag.Bool(
		"status",
		false,
		"mount if needed and report the photo source state",
	)
	listKeywords := flag.Bool(
		"keywords",
		false,
		"list the current keywords with sentinels resolved",
	)
	pick := flag.String(
		"pick",
		"",
		"run a selection for the given keyword and print the chosen images",
	)
	doUnmount := flag.Bool(
		"unmount",
		false,
		"unmount the storage device for safe removal",
	)
	flag.Parse()

	if err := helpers.InitLogging(*logDir, []io.Writer{os.Stderr}); err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(*configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	svc := frame.New(cfg, afero.NewOsFs(), &command.RealExecutor{}, nil)
	ctx := context.Background()

	svc.Startup(ctx)

	switch {
	case *doUnmount:
		svc.Unmount(ctx)
		fmt.Println("storage device unmounted")
	case *listKeywords:
		for _, kw := range svc.Keywords() {
			fmt.Println(kw)
		}
	case *pick != "":
		if err := svc.ValidateKeyword(*pick); err != nil {
			return err
		}
		for _, img := range svc.ImagesForKeyword(ctx, *pick) {
			fmt.Printf("%s\t%s\n", img.Mimetype, img.Source)
		}
	case *showStatus:
		fallthrough
	default:
		state := svc.UpdateState(ctx)
		fmt.Printf("state: %s\n", state)
		if explain := svc.ExplainState(); explain != "" {
			fmt.Printf("why: %s\n", explain)
		}
		for _, msg := range svc.Messages() {
			fmt.Printf("[%s] %s\n", msg.Level, msg.Text)
		}
		if device := svc.ActiveDevice(); device != nil {
			fmt.Printf("device: %s (%s, %d bytes)\n",
				device.Name(), device.Filesystem, device.SizeBytes)
		}
	}

	return nil
}
