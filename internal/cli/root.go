/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli holds the datacards command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"datacards/internal/config"
	"datacards/internal/crash"
	applog "datacards/internal/log"
	"datacards/internal/telemetry"
	"datacards/internal/workspace"
)

// app carries what every command needs. The workspace is opened on first use so
// commands like version never touch the data dir.
type app struct {
	ctx     context.Context
	out     io.Writer
	errOut  io.Writer
	dataDir string
	crash   *crash.Target
	ws      *workspace.Workspace
	log     *slog.Logger
}

func (a *app) workspace() (*workspace.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	cfg, err := config.Load()
	if err != nil {
		a.log.Warn("config load failed; using defaults", slog.Any("err", err))
	}
	if a.dataDir != "" {
		cfg.Storage.DataDir = a.dataDir
	}
	lc := cfg.Logging
	applog.Init(applog.Options{Level: lc.Level, Format: lc.Format, AddSource: lc.Source, File: lc.File})
	a.log = applog.WithComponent("cli")
	telemetry.NewDefault(telemetry.FromSettings(cfg.General.TelemetryOptIn))
	ws, err := workspace.Open(a.ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	if ws.LoadErr != nil {
		fmt.Fprintln(a.errOut, warnColor.Sprint("warning:"), "saved collections could not be read; starting empty.",
			"Run 'datacards collection restore' to recover the last backup.")
	}
	a.ws = ws
	if a.crash != nil {
		*a.crash = *ws.CrashTarget()
	}
	return ws, nil
}

func (a *app) close() {
	if a.ws == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	telemetry.Flush(ctx)
	if err := a.ws.Close(); err != nil {
		a.log.Warn("close workspace", slog.Any("err", err))
	}
	a.ws = nil
}

// Run executes the command line args writing to out and errOut, then closes
// the workspace if a command opened one. When target is non-nil it is filled
// in once the workspace opens so crash.Recover can save the live collections.
func Run(ctx context.Context, args []string, out, errOut io.Writer, target *crash.Target) error {
	a := &app{ctx: ctx, out: out, errOut: errOut, crash: target, log: applog.WithComponent("cli")}
	defer a.close()
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "datacards",
		Short: "Create data collection cards and export them for print",
		Long: `datacards builds named collections of survey cards. Each card has an icon,
a question and colored answer options with a blank tally box. Collections are
saved automatically and can be previewed, served as a print page or exported
to a paged PDF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "override the data directory (default from config or "+config.EnvDataDir+")")

	root.AddCommand(
		newCollectionCmd(a),
		newCardCmd(a),
		newOptionCmd(a),
		newIconsCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newUICmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command tree with os.Args and returns the process exit code.
func Execute(ctx context.Context, target *crash.Target) int {
	err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr, target)
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, errColor.Sprint("Error:"), err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return 2
	}
	return 1
}

// usageError marks errors caused by bad arguments.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{msg: fmt.Sprintf(format, args...)} }
