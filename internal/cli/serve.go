/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"datacards/internal/config"
	"datacards/internal/server"
	"datacards/internal/telemetry"
	"datacards/internal/ui"
	"datacards/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		ttl    time.Duration
		rotate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve print pages and exports over local HTTP",
		Long: `Serve starts a read-only HTTP server for the print page and the export API.
Every route except /healthz and /version needs the token printed at start-up,
passed as ?jwt=, a Bearer header or a jwt cookie. Tokens are signed with a
secret kept in the OS keyring; --rotate-secret invalidates all earlier links.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			if rotate {
				if err := config.RotatePrintSecret(); err != nil {
					a.log.Warn("rotate secret failed", slog.Any("err", err))
				}
			}
			secret, err := config.PrintSecret()
			if secret == "" {
				return fmt.Errorf("print secret: %w", err)
			}
			if err != nil {
				fmt.Fprintln(a.errOut, warnColor.Sprint("warning:"), "keyring unavailable; links stop working when the server exits")
			}
			if addr == "" {
				addr = ws.Config.Server.Addr
			}
			srv, err := server.New(ws.Store, server.Options{Secret: secret, Resolver: ws.Catalog, Export: ws.ExportOptions()})
			if err != nil {
				return err
			}
			tok, err := srv.IssueToken(ttl)
			if err != nil {
				return err
			}

			host := addr
			if h, p, err := net.SplitHostPort(addr); err == nil && (h == "" || h == "0.0.0.0") {
				host = net.JoinHostPort("127.0.0.1", p)
			}
			q := url.Values{"jwt": {tok}}.Encode()
			fmt.Fprintf(a.out, "%s http://%s/\n", labelColor.Sprint("Serving on"), host)
			if col, ok := ws.Store.State().ExportTarget(); ok {
				fmt.Fprintf(a.out, "%s http://%s/print/%s?%s\n", labelColor.Sprint("Print page:"), host, col.ID, q)
			}
			fmt.Fprintf(a.out, "%s http://%s/api/collections?%s\n", labelColor.Sprint("API:"), host, q)
			fmt.Fprintf(a.out, "%s %s\n", labelColor.Sprint("Token expires:"), time.Now().Add(effectiveTTL(ttl)).Format(time.RFC1123))
			telemetry.Event(telemetry.EventServeStarted, nil)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.EnvServerAddr+")")
	cmd.Flags().DurationVar(&ttl, "ttl", server.DefaultTokenTTL, "lifetime of the printed access token")
	cmd.Flags().BoolVar(&rotate, "rotate-secret", false, "generate a new signing secret first")
	return cmd
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return server.DefaultTokenTTL
	}
	return ttl
}

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop card editor",
		Long:  `Opens the desktop editor. Binaries built without the fyne build tag print how to rebuild.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			return ui.Run(ws)
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, "datacards", version.String())
		},
	}
}
