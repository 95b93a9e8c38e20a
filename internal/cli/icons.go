/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"datacards/internal/iconpack"
	"datacards/internal/icons"
)

func newIconsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icons",
		Short: "Search and inspect the icon catalog",
		Long: `The catalog holds the built-in set plus every Iconify JSON set placed in the
icons/ folder of the data directory. Icons are referred to as prefix:name.`,
	}

	printResults := func(rs []icons.Result) {
		if len(rs) == 0 {
			fmt.Fprintln(a.out, "No icons found.")
			return
		}
		order, groups := icons.GroupByCategory(rs)
		for _, cat := range order {
			fmt.Fprintln(a.out, labelColor.Sprint(cat))
			for _, r := range groups[cat] {
				fmt.Fprintf(a.out, "  %-32s %s\n", r.ID, dimColor.Sprint(r.Provider))
			}
		}
	}

	search := &cobra.Command{
		Use:   "search <term>",
		Short: "Find icons whose name contains term",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			rs, err := ws.Catalog.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printResults(rs)
			return nil
		},
	}

	var browse string
	categories := &cobra.Command{
		Use:   "categories",
		Short: "List icon categories, or browse one with --browse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			if browse != "" {
				rs, err := ws.Catalog.Browse(cmd.Context(), browse)
				if err != nil {
					return err
				}
				printResults(rs)
				return nil
			}
			for _, c := range ws.Catalog.Categories() {
				fmt.Fprintf(a.out, "%-14s %s\n", c.ID, c.Name)
			}
			for _, s := range ws.Catalog.Sets() {
				fmt.Fprintf(a.out, "%s %s (%d icons)\n", dimColor.Sprint("set"), s.Prefix, s.Count)
			}
			return nil
		},
	}
	categories.Flags().StringVar(&browse, "browse", "", "category id to list icons of")

	var svg bool
	var color string
	resolve := &cobra.Command{
		Use:   "resolve <prefix:name>",
		Short: "Check that an icon id resolves, optionally printing its SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace()
			if err != nil {
				return err
			}
			g, err := ws.Catalog.Resolve(args[0])
			if err != nil {
				return err
			}
			if svg {
				fmt.Fprintln(a.out, string(g.SVG(color, 64)))
				return nil
			}
			fmt.Fprintf(a.out, "%s %s (%gx%g)\n", okColor.Sprint("OK"), g.ID, g.Width, g.Height)
			return nil
		},
	}
	resolve.Flags().BoolVar(&svg, "svg", false, "print the icon as a standalone SVG")
	resolve.Flags().StringVar(&color, "color", "", "fill color for --svg")

	pack := &cobra.Command{
		Use:   "pack",
		Short: "Share the icon sets of the data directory as a zip",
	}
	pack.AddCommand(
		&cobra.Command{
			Use:   "export <file.zip>",
			Short: "Zip every icon set in the icons folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				n, err := iconpack.Export(ws.Slot.Dir, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %d icon sets to %s\n", okColor.Sprint("Packed"), n, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "install <file.zip>",
			Short: "Add the icon sets of a pack; existing sets are kept",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				n, err := iconpack.Install(ws.Slot.Dir, args[0])
				if err != nil {
					return err
				}
				if _, err := ws.Catalog.LoadDir(filepath.Join(ws.Slot.Dir, icons.IconsDirName)); err != nil {
					return err
				}
				if ws.Index != nil {
					if err := ws.Catalog.AttachIndex(cmd.Context(), ws.Index); err != nil {
						return err
					}
				}
				fmt.Fprintf(a.out, "%s %d icon sets\n", okColor.Sprint("Installed"), n)
				return nil
			},
		},
	)

	cmd.AddCommand(search, categories, resolve, pack)
	return cmd
}
