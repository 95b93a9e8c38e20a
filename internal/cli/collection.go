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

	"datacards/internal/telemetry"
)

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Create, list, rename and delete collections",
		Long: `A collection is a named, ordered set of cards. Collections can be referred to
by their number in 'collection ls', their id (or a unique id prefix) or their name.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new <name>",
			Short: "Create a collection and select it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				st, err := ws.Store.CreateCollection(args[0])
				if err != nil {
					return err
				}
				telemetry.Event(telemetry.EventCollectionCreated, nil)
				col, _ := st.ActiveCollection()
				fmt.Fprintf(a.out, "%s collection %q (%s)\n", okColor.Sprint("Created"), col.Name, shortID(col.ID))
				return nil
			},
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List collections",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				st := ws.Store.State()
				if len(st.Collections) == 0 {
					fmt.Fprintln(a.out, "No collections yet. Create one with 'datacards collection new <name>'.")
					return nil
				}
				for i, c := range st.Collections {
					marker := " "
					if c.ID == st.ActiveCollectionID {
						marker = okColor.Sprint("*")
					}
					fmt.Fprintf(a.out, "%s %2d. %s %s %s\n", marker, i+1, c.Name,
						dimColor.Sprintf("(%d cards)", len(c.Cards)), dimColor.Sprint(shortID(c.ID)))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "use <collection>",
			Short: "Select the collection card commands act on (\"\" clears)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				if strings.TrimSpace(args[0]) == "" {
					if _, err := ws.Store.SelectCollection(""); err != nil {
						return err
					}
					fmt.Fprintln(a.out, "Selection cleared")
					return nil
				}
				col, err := findCollection(ws.Store.State(), args[0])
				if err != nil {
					return err
				}
				if _, err := ws.Store.SelectCollection(col.ID); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Using collection %q\n", col.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <collection> <name>",
			Short: "Rename a collection",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				col, err := findCollection(ws.Store.State(), args[0])
				if err != nil {
					return err
				}
				if _, err := ws.Store.RenameCollection(col.ID, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %q to %q\n", okColor.Sprint("Renamed"), col.Name, args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm <collection>",
			Aliases: []string{"delete"},
			Short:   "Delete a collection and all of its cards",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				col, err := findCollection(ws.Store.State(), args[0])
				if err != nil {
					return err
				}
				if _, err := ws.Store.DeleteCollection(col.ID); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s collection %q (%d cards)\n", okColor.Sprint("Deleted"), col.Name, len(col.Cards))
				return nil
			},
		},
		&cobra.Command{
			Use:   "restore",
			Short: "Replace all collections with the newest readable backup",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ws, err := a.workspace()
				if err != nil {
					return err
				}
				path, err := ws.Restore()
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s %d collections from %s\n", okColor.Sprint("Restored"),
					len(ws.Store.State().Collections), filepath.Base(path))
				return nil
			},
		},
	)
	return cmd
}
