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

	"github.com/spf13/cobra"

	"datacards/internal/editor"
)

func newOptionCmd(a *app) *cobra.Command {
	var colRef string
	cmd := &cobra.Command{
		Use:     "option",
		Aliases: []string{"opt"},
		Short:   "Add, edit and remove answer options of a card",
		Long: `Options are referred to by their number as shown in 'card show'. A card always
keeps at least one option.`,
	}
	cmd.PersistentFlags().StringVarP(&colRef, "collection", "c", "", "collection to act on")

	add := &cobra.Command{
		Use:   "add [card]",
		Short: "Append an option with the next palette color",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := a.focusCard(colRef, argOr(args, 0))
			if err != nil {
				return err
			}
			ed := editor.New(ws.Store)
			if _, err := ed.AddOption(); err != nil {
				return err
			}
			card, _ := ed.Card()
			o := card.Options[len(card.Options)-1]
			fmt.Fprintf(a.out, "%s %q %s\n", okColor.Sprint("Added"), o.Text, dimColor.Sprint(o.Color))
			return nil
		},
	}

	rm := &cobra.Command{
		Use:     "rm <card> <option>",
		Aliases: []string{"delete"},
		Short:   "Delete an option",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := optionIndex(args[1])
			if err != nil {
				return err
			}
			ws, _, err := a.focusCard(colRef, args[0])
			if err != nil {
				return err
			}
			if _, err := editor.New(ws.Store).DeleteOption(i); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s option %d\n", okColor.Sprint("Deleted"), i+1)
			return nil
		},
	}

	var text, color string
	set := &cobra.Command{
		Use:   "set <card> <option>",
		Short: "Change the text or color of an option",
		Long: `Set changes an option in place. Colors are hex values like #34A853 or #3a5.

Example:
  datacards option set 1 2 --text "Cats" --color "#EA4335"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := optionIndex(args[1])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if !f.Changed("text") && !f.Changed("color") {
				return usagef("nothing to change; pass --text and/or --color")
			}
			ws, _, err := a.focusCard(colRef, args[0])
			if err != nil {
				return err
			}
			ed := editor.New(ws.Store)
			if f.Changed("text") {
				if _, err := ed.SetOptionText(i, text); err != nil {
					return err
				}
			}
			if f.Changed("color") {
				if _, err := ed.SetOptionColor(i, color); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "%s option %d\n", okColor.Sprint("Updated"), i+1)
			return nil
		},
	}
	set.Flags().StringVarP(&text, "text", "t", "", "option label")
	set.Flags().StringVar(&color, "color", "", "option color as hex")

	cmd.AddCommand(add, rm, set)
	return cmd
}
