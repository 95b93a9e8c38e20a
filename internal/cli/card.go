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
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"datacards/internal/domain"
	"datacards/internal/editor"
	"datacards/internal/render"
	"datacards/internal/workspace"
)

// focusCollection selects the referenced collection in the store.
func (a *app) focusCollection(colRef string) (*workspace.Workspace, domain.Collection, error) {
	ws, err := a.workspace()
	if err != nil {
		return nil, domain.Collection{}, err
	}
	st := ws.Store.State()
	col, err := findCollection(st, colRef)
	if err != nil {
		return nil, domain.Collection{}, err
	}
	if st.ActiveCollectionID != col.ID {
		if _, err := ws.Store.SelectCollection(col.ID); err != nil {
			return nil, domain.Collection{}, err
		}
	}
	return ws, col, nil
}

// focusCard selects the referenced collection and card, making the card the
// one the editor acts on.
func (a *app) focusCard(colRef, cardRef string) (*workspace.Workspace, domain.Card, error) {
	ws, col, err := a.focusCollection(colRef)
	if err != nil {
		return nil, domain.Card{}, err
	}
	card, err := findCard(ws.Store.State(), col, cardRef)
	if err != nil {
		return nil, domain.Card{}, err
	}
	if _, err := ws.Store.SelectCard(card.ID); err != nil {
		return nil, domain.Card{}, err
	}
	return ws, card, nil
}

func newCardCmd(a *app) *cobra.Command {
	var colRef string
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Add, edit, preview and remove cards",
		Long: `Card commands act on the selected collection unless --collection is given.
Cards are referred to by their number in 'card ls' or their id. Without a card
argument the selected card is used.`,
	}
	cmd.PersistentFlags().StringVarP(&colRef, "collection", "c", "", "collection to act on")

	add := &cobra.Command{
		Use:   "add",
		Short: "Append a new card and select it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, col, err := a.focusCollection(colRef)
			if err != nil {
				return err
			}
			st, err := ws.Store.AddCard(col.ID)
			if err != nil {
				return err
			}
			c, _ := st.ActiveCollection()
			fmt.Fprintf(a.out, "%s card %d to %q (%s)\n", okColor.Sprint("Added"), len(c.Cards), c.Name, shortID(st.ActiveCardID))
			return nil
		},
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List the cards of a collection",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, col, err := a.focusCollection(colRef)
			if err != nil {
				return err
			}
			if len(col.Cards) == 0 {
				fmt.Fprintf(a.out, "%q has no cards. Add one with 'datacards card add'.\n", col.Name)
				return nil
			}
			active := ws.Store.State().ActiveCardID
			for i, c := range col.Cards {
				marker := " "
				if c.ID == active {
					marker = okColor.Sprint("*")
				}
				v := render.View(col, c)
				fmt.Fprintf(a.out, "%s %2d. [%s] %s %s\n", marker, i+1, c.IconType, v.Question(),
					dimColor.Sprintf("(%d options) %s", len(c.Options), shortID(c.ID)))
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [card]",
		Short: "Preview a card in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, card, err := a.focusCard(colRef, argOr(args, 0))
			if err != nil {
				return err
			}
			col, _ := ws.Store.State().ActiveCollection()
			width := terminalWidth(48)
			if width > 60 {
				width = 60
			}
			fmt.Fprintln(a.out, render.Terminal(render.View(col, card), width))
			return nil
		},
	}

	var (
		question, iconType, text, icon, image string
	)
	set := &cobra.Command{
		Use:   "set [card]",
		Short: "Edit the question and icon of a card",
		Long: `Set edits a card in place. --text, --icon and --image also switch the icon
type. Changes are saved immediately.

Examples:
  datacards card set 2 --question "Favourite pet?" --icon dc:dog
  datacards card set --text "A"
  datacards card set --image ./photo.png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, _, err := a.focusCard(colRef, argOr(args, 0))
			if err != nil {
				return err
			}
			ed := editor.New(ws.Store)
			f := cmd.Flags()
			if f.Changed("question") {
				if _, err := ed.SetQuestion(question); err != nil {
					return err
				}
			}
			if f.Changed("icon-type") {
				t, err := domain.ParseIconType(iconType)
				if err != nil {
					return usagef("%v", err)
				}
				if _, err := ed.SetIconType(t); err != nil {
					return err
				}
			}
			if f.Changed("text") {
				if _, err := ed.SetTextIcon(text); err != nil {
					return err
				}
			}
			if f.Changed("icon") {
				if _, err := ed.SetCatalogIcon(icon); err != nil {
					return err
				}
			}
			if f.Changed("image") {
				data, err := os.ReadFile(image)
				if err != nil {
					return err
				}
				if _, err := ed.SetImage(data, ""); err != nil {
					return fmt.Errorf("%s: %w", image, err)
				}
			}
			card, _ := ed.Card()
			fmt.Fprintf(a.out, "%s card %s\n", okColor.Sprint("Updated"), shortID(card.ID))
			return nil
		},
	}
	set.Flags().StringVarP(&question, "question", "q", "", "question text")
	set.Flags().StringVar(&iconType, "icon-type", "", "icon type: text, icon or image")
	set.Flags().StringVar(&text, "text", "", "text icon (at most 2 characters)")
	set.Flags().StringVar(&icon, "icon", "", "catalog icon id, e.g. dc:star")
	set.Flags().StringVar(&image, "image", "", "image file to embed as the icon")

	rm := &cobra.Command{
		Use:     "rm <card>",
		Aliases: []string{"delete"},
		Short:   "Delete a card",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, col, err := a.focusCollection(colRef)
			if err != nil {
				return err
			}
			card, err := findCard(ws.Store.State(), col, args[0])
			if err != nil {
				return err
			}
			if _, err := ws.Store.DeleteCard(card.ID); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s card %s\n", okColor.Sprint("Deleted"), shortID(card.ID))
			return nil
		},
	}

	move := &cobra.Command{
		Use:   "move <card> <delta>",
		Short: "Move a card earlier (negative) or later (positive) in the collection",
		Long: `Move a card by delta positions; the position is clamped to the collection.
Flags go before the card argument, so a negative delta is not read as a flag:

  datacards card move -c Quiz 3 -2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return usagef("delta must be an integer, got %q", args[1])
			}
			ws, col, err := a.focusCollection(colRef)
			if err != nil {
				return err
			}
			card, err := findCard(ws.Store.State(), col, args[0])
			if err != nil {
				return err
			}
			st, err := ws.Store.MoveCard(card.ID, delta)
			if err != nil {
				return err
			}
			col, _ = st.ActiveCollection()
			fmt.Fprintf(a.out, "%s card %s to position %d\n", okColor.Sprint("Moved"), shortID(card.ID), col.CardIndex(card.ID)+1)
			return nil
		},
	}

	move.Flags().SetInterspersed(false)

	cmd.AddCommand(add, ls, show, set, rm, move)
	return cmd
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
