//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */


package ui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"datacards/internal/crash"
	"datacards/internal/domain"
	"datacards/internal/editor"
	"datacards/internal/export"
	"datacards/internal/icons"
	applog "datacards/internal/log"
	"datacards/internal/render"
	"datacards/internal/store"
	"datacards/internal/telemetry"
	"datacards/internal/version"
	"datacards/internal/workspace"
)

// Run starts the Fyne-based card editor on ws and blocks until the window closes.
func Run(ws *workspace.Workspace) error {
	if ws == nil {
		return errors.New("ui: no workspace")
	}
	l := applog.WithComponent("ui")
	l.Info("starting UI")
	defer crash.Recover(ws.CrashTarget())

	fyneApp := app.NewWithID("datacards")
	w := fyneApp.NewWindow("Data Collection Cards")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	st := ws.Store
	ed := editor.New(st)
	state := st.State()
	// loading suppresses widget callbacks while fields are filled from the store
	loading := false
	status := widget.NewLabel("Ready")

	report := func(op string, err error) bool {
		if err == nil {
			return true
		}
		l.Warn("action rejected", slog.String("op", op), slog.Any("err", err))
		status.SetText(fmt.Sprintf("%s: %v", op, err))
		if errors.Is(err, store.ErrPersist) {
			dialog.ShowError(fmt.Errorf("changes could not be saved: %w", err), w)
		}
		return false
	}

	// Collections (left)
	colList := widget.NewList(
		func() int { return len(state.Collections) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			rows := collectionRows(state)
			if int(i) < len(rows) {
				o.(*widget.Label).SetText(rows[i])
			}
		},
	)
	colList.OnSelected = func(id widget.ListItemID) {
		if loading || int(id) >= len(state.Collections) {
			return
		}
		cid := state.Collections[id].ID
		if cid == state.ActiveCollectionID {
			return
		}
		_, err := st.SelectCollection(cid)
		report("select collection", err)
	}

	askName := func(title, initial string, done func(string)) {
		entry := widget.NewEntry()
		entry.SetText(initial)
		entry.SetPlaceHolder("Collection name")
		dialog.ShowForm(title, "OK", "Cancel", []*widget.FormItem{widget.NewFormItem("Name", entry)}, func(ok bool) {
			if ok {
				done(entry.Text)
			}
		}, w)
	}
	newCollection := func() {
		askName("New Collection", "", func(name string) {
			if _, err := st.CreateCollection(name); report("create collection", err) {
				telemetry.Event(telemetry.EventCollectionCreated, nil)
				status.SetText("Created collection " + name)
			}
		})
	}
	newColBtn := widget.NewButtonWithIcon("New", theme.ContentAddIcon(), newCollection)
	renameColBtn := widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), func() {
		col, ok := state.ActiveCollection()
		if !ok {
			return
		}
		askName("Rename Collection", col.Name, func(name string) {
			_, err := st.RenameCollection(col.ID, name)
			report("rename collection", err)
		})
	})
	deleteColBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		col, ok := state.ActiveCollection()
		if !ok {
			return
		}
		msg := fmt.Sprintf("Delete %q and its %d cards?", col.Name, len(col.Cards))
		dialog.ShowConfirm("Delete Collection", msg, func(yes bool) {
			if yes {
				_, err := st.DeleteCollection(col.ID)
				report("delete collection", err)
			}
		}, w)
	})
	left := container.NewBorder(
		container.NewVBox(widget.NewLabel("Collections"), container.NewHBox(newColBtn, renameColBtn, deleteColBtn), widget.NewSeparator()),
		nil, nil, nil, colList)

	// Cards (middle)
	cardList := widget.NewList(
		func() int { return len(cardRows(state)) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			rows := cardRows(state)
			if int(i) < len(rows) {
				o.(*widget.Label).SetText(rows[i])
			}
		},
	)
	cardList.OnSelected = func(id widget.ListItemID) {
		col, ok := state.ActiveCollection()
		if loading || !ok || int(id) >= len(col.Cards) {
			return
		}
		cid := col.Cards[id].ID
		if cid == state.ActiveCardID {
			return
		}
		_, err := st.SelectCard(cid)
		report("select card", err)
	}
	addCardBtn := widget.NewButtonWithIcon("Add Card", theme.ContentAddIcon(), func() {
		_, err := st.AddCard(state.ActiveCollectionID)
		report("add card", err)
	})
	upBtn := widget.NewButtonWithIcon("", theme.MoveUpIcon(), func() {
		_, err := st.MoveCard(state.ActiveCardID, -1)
		report("move card", err)
	})
	downBtn := widget.NewButtonWithIcon("", theme.MoveDownIcon(), func() {
		_, err := st.MoveCard(state.ActiveCardID, 1)
		report("move card", err)
	})
	deleteCardBtn := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		card, ok := state.ActiveCard()
		if !ok {
			return
		}
		dialog.ShowConfirm("Delete Card", "Delete this card?", func(yes bool) {
			if yes {
				_, err := st.DeleteCard(card.ID)
				report("delete card", err)
			}
		}, w)
	})
	middle := container.NewBorder(
		container.NewVBox(widget.NewLabel("Cards"), container.NewHBox(addCardBtn, upBtn, downBtn, deleteCardBtn), widget.NewSeparator()),
		nil, nil, nil, cardList)

	// Card editor (right)
	iconType := widget.NewRadioGroup(iconTypeOptions(), func(label string) {
		if loading {
			return
		}
		if t, ok := iconTypeFromLabel(label); ok {
			_, err := ed.SetIconType(t)
			report("icon type", err)
		}
	})
	iconType.Horizontal = true
	iconType.Required = true

	textIcon := widget.NewEntry()
	textIcon.SetPlaceHolder("?")
	textIcon.OnChanged = func(s string) {
		if loading {
			return
		}
		_, err := ed.SetTextIcon(s)
		report("text icon", err)
	}

	catalogPreview := canvas.NewImageFromResource(nil)
	catalogPreview.FillMode = canvas.ImageFillContain
	catalogPreview.SetMinSize(fyne.NewSize(32, 32))
	catalogLabel := widget.NewLabel("No icon selected")
	chooseIconBtn := widget.NewButtonWithIcon("Choose Icon…", theme.SearchIcon(), func() {
		showIconPicker(w, ws.Catalog, func(id string) {
			_, err := ed.SetCatalogIcon(id)
			report("choose icon", err)
		})
	})
	catalogRow := container.NewHBox(catalogPreview, catalogLabel, chooseIconBtn)

	imageLabel := widget.NewLabel("No image uploaded")
	uploadBtn := widget.NewButtonWithIcon("Upload Image…", theme.FolderOpenIcon(), func() {
		open := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if rc == nil {
				return
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if _, err := ed.SetImage(data, ""); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Image set from " + rc.URI().Name())
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}))
		open.Show()
	})
	imageRow := container.NewHBox(imageLabel, uploadBtn)

	question := widget.NewEntry()
	question.SetPlaceHolder("Question")
	question.OnChanged = func(s string) {
		if loading {
			return
		}
		_, err := ed.SetQuestion(s)
		report("question", err)
	}

	optionsBox := container.NewVBox()
	var optionIDs []string
	type optionRow struct {
		swatch *canvas.Rectangle
		color  *widget.SelectEntry
		text   *widget.Entry
		del    *widget.Button
	}
	var optionRows []optionRow
	buildOptionRows := func(card domain.Card) {
		optionsBox.RemoveAll()
		optionRows = optionRows[:0]
		optionIDs = optionIDs[:0]
		for i, o := range card.Options {
			idx := i
			optionIDs = append(optionIDs, o.ID)
			sw := canvas.NewRectangle(domain.ColorOr(o.Color, color.RGBA{A: 255}))
			sw.SetMinSize(fyne.NewSize(24, 24))
			sw.CornerRadius = 12
			ce := widget.NewSelectEntry(domain.Palette[:])
			ce.OnChanged = func(s string) {
				if loading {
					return
				}
				if _, err := domain.NormalizeColor(s); err != nil {
					return // wait for a complete hex value
				}
				_, err := ed.SetOptionColor(idx, s)
				report("option color", err)
			}
			te := widget.NewEntry()
			te.OnChanged = func(s string) {
				if loading {
					return
				}
				_, err := ed.SetOptionText(idx, s)
				report("option text", err)
			}
			del := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
				_, err := ed.DeleteOption(idx)
				report("delete option", err)
			})
			optionRows = append(optionRows, optionRow{swatch: sw, color: ce, text: te, del: del})
			colorBox := container.NewGridWrap(fyne.NewSize(120, ce.MinSize().Height), ce)
			optionsBox.Add(container.NewBorder(nil, nil, container.NewHBox(sw, colorBox), del, te))
		}
	}
	sameOptions := func(card domain.Card) bool {
		if len(card.Options) != len(optionIDs) {
			return false
		}
		for i, o := range card.Options {
			if optionIDs[i] != o.ID {
				return false
			}
		}
		return true
	}
	addOptionBtn := widget.NewButtonWithIcon("Add Option", theme.ContentAddIcon(), func() {
		_, err := ed.AddOption()
		report("add option", err)
	})

	preview := NewCardPreview(render.Options{Resolver: ws.Catalog, Fonts: ws.Fonts})

	form := container.NewVBox(
		widget.NewLabelWithStyle("Icon", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		iconType, textIcon, catalogRow, imageRow,
		widget.NewLabelWithStyle("Question", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		question,
		widget.NewLabelWithStyle("Options", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		optionsBox, addOptionBtn,
	)
	editorPane := container.NewVScroll(form)
	emptyEditor := widget.NewLabel("Select or add a card to edit it.")
	right := container.NewHSplit(container.NewStack(editorPane, emptyEditor), container.NewPadded(preview))
	right.Offset = 0.55

	setEnabled := func(b *widget.Button, on bool) {
		if on {
			b.Enable()
		} else {
			b.Disable()
		}
	}
	setEntry := func(e *widget.Entry, v string) {
		if e.Text != v {
			e.SetText(v)
		}
	}

	refresh := func(ns store.State) {
		state = ns
		loading = true
		defer func() { loading = false }()

		colList.Refresh()
		if i := collectionIndex(state, state.ActiveCollectionID); i >= 0 {
			colList.Select(widget.ListItemID(i))
		} else {
			colList.UnselectAll()
		}
		col, hasCol := state.ActiveCollection()
		cardList.Refresh()
		if hasCol && state.ActiveCardID != "" {
			if i := col.CardIndex(state.ActiveCardID); i >= 0 {
				cardList.Select(widget.ListItemID(i))
			}
		} else {
			cardList.UnselectAll()
		}
		setEnabled(renameColBtn, hasCol)
		setEnabled(deleteColBtn, hasCol)
		setEnabled(addCardBtn, hasCol)

		card, hasCard := state.ActiveCard()
		setEnabled(upBtn, hasCard)
		setEnabled(downBtn, hasCard)
		setEnabled(deleteCardBtn, hasCard)
		if !hasCard {
			editorPane.Hide()
			emptyEditor.Show()
			preview.SetCard(nil)
			return
		}
		editorPane.Show()
		emptyEditor.Hide()

		iconType.SetSelected(iconTypeLabel(card.IconType))
		textIcon.Hide()
		catalogRow.Hide()
		imageRow.Hide()
		switch ic := card.Glyph().(type) {
		case domain.TextIcon:
			setEntry(textIcon, ic.Glyph)
			textIcon.Show()
		case domain.CatalogIcon:
			catalogLabel.SetText("No icon selected")
			catalogPreview.Resource = nil
			if ic.ID != "" {
				catalogLabel.SetText(ic.ID)
				if g, err := ws.Catalog.Resolve(ic.ID); err == nil {
					catalogPreview.Resource = fyne.NewStaticResource(ic.ID+".svg", g.SVG("#374151", 32))
				}
			}
			catalogPreview.Refresh()
			catalogRow.Show()
		case domain.ImageIcon:
			if ic.DataURL == "" {
				imageLabel.SetText("No image uploaded")
			} else if mime, data, err := domain.DecodeDataURL(ic.DataURL); err == nil {
				imageLabel.SetText(fmt.Sprintf("%s, %d KB", mime, (len(data)+1023)/1024))
			} else {
				imageLabel.SetText("Unreadable image")
			}
			imageRow.Show()
		}
		setEntry(question, card.Question)

		if !sameOptions(card) {
			buildOptionRows(card)
		}
		for i, o := range card.Options {
			r := optionRows[i]
			r.swatch.FillColor = domain.ColorOr(o.Color, color.RGBA{A: 255})
			r.swatch.Refresh()
			if r.color.Text != o.Color {
				if n, err := domain.NormalizeColor(r.color.Text); err != nil || n != o.Color {
					r.color.SetText(o.Color)
				}
			}
			setEntry(r.text, o.Text)
			setEnabled(r.del, len(card.Options) > 1)
		}
		v := render.View(col, card)
		preview.SetCard(&v)
	}
	cancelSub := st.Subscribe(refresh)
	defer cancelSub()

	// Export
	exportTarget := func() (domain.Collection, bool) {
		col, ok := state.ExportTarget()
		if !ok || len(col.Cards) == 0 {
			dialog.ShowInformation("Export", "Select a collection with at least one card first.", w)
			return col, false
		}
		return col, true
	}
	runExport := func(title string, fn func(ctx context.Context, progress func(done, total int)) (string, error)) {
		bar := widget.NewProgressBar()
		prog := dialog.NewCustomWithoutButtons(title, bar, w)
		prog.Show()
		go func() {
			msg, err := fn(context.Background(), func(done, total int) {
				fyne.Do(func() { bar.SetValue(float64(done) / float64(total)) })
			})
			fyne.Do(func() {
				prog.Hide()
				if err != nil {
					l.Error("export failed", slog.String("title", title), slog.Any("err", err))
					dialog.ShowError(err, w)
					return
				}
				status.SetText(msg)
				dialog.ShowInformation(title, msg, w)
			})
		}()
	}
	exportPDFItem := fyne.NewMenuItem("Export PDF…", func() {
		col, ok := exportTarget()
		if !ok {
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			runExport("Export PDF", func(ctx context.Context, progress func(int, int)) (string, error) {
				opt := ws.ExportOptions()
				opt.Progress = progress
				res, err := export.ExportCollectionPDF(ctx, &col, outPath, opt)
				if err != nil {
					return "", err
				}
				telemetry.Event(telemetry.EventExportPDF, map[string]any{"pages": res.Pages, "cards": res.Placed})
				msg := fmt.Sprintf("Exported %d cards on %d pages to %s", res.Placed, res.Pages, res.Path)
				if n := len(res.Skipped); n > 0 {
					msg += fmt.Sprintf("\n%d cards could not be rendered and were left blank.", n)
				}
				return msg, nil
			})
		}, w)
		save.SetFileName(export.PDFFileName(col.Name))
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{".pdf"}))
		save.Show()
	})
	exportPNGItem := fyne.NewMenuItem("Export PNG per Card…", func() {
		col, ok := exportTarget()
		if !ok {
			return
		}
		dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if dir == nil {
				return
			}
			runExport("Export PNG", func(ctx context.Context, progress func(int, int)) (string, error) {
				opt := ws.ExportOptions()
				opt.Progress = progress
				paths, err := export.ExportCardPNGs(ctx, &col, dir.Path(), opt)
				if err != nil {
					return "", err
				}
				telemetry.Event(telemetry.EventExportPNG, map[string]any{"cards": len(paths)})
				return fmt.Sprintf("Wrote %d PNG files to %s", len(paths), dir.Path()), nil
			})
		}, w)
	})
	printItem := fyne.NewMenuItem("Open Print Page", func() {
		col, ok := state.ExportTarget()
		if !ok {
			dialog.ShowInformation("Print", "Select a collection first.", w)
			return
		}
		path, err := writePrintPage(ws, col)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if err := fyneApp.OpenURL(&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}); err != nil {
			dialog.ShowError(err, w)
		}
	})

	restoreItem := fyne.NewMenuItem("Restore Latest Backup…", func() {
		dialog.ShowConfirm("Restore Backup", "Replace all collections with the newest backup?", func(yes bool) {
			if !yes {
				return
			}
			path, err := ws.Restore()
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Restored " + filepath.Base(path))
		}, w)
	})
	fileMenu := fyne.NewMenu("File", fyne.NewMenuItem("New Collection…", newCollection), restoreItem)
	exportMenu := fyne.NewMenu("Export", exportPDFItem, exportPNGItem, printItem)
	aboutItem := fyne.NewMenuItem("About Data Collection Cards", func() {
		info := fmt.Sprintf("Data Collection Cards\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nData: %s",
			version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), ws.Slot.Dir)
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, exportMenu, fyne.NewMenu("About", aboutItem)))

	lists := container.NewHSplit(left, middle)
	lists.Offset = 0.45
	body := container.NewHSplit(lists, right)
	body.Offset = 0.35
	w.SetContent(container.NewBorder(nil, status, nil, nil, body))

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if ws.LoadErr != nil {
		dialog.ShowInformation("Saved data unreadable",
			"Your saved collections could not be read, so the editor started empty.\nUse File > Restore Latest Backup to recover them.", w)
	}
	refresh(st.State())
	w.ShowAndRun()
	return nil
}

// writePrintPage renders the print view of col into the temp dir.
func writePrintPage(ws *workspace.Workspace, col domain.Collection) (string, error) {
	path := filepath.Join(os.TempDir(), "datacards-"+export.BaseName(col.Name)+"-print.html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	err = render.PrintHTML(f, col, render.PrintOptions{Resolver: ws.Catalog, Date: time.Now(), Columns: ws.Config.Export.Columns})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return path, err
}

// showIconPicker lists catalog icons by category with a debounced search and
// calls onPick with the chosen id.
func showIconPicker(w fyne.Window, cat *icons.Catalog, onPick func(id string)) {
	var results []icons.Result
	info := widget.NewLabel("")
	list := widget.NewList(
		func() int { return len(results) },
		func() fyne.CanvasObject {
			img := canvas.NewImageFromResource(nil)
			img.FillMode = canvas.ImageFillContain
			img.SetMinSize(fyne.NewSize(24, 24))
			return container.NewHBox(img, widget.NewLabel(""))
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if int(i) >= len(results) {
				return
			}
			r := results[i]
			row := o.(*fyne.Container)
			img := row.Objects[0].(*canvas.Image)
			img.Resource = nil
			if g, err := cat.Resolve(r.ID); err == nil {
				img.Resource = fyne.NewStaticResource(r.ID+".svg", g.SVG("#374151", 24))
			}
			img.Refresh()
			row.Objects[1].(*widget.Label).SetText(fmt.Sprintf("%s  (%s, %s)", r.Name, r.Provider, r.Category))
		},
	)
	show := func(rs []icons.Result, err error) {
		if err != nil {
			info.SetText("Search failed: " + err.Error())
			return
		}
		results = rs
		info.SetText(fmt.Sprintf("%d icons", len(rs)))
		list.UnselectAll()
		list.Refresh()
	}

	cats := cat.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	category := widget.NewSelect(names, func(name string) {
		for _, c := range cats {
			if c.Name == name {
				show(cat.Browse(context.Background(), c.ID))
				return
			}
		}
	})

	deb := newDebouncer(SearchDebounce, func(term string) {
		rs, err := cat.Search(context.Background(), term)
		fyne.Do(func() { show(rs, err) })
	})
	search := widget.NewEntry()
	search.SetPlaceHolder("Search icons")
	search.OnChanged = func(s string) {
		if s == "" {
			deb.Stop()
			category.SetSelectedIndex(0)
			return
		}
		deb.Trigger(s)
	}

	content := container.NewBorder(container.NewVBox(search, category, info), nil, nil, nil, list)
	d := dialog.NewCustom("Choose Icon", "Cancel", content, w)
	list.OnSelected = func(id widget.ListItemID) {
		if int(id) >= len(results) {
			return
		}
		deb.Stop()
		d.Hide()
		onPick(results[id].ID)
	}
	d.SetOnClosed(deb.Stop)
	d.Resize(fyne.NewSize(520, 560))
	if len(names) > 0 {
		category.SetSelectedIndex(0)
	}
	d.Show()
}
