/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"datacards/internal/domain"
	"datacards/internal/export"
	applog "datacards/internal/log"
	rnd "datacards/internal/render"
	"datacards/internal/version"
)

type collectionSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards int    `json:"cards"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		s.log.WarnContext(r.Context(), msg, slog.String("path", r.URL.Path), slog.Any("err", err))
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": version.String()})
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (domain.Collection, bool) {
	id := chi.URLParam(r, "id")
	col, ok := s.src.State().Collection(id)
	if !ok {
		s.fail(w, r, http.StatusNotFound, "collection not found", nil)
	}
	return col, ok
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	st := s.src.State()
	out := make([]collectionSummary, 0, len(st.Collections))
	for _, c := range st.Collections {
		out = append(out, collectionSummary{ID: c.ID, Name: c.Name, Cards: len(c.Cards)})
	}
	render.JSON(w, r, out)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	if col, ok := s.collection(w, r); ok {
		render.JSON(w, r, col)
	}
}

func (s *Server) printPage(w http.ResponseWriter, r *http.Request) {
	col, ok := s.collection(w, r)
	if !ok {
		return
	}
	opt := rnd.PrintOptions{Resolver: s.opt.Resolver}
	if r.URL.Query().Get("raster") == "1" {
		tok := r.URL.Query().Get("jwt")
		opt.ImageURL = func(cardID string) string {
			u := "/api/collections/" + col.ID + "/cards/" + cardID + ".png"
			if tok != "" {
				u += "?jwt=" + tok
			}
			return u
		}
	}
	var buf bytes.Buffer
	if err := rnd.PrintHTML(&buf, col, opt); err != nil {
		s.fail(w, r, http.StatusInternalServerError, "render print page", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) cardPNG(w http.ResponseWriter, r *http.Request) {
	col, ok := s.collection(w, r)
	if !ok {
		return
	}
	i := col.CardIndex(chi.URLParam(r, "cardID"))
	if i < 0 {
		s.fail(w, r, http.StatusNotFound, "card not found", nil)
		return
	}
	ctx := applog.ContextWithCollection(r.Context(), col.ID)
	data, err := export.CardPNG(ctx, rnd.View(col, col.Cards[i]), s.opt.Export)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rnd.ErrBadImage) {
			status = http.StatusUnprocessableEntity
		}
		s.fail(w, r, status, "render card", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (s *Server) exportPDF(w http.ResponseWriter, r *http.Request) {
	col, ok := s.collection(w, r)
	if !ok {
		return
	}
	dir, err := os.MkdirTemp("", "datacards-pdf-")
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "export pdf", err)
		return
	}
	defer os.RemoveAll(dir)
	name := export.PDFFileName(col.Name)
	out := filepath.Join(dir, name)
	if _, err := export.ExportCollectionPDF(r.Context(), &col, out, s.opt.Export); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			s.fail(w, r, http.StatusConflict, err.Error(), nil)
			return
		}
		s.fail(w, r, http.StatusInternalServerError, "export pdf", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, out)
}
