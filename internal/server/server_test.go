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
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"datacards/internal/domain"
	"datacards/internal/export"
	"datacards/internal/store"
)

func fixture(t *testing.T) (*Server, http.Handler, string, []domain.Collection) {
	t.Helper()
	full := domain.NewCollection("Lunch Poll")
	card := domain.NewCard()
	card.Question = "What did you eat?"
	full.Cards = []domain.Card{card}
	empty := domain.NewCollection("Empty")
	cols := []domain.Collection{full, empty}

	srv, err := New(store.New(nil, cols), Options{Secret: "s3cret", Export: export.Options{DPI: 36}})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	tok, err := srv.IssueToken(0)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return srv, srv.Routes(), tok, cols
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(store.New(nil, nil), Options{}); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("want ErrNoSecret, got %v", err)
	}
}

func TestPublicEndpoints(t *testing.T) {
	_, h, _, _ := fixture(t)
	if rec := get(h, "/healthz"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body)
	}
	if rec := get(h, "/version"); rec.Code != http.StatusOK {
		t.Fatalf("version = %d", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	_, h, _, _ := fixture(t)
	if rec := get(h, "/api/collections"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", rec.Code)
	}
	if rec := get(h, "/api/collections?jwt=garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", rec.Code)
	}
	other, _ := New(store.New(nil, nil), Options{Secret: "other"})
	foreign, _ := other.IssueToken(0)
	if rec := get(h, "/api/collections?jwt="+foreign); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token from another secret: %d", rec.Code)
	}
}

func TestListAndGetCollections(t *testing.T) {
	_, h, tok, cols := fixture(t)
	rec := get(h, "/api/collections?jwt="+tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	var got []collectionSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []collectionSummary{{cols[0].ID, "Lunch Poll", 1}, {cols[1].ID, "Empty", 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summaries (-want +got):\n%s", diff)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/collections/"+cols[0].ID, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var col domain.Collection
	if err := json.Unmarshal(rec.Body.Bytes(), &col); err != nil || col.ID != cols[0].ID {
		t.Fatalf("get collection = %d %s", rec.Code, rec.Body)
	}
	if rec := get(h, "/api/collections/nope?jwt="+tok); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown collection = %d", rec.Code)
	}
}

func TestPrintPage(t *testing.T) {
	_, h, tok, cols := fixture(t)
	rec := get(h, "/print/"+cols[0].ID+"?jwt="+tok)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "What did you eat?") {
		t.Fatalf("print = %d", rec.Code)
	}
	rec = get(h, "/print/"+cols[0].ID+"?raster=1&jwt="+tok)
	want := "/api/collections/" + cols[0].ID + "/cards/" + cols[0].Cards[0].ID + ".png?jwt=" + tok
	if !strings.Contains(rec.Body.String(), want) {
		t.Fatalf("raster print page does not link %s", want)
	}
}

func TestCardPNG(t *testing.T) {
	_, h, tok, cols := fixture(t)
	rec := get(h, "/api/collections/"+cols[0].ID+"/cards/"+cols[0].Cards[0].ID+".png?jwt="+tok)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("png = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if rec := get(h, "/api/collections/"+cols[0].ID+"/cards/missing.png?jwt="+tok); rec.Code != http.StatusNotFound {
		t.Fatalf("missing card = %d", rec.Code)
	}
}

func TestExportPDF(t *testing.T) {
	_, h, tok, cols := fixture(t)
	rec := get(h, "/api/collections/"+cols[0].ID+"/export.pdf?jwt="+tok)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("pdf = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Lunch_Poll_cards.pdf") {
		t.Fatalf("content disposition = %q", cd)
	}
	if rec := get(h, "/api/collections/"+cols[1].ID+"/export.pdf?jwt="+tok); rec.Code != http.StatusConflict {
		t.Fatalf("empty collection = %d", rec.Code)
	}
}
