/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// IconType tags how Card.Icon is interpreted.
type IconType string

const (
	IconText  IconType = "text"
	IconIcon  IconType = "icon"
	IconImage IconType = "image"
)

// MaxTextIconRunes bounds a text glyph.
const MaxTextIconRunes = 2

var (
	ErrUnknownIconType = errors.New("unknown icon type")
	ErrBadDataURL      = errors.New("malformed data URL")
)

// Icon is the typed view of a card's icon field. It is one of TextIcon,
// CatalogIcon or ImageIcon.
type Icon interface {
	Type() IconType
	Value() string
}

// TextIcon is a short literal glyph, e.g. "?" or an emoji.
type TextIcon struct{ Glyph string }

// CatalogIcon references an icon set entry as "prefix:name".
type CatalogIcon struct{ ID string }

// ImageIcon holds an uploaded image as a data URL.
type ImageIcon struct{ DataURL string }

func (TextIcon) Type() IconType    { return IconText }
func (t TextIcon) Value() string   { return t.Glyph }
func (CatalogIcon) Type() IconType { return IconIcon }
func (c CatalogIcon) Value() string {
	return c.ID
}
func (ImageIcon) Type() IconType  { return IconImage }
func (i ImageIcon) Value() string { return i.DataURL }

// Glyph returns the typed icon. Unknown icon types are treated as text so
// stored data from newer versions still renders.
func (c Card) Glyph() Icon {
	switch c.IconType {
	case IconIcon:
		return CatalogIcon{ID: c.Icon}
	case IconImage:
		return ImageIcon{DataURL: c.Icon}
	default:
		return TextIcon{Glyph: c.Icon}
	}
}

// SetGlyph writes both IconType and Icon from ic.
func (c *Card) SetGlyph(ic Icon) {
	c.IconType = ic.Type()
	c.Icon = ic.Value()
}

// ParseIconType validates a tag string.
func ParseIconType(s string) (IconType, error) {
	switch t := IconType(strings.ToLower(strings.TrimSpace(s))); t {
	case IconText, IconIcon, IconImage:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIconType, s)
}

// ClampTextIcon truncates s to MaxTextIconRunes runes.
func ClampTextIcon(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextIconRunes {
		return s
	}
	r := []rune(s)
	return string(r[:MaxTextIconRunes])
}

// SplitIconID splits "prefix:name". ok is false when either part is empty.
func SplitIconID(id string) (prefix, name string, ok bool) {
	prefix, name, found := strings.Cut(id, ":")
	if !found || prefix == "" || name == "" {
		return "", "", false
	}
	return prefix, name, true
}

// EncodeDataURL builds "data:<mime>;base64,<payload>".
func EncodeDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the mime type and payload of a data URL.
// Both base64 and plain (percent-free) payloads are accepted.
func DecodeDataURL(s string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	isB64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isB64 = m, true
	}
	mime = meta
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !isB64 {
		return mime, []byte(payload), nil
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
	}
	return mime, data, nil
}
