/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"regexp"
	"strings"
)

// FallbackPDFName is used when the collection has no name.
const FallbackPDFName = "data_collection_cards.pdf"

var (
	spaceRun = regexp.MustCompile(`\s+`)
	unsafe   = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)
)

// BaseName turns a collection name into a file name stem. Leading and trailing
// whitespace is trimmed, inner whitespace runs (tabs and newlines included)
// become "_", then path-hostile characters are dropped. Empty input gives "".
func BaseName(name string) string {
	s := spaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	return unsafe.ReplaceAllString(s, "")
}

// PDFFileName returns "<name>_cards.pdf" or FallbackPDFName.
func PDFFileName(name string) string {
	b := BaseName(name)
	if b == "" {
		return FallbackPDFName
	}
	return b + "_cards.pdf"
}
