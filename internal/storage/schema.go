/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schema/collections.schema.json
var collectionsSchema []byte

// ErrSchema reports a document that parses as JSON but does not have the collections layout.
var ErrSchema = errors.New("collections document does not match schema")

var (
	schemaOnce sync.Once
	schemaComp *gojsonschema.Schema
	schemaErr  error
)

// CollectionsSchema returns the embedded JSON schema for cardCollections.json.
func CollectionsSchema() []byte { return append([]byte(nil), collectionsSchema...) }

// ValidateCollections checks a raw document against the embedded schema.
func ValidateCollections(data []byte) error {
	schemaOnce.Do(func() {
		schemaComp, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(collectionsSchema))
	})
	if schemaErr != nil {
		return fmt.Errorf("compile schema: %w", schemaErr)
	}
	res, err := schemaComp.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		// not JSON at all
		return fmt.Errorf("validate: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for i, e := range res.Errors() {
		if i == 5 {
			msgs = append(msgs, "...")
			break
		}
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
