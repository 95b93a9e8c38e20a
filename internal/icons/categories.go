/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package icons

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// CategoriesFileName is the user override looked up in the config dir.
const CategoriesFileName = "categories.toml"

// OtherCategory labels icons that match no category keyword.
const OtherCategory = "Other"

//go:embed data/categories.toml
var defaultCategoriesTOML string

// Category groups icons by name keywords.
type Category struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Keywords []string `toml:"keywords"`
}

type categoriesFile struct {
	Category []Category `toml:"category"`
}

// DefaultCategories returns the built-in category list.
func DefaultCategories() []Category {
	var f categoriesFile
	if _, err := toml.Decode(defaultCategoriesTOML, &f); err != nil {
		panic(fmt.Sprintf("embedded categories.toml: %v", err))
	}
	return f.Category
}

// LoadCategories reads path when it exists and falls back to the defaults otherwise.
func LoadCategories(path string) ([]Category, error) {
	if path == "" {
		return DefaultCategories(), nil
	}
	var f categoriesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultCategories(), nil
		}
		return DefaultCategories(), fmt.Errorf("decode %s: %w", path, err)
	}
	if len(f.Category) == 0 {
		return DefaultCategories(), fmt.Errorf("%s defines no categories", path)
	}
	for i, c := range f.Category {
		if strings.TrimSpace(c.ID) == "" {
			return DefaultCategories(), fmt.Errorf("%s: category %d has no id", path, i)
		}
	}
	return f.Category, nil
}

// WriteCategories saves cats as TOML, e.g. to seed a user override file.
func WriteCategories(path string, cats []Category) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	encoder := toml.NewEncoder(file)
	return encoder.Encode(categoriesFile{Category: cats})
}

// Categorize returns the name of the first category with a keyword contained in name.
func Categorize(cats []Category, name string) string {
	ln := strings.ToLower(name)
	for _, c := range cats {
		for _, k := range c.Keywords {
			if k != "" && strings.Contains(ln, strings.ToLower(k)) {
				return c.Name
			}
		}
	}
	return OtherCategory
}

func findCategory(cats []Category, id string) (Category, bool) {
	for _, c := range cats {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
