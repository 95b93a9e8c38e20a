/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements persistence for card collections and the local index.
// The canonical state is one JSON document, cardCollections.json, in the data dir. It is read
// whole at startup and rewritten whole after every change, with transactional writes and
// timestamped backups. The SQLite index at <data>/index.sqlite holds the icon name catalog and a
// raster cache. It is derived data and is rebuilt from scratch when it is found corrupt.
package storage
