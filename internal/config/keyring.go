/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Service/keys for OS keyring.
const (
	keyringService   = "DataCards"
	keyringPrintKey  = "print_secret"
	printSecretBytes = 32
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var tokenStore TokenStore = osKeyring{}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// PrintSecret returns the signing secret for print-server links, creating and
// storing one in the keyring on first use. When the keyring is unavailable a
// fresh process-local secret is returned together with the keyring error, so
// callers can log and carry on; links then only live as long as the process.
func PrintSecret() (string, error) {
	s, err := tokenStore.Get(keyringService, keyringPrintKey)
	if err == nil && s != "" {
		return s, nil
	}
	fresh, gerr := newSecret()
	if gerr != nil {
		return "", gerr
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fresh, fmt.Errorf("keyring unavailable: %w", err)
	}
	if err := tokenStore.Set(keyringService, keyringPrintKey, fresh); err != nil {
		return fresh, fmt.Errorf("store print secret: %w", err)
	}
	return fresh, nil
}

// RotatePrintSecret drops the stored secret so the next PrintSecret call issues a new one.
// Links signed with the old secret stop working.
func RotatePrintSecret() error {
	err := tokenStore.Delete(keyringService, keyringPrintKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func newSecret() (string, error) {
	b := make([]byte, printSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
