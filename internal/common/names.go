// Copyright 2026 VaultFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"fmt"
	"strings"
)

// MaxNameLen is the longest entry name the store accepts.
const MaxNameLen = 255

// ValidateName checks that an entry name is usable as a sibling key.
// Names are compared byte-for-byte; no case folding or unicode
// normalization is applied.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrValidation, MaxNameLen)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: reserved name %q", ErrValidation, name)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: name must not contain '/' or NUL", ErrValidation)
	}
	return nil
}

// ValidateOwner checks that an owner identifier is present. The identifier
// itself is opaque and trusted verbatim from the caller.
func ValidateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return fmt.Errorf("%w: owner id must not be empty", ErrValidation)
	}
	return nil
}
