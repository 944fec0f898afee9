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

import "errors"

var (
	// ErrNotFound is returned when an entry does not exist, is soft-deleted,
	// or is not owned by the caller. The three cases are indistinguishable
	// to the caller on purpose.
	ErrNotFound = errors.New("entry not found")

	// ErrNameConflict is returned when a live sibling under the same parent
	// already carries the requested name.
	ErrNameConflict = errors.New("name already exists")

	// ErrQuotaExceeded is returned when an upload would push the owner's
	// total usage over the quota limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrValidation is returned for empty or malformed input fields.
	ErrValidation = errors.New("invalid input")
)
