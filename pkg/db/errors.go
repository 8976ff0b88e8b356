/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import "errors"

var (
	ErrFailedOpenDB   = errors.New("failed to open database")
	ErrFailedToInsert = errors.New("failed to insert record")
	ErrFailedToQuery  = errors.New("failed to query records")
	ErrFailedToScan   = errors.New("failed to scan row")
	ErrFailedToUpdate = errors.New("failed to update record")
	ErrFailedToClean  = errors.New("failed to clean old data from")
	ErrNotFound       = errors.New("record not found")
)
