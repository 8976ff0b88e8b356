/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package querylog

import (
	"regexp"
	"strings"

	"github.com/carverauto/pulse/pkg/models"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tableNameRe  = regexp.MustCompile("(?i)(?:FROM|INTO|UPDATE|TABLE)\\s+[`\"]?(\\w+)[`\"]?")
)

// NormalizeSQL collapses runs of whitespace and trims the statement, so that
// textually identical queries compare equal regardless of formatting.
func NormalizeSQL(sql string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(sql), " ")
}

// ExtractQueryType returns the leading SQL verb, or OTHER when the statement
// does not start with a recognized verb.
func ExtractQueryType(sql string) string {
	upper := strings.ToUpper(strings.TrimSpace(sql))

	for _, verb := range []string{
		models.QueryTypeSelect,
		models.QueryTypeInsert,
		models.QueryTypeUpdate,
		models.QueryTypeDelete,
		models.QueryTypeCreate,
		models.QueryTypeAlter,
		models.QueryTypeDrop,
	} {
		if strings.HasPrefix(upper, verb) {
			return verb
		}
	}

	return models.QueryTypeOther
}

// ExtractTableName returns the first identifier following FROM, INTO, UPDATE
// or TABLE. Unparsable SQL yields nil rather than an error.
func ExtractTableName(sql string) *string {
	matches := tableNameRe.FindStringSubmatch(sql)
	if len(matches) < 2 {
		return nil
	}

	table := matches[1]

	return &table
}
