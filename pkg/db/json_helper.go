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

import "encoding/json"

// marshalJSON serializes v for a jsonb column, mapping nil values to a SQL
// NULL rather than the JSON literal "null".
func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return nil, nil
		}
	case map[string][]string:
		if t == nil {
			return nil, nil
		}
	case []any:
		if t == nil {
			return nil, nil
		}
	}

	return json.Marshal(v)
}

// unmarshalJSON deserializes a jsonb column into target, treating NULL as an
// absent value.
func unmarshalJSON(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, target)
}
