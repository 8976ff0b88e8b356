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

package tracer

import (
	"encoding/json"
	"strings"
)

const redactedValue = "***REDACTED***"

// sensitiveHeaders are compared case-insensitively against request header
// names.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"x-api-key":     true,
	"x-auth-token":  true,
}

// sensitivePayloadFields are compared case-insensitively against top-level
// payload keys.
var sensitivePayloadFields = map[string]bool{
	"password":              true,
	"password_confirmation": true,
	"token":                 true,
	"secret":                true,
	"api_key":               true,
}

// sanitizeHeaders copies headers with sensitive values replaced. The input is
// never modified.
func sanitizeHeaders(headers map[string][]string) map[string][]string {
	if headers == nil {
		return nil
	}

	out := make(map[string][]string, len(headers))

	for name, values := range headers {
		if sensitiveHeaders[strings.ToLower(name)] {
			out[name] = []string{redactedValue}
			continue
		}

		copied := make([]string, len(values))
		copy(copied, values)
		out[name] = copied
	}

	return out
}

// sanitizePayload redacts sensitive top-level fields and replaces payloads
// whose JSON encoding exceeds maxSize bytes with a truncation marker.
func sanitizePayload(payload map[string]any, maxSize int) map[string]any {
	if payload == nil {
		return nil
	}

	out := make(map[string]any, len(payload))

	for key, value := range payload {
		if sensitivePayloadFields[strings.ToLower(key)] {
			out[key] = redactedValue
			continue
		}

		out[key] = value
	}

	if maxSize > 0 {
		encoded, err := json.Marshal(out)
		if err == nil && len(encoded) > maxSize {
			return map[string]any{
				"_truncated": true,
				"_size":      len(encoded),
				"_message":   "Payload too large to store",
			}
		}
	}

	return out
}

// matchesAny reports whether value matches any of the wildcard patterns.
func matchesAny(patterns []string, value string) bool {
	for _, pattern := range patterns {
		if wildcardMatch(pattern, value) {
			return true
		}
	}

	return false
}

// wildcardMatch matches value against pattern where each `*` matches any run
// of characters, path separators included. A pattern without wildcards must
// match exactly.
func wildcardMatch(pattern, value string) bool {
	if pattern == value {
		return true
	}

	if !strings.Contains(pattern, "*") {
		return false
	}

	parts := strings.Split(pattern, "*")

	if !strings.HasPrefix(value, parts[0]) {
		return false
	}

	value = value[len(parts[0]):]
	last := len(parts) - 1

	for _, part := range parts[1:last] {
		idx := strings.Index(value, part)
		if idx < 0 {
			return false
		}

		value = value[idx+len(part):]
	}

	return strings.HasSuffix(value, parts[last])
}
