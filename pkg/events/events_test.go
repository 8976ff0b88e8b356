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

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectPrefixDefaultsAndTrims(t *testing.T) {
	assert.Equal(t, "events", subjectPrefix(""))
	assert.Equal(t, "apm.events", subjectPrefix("apm.events"))
	assert.Equal(t, "apm.events", subjectPrefix("apm.events."))
}

func TestPublisherSubjects(t *testing.T) {
	p := NewJetStreamPublisher(nil, "")
	assert.Equal(t, "events.trace.recorded", p.subjectFor(suffixTraceRecorded))
	assert.Equal(t, "events.performance.threshold", p.subjectFor(suffixThresholdExceeded))
	assert.Equal(t, "events.anomaly.detected", p.subjectFor(suffixAnomalyDetected))

	custom := NewJetStreamPublisher(nil, "pulse.prod")
	assert.Equal(t, "pulse.prod.anomaly.detected", custom.subjectFor(suffixAnomalyDetected))
}
