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

package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/pulse/pkg/db"
	"github.com/carverauto/pulse/pkg/logger"
	"github.com/carverauto/pulse/pkg/models"
)

type fakeNotifier struct {
	name    string
	enabled bool
	err     error
	sent    []*models.Alert
}

func (f *fakeNotifier) Name() string    { return f.name }
func (f *fakeNotifier) IsEnabled() bool { return f.enabled }

func (f *fakeNotifier) Send(_ context.Context, alert *models.Alert) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, alert)

	return nil
}

func notificationsConfig() models.NotificationsConfig {
	return models.NotificationsConfig{
		Throttle: models.ThrottleConfig{
			Enabled:            true,
			WindowMinutes:      15,
			MaxAlertsPerWindow: 1,
		},
		SendTimeout: time.Second,
	}
}

func testAlert() *models.Alert {
	return &models.Alert{
		ID:          42,
		AlertType:   models.AlertTypeAnomaly,
		Severity:    models.SeverityWarning,
		Title:       "Anomaly detected in response_time",
		Fingerprint: "fp-1",
	}
}

func TestNotifySendsAndMarks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	notifier := &fakeNotifier{name: "webhook", enabled: true}

	manager := NewManager(notificationsConfig(), mockDB, []Notifier{notifier}, logger.NewTestLogger())
	alert := testAlert()

	mockDB.EXPECT().CountNotifiedAlertsSince(gomock.Any(), "fp-1", gomock.Any()).Return(0, nil)
	mockDB.EXPECT().MarkAlertNotified(gomock.Any(), int64(42), []string{"webhook"}, gomock.Any()).Return(nil)

	sent, err := manager.Notify(context.Background(), alert)
	require.NoError(t, err)

	assert.Equal(t, []string{"webhook"}, sent)
	assert.True(t, alert.Notified)
	require.NotNil(t, alert.NotifiedAt)
	require.Len(t, notifier.sent, 1)
}

func TestNotifyThrottledStaysPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	notifier := &fakeNotifier{name: "webhook", enabled: true}

	manager := NewManager(notificationsConfig(), mockDB, []Notifier{notifier}, logger.NewTestLogger())
	alert := testAlert()

	// One alert with this fingerprint already went out inside the window.
	mockDB.EXPECT().CountNotifiedAlertsSince(gomock.Any(), "fp-1", gomock.Any()).Return(1, nil)

	sent, err := manager.Notify(context.Background(), alert)
	require.ErrorIs(t, err, ErrThrottled)

	assert.Empty(t, sent)
	assert.False(t, alert.Notified)
	assert.Empty(t, notifier.sent, "no channel may be attempted while throttled")
}

func TestNotifyChannelFailureDoesNotBlockOthers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)

	failing := &fakeNotifier{name: "webhook", enabled: true, err: errors.New("connection refused")}
	working := &fakeNotifier{name: "telegram", enabled: true}
	disabled := &fakeNotifier{name: "disabled", enabled: false}

	manager := NewManager(notificationsConfig(), mockDB, []Notifier{failing, working, disabled}, logger.NewTestLogger())
	alert := testAlert()

	mockDB.EXPECT().CountNotifiedAlertsSince(gomock.Any(), "fp-1", gomock.Any()).Return(0, nil)
	mockDB.EXPECT().MarkAlertNotified(gomock.Any(), int64(42), []string{"telegram"}, gomock.Any()).Return(nil)

	sent, err := manager.Notify(context.Background(), alert)
	require.NoError(t, err)

	assert.Equal(t, []string{"telegram"}, sent)
	assert.Empty(t, disabled.sent)
}

func TestNotifyAllChannelsFail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	failing := &fakeNotifier{name: "webhook", enabled: true, err: errors.New("boom")}

	manager := NewManager(notificationsConfig(), mockDB, []Notifier{failing}, logger.NewTestLogger())

	mockDB.EXPECT().CountNotifiedAlertsSince(gomock.Any(), "fp-1", gomock.Any()).Return(0, nil)

	_, err := manager.Notify(context.Background(), testAlert())
	assert.ErrorIs(t, err, ErrNoChannels)
}

func TestNotifyPendingSweep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	notifier := &fakeNotifier{name: "webhook", enabled: true}

	manager := NewManager(notificationsConfig(), mockDB, []Notifier{notifier}, logger.NewTestLogger())

	first := testAlert()

	second := testAlert()
	second.ID = 43
	second.Fingerprint = "fp-2"

	mockDB.EXPECT().ListPendingAlerts(gomock.Any()).Return([]*models.Alert{first, second}, nil)

	mockDB.EXPECT().CountNotifiedAlertsSince(gomock.Any(), "fp-1", gomock.Any()).Return(1, nil)
	mockDB.EXPECT().CountNotifiedAlertsSince(gomock.Any(), "fp-2", gomock.Any()).Return(0, nil)
	mockDB.EXPECT().MarkAlertNotified(gomock.Any(), int64(43), []string{"webhook"}, gomock.Any()).Return(nil)

	err := manager.NotifyPending(context.Background())
	require.NoError(t, err)

	// The throttled alert stays pending; only the second goes out.
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(43), notifier.sent[0].ID)
}

func TestResolveIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	manager := NewManager(notificationsConfig(), mockDB, nil, logger.NewTestLogger())

	// The store treats resolving a resolved alert as a no-op success, so
	// repeated calls succeed.
	mockDB.EXPECT().MarkAlertResolved(gomock.Any(), int64(42), gomock.Any()).Return(nil).Times(2)

	require.NoError(t, manager.Resolve(context.Background(), 42))
	require.NoError(t, manager.Resolve(context.Background(), 42))
}

func TestNotifyDirectSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	notifier := &fakeNotifier{name: "webhook", enabled: true}

	manager := NewManager(notificationsConfig(), mockDB, []Notifier{notifier}, logger.NewTestLogger())

	sent, err := manager.NotifyDirect(context.Background(), &models.Alert{
		AlertType: "lifecycle",
		Severity:  models.SeverityInfo,
		Title:     "startup",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"webhook"}, sent)
}
