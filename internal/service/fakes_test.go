package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/notification-center/internal/channel"
	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/repository"
)

type fakeNotificationRepo struct {
	mu        sync.Mutex
	seq       int
	store     map[string]domain.Notification
	createErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{store: make(map[string]domain.Notification)}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	n.ID = fmt.Sprintf("n-%d", r.seq)
	n.CreatedAt = time.Now()
	r.store[n.ID] = *n
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &n, nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, filter repository.NotificationFilter) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.store {
		if n.UserID != userID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		if filter.Category != nil && n.Category != *filter.Category {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.store {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.store[id]
	if !ok || n.UserID != userID {
		return pgx.ErrNoRows
	}
	n.Read = true
	r.store[id] = n
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for id, n := range r.store {
		if n.UserID == userID && !n.Read {
			n.Read = true
			r.store[id] = n
			updated++
		}
	}
	return updated, nil
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.store[id]
	if !ok || n.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(r.store, id)
	return nil
}

type fakeDeliveryLogRepo struct {
	mu        sync.Mutex
	seq       int
	store     map[string]domain.DeliveryLog
	createErr error
}

func newFakeDeliveryLogRepo() *fakeDeliveryLogRepo {
	return &fakeDeliveryLogRepo{store: make(map[string]domain.DeliveryLog)}
}

func (r *fakeDeliveryLogRepo) Create(_ context.Context, entry *domain.DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	entry.ID = fmt.Sprintf("dl-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.store[entry.ID] = *entry
	return nil
}

func (r *fakeDeliveryLogRepo) UpdateOutcome(_ context.Context, id string, from domain.DeliveryStatus, outcome repository.DeliveryOutcome) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.store[id]
	if !ok || entry.Status != from {
		return false, nil
	}
	entry.Status = outcome.Status
	entry.ExternalMessageID = outcome.ExternalMessageID
	entry.ErrorMessage = outcome.ErrorMessage
	entry.SentAt = outcome.SentAt
	r.store[id] = entry
	return true, nil
}

func (r *fakeDeliveryLogRepo) IncrementRetry(_ context.Context, id, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.store[id]
	if !ok || entry.Status != domain.DeliveryFailed {
		return pgx.ErrNoRows
	}
	entry.RetryCount++
	entry.ErrorMessage = &errorMessage
	r.store[id] = entry
	return nil
}

func (r *fakeDeliveryLogRepo) ListRetryable(_ context.Context, maxRetries, limit int) ([]domain.DeliveryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DeliveryLog
	for _, entry := range r.store {
		if entry.Status == domain.DeliveryFailed && entry.RetryCount < maxRetries {
			out = append(out, entry)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeDeliveryLogRepo) ListByNotification(_ context.Context, notificationID string) ([]domain.DeliveryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.DeliveryLog
	for _, entry := range r.store {
		if entry.NotificationID == notificationID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeDeliveryLogRepo) byNotification(notificationID string) []domain.DeliveryLog {
	out, _ := r.ListByNotification(context.Background(), notificationID)
	return out
}

type fakePreferenceRepo struct {
	mu    sync.Mutex
	store map[string]domain.Preference
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{store: make(map[string]domain.Preference)}
}

func (r *fakePreferenceRepo) put(pref domain.Preference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pref.CreatedAt.IsZero() {
		pref.CreatedAt = time.Now()
	}
	r.store[pref.UserID] = pref
}

func (r *fakePreferenceRepo) GetByUser(_ context.Context, userID string) (*domain.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref, ok := r.store[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &pref, nil
}

func (r *fakePreferenceRepo) Create(_ context.Context, pref *domain.Preference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.store[pref.UserID]; exists {
		// mirrors ON CONFLICT DO NOTHING: timestamps stay zero
		return nil
	}
	pref.CreatedAt = time.Now()
	pref.UpdatedAt = pref.CreatedAt
	r.store[pref.UserID] = *pref
	return nil
}

func (r *fakePreferenceRepo) Update(_ context.Context, userID string, patch repository.PreferencePatch) (*domain.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref, ok := r.store[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if patch.EmailEnabled != nil {
		pref.EmailEnabled = *patch.EmailEnabled
	}
	if patch.DigestEnabled != nil {
		pref.DigestEnabled = *patch.DigestEnabled
	}
	if patch.DigestFrequency != nil {
		pref.DigestFrequency = *patch.DigestFrequency
	}
	if patch.QuietHoursEnabled != nil {
		pref.QuietHoursEnabled = *patch.QuietHoursEnabled
	}
	pref.UpdatedAt = time.Now()
	r.store[userID] = pref
	return &pref, nil
}

func (r *fakePreferenceRepo) UpdateTypeSetting(_ context.Context, userID string, t domain.NotificationType, ch domain.ChannelKey, enabled bool) (*domain.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pref, ok := r.store[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if pref.TypeSettings == nil {
		pref.TypeSettings = domain.TypeSettings{}
	}
	if pref.TypeSettings[t] == nil {
		pref.TypeSettings[t] = map[domain.ChannelKey]bool{}
	}
	pref.TypeSettings[t][ch] = enabled
	r.store[userID] = pref
	return &pref, nil
}

func (r *fakePreferenceRepo) ListDigestEnabled(_ context.Context, freq domain.DigestFrequency) ([]domain.Preference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Preference
	for _, pref := range r.store {
		if pref.DigestEnabled && pref.DigestFrequency == freq {
			out = append(out, pref)
		}
	}
	return out, nil
}

type fakePushTokenRepo struct {
	tokens map[string]string
}

func (r *fakePushTokenRepo) FirstForUser(_ context.Context, userID string) (string, error) {
	return r.tokens[userID], nil
}

type fakeUserRepo struct {
	users map[string]domain.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *fakeUserRepo) ListIDsByRole(_ context.Context, role domain.StaffRole) ([]string, error) {
	var ids []string
	for id, u := range r.users {
		if u.Role != nil && *u.Role == role && u.Status == domain.UserStatusActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// mockChannel records sends and delegates behavior to function fields.
type mockChannel struct {
	mu        sync.Mutex
	key       domain.ChannelKey
	available bool
	sendFn    func(ctx context.Context, payload channel.Payload) channel.Result
	sent      []channel.Payload
}

func newMockChannel(key domain.ChannelKey) *mockChannel {
	return &mockChannel{
		key:       key,
		available: true,
		sendFn: func(_ context.Context, _ channel.Payload) channel.Result {
			id := "msg-1"
			return channel.Result{Success: true, Channel: key, MessageID: &id, Timestamp: time.Now()}
		},
	}
}

func (m *mockChannel) Key() domain.ChannelKey { return m.key }

func (m *mockChannel) Send(ctx context.Context, payload channel.Payload) channel.Result {
	m.mu.Lock()
	m.sent = append(m.sent, payload)
	m.mu.Unlock()
	return m.sendFn(ctx, payload)
}

func (m *mockChannel) ValidateRecipient(string) bool { return true }

func (m *mockChannel) IsAvailable() bool { return m.available }

func (m *mockChannel) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
