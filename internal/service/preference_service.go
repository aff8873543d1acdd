package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/notification-center/internal/domain"
	"github.com/spec-kit/notification-center/internal/repository"
)

// PreferenceService owns preference lifecycle: lazy creation with system
// defaults, partial updates and per-type overrides.
type PreferenceService struct {
	prefs           repository.PreferenceRepository
	users           repository.UserRepository
	defaultTimezone string
	logger          *zap.Logger
}

// PreferenceDependencies bundles collaborators for the preference service.
type PreferenceDependencies struct {
	PreferenceRepo  repository.PreferenceRepository
	UserRepo        repository.UserRepository
	DefaultTimezone string
	Logger          *zap.Logger
}

// NewPreferenceService constructs the service.
func NewPreferenceService(deps PreferenceDependencies) *PreferenceService {
	tz := deps.DefaultTimezone
	if tz == "" {
		tz = "UTC"
	}
	return &PreferenceService{
		prefs:           deps.PreferenceRepo,
		users:           deps.UserRepo,
		defaultTimezone: tz,
		logger:          deps.Logger,
	}
}

// GetOrCreate loads the user's preferences, creating them with system
// defaults on first touch. The default email address is taken from the
// directory entry when one exists.
func (s *PreferenceService) GetOrCreate(ctx context.Context, userID string) (*domain.Preference, error) {
	pref, err := s.prefs.GetByUser(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	email := ""
	if user, err := s.users.GetByID(ctx, userID); err == nil {
		email = user.Email
	}

	pref = domain.DefaultPreference(userID, email, s.defaultTimezone)
	if err := s.prefs.Create(ctx, pref); err != nil {
		return nil, err
	}
	if pref.CreatedAt.IsZero() {
		// lost a lazy-creation race; the stored row wins
		return s.prefs.GetByUser(ctx, userID)
	}
	s.logger.Debug("preferences created with defaults", zap.String("user_id", userID))
	return pref, nil
}

// Update applies a partial update, lazily creating the row first.
func (s *PreferenceService) Update(ctx context.Context, userID string, patch repository.PreferencePatch) (*domain.Preference, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	return s.prefs.Update(ctx, userID, patch)
}

// UpdateTypeSetting sets one event-type/channel override.
func (s *PreferenceService) UpdateTypeSetting(ctx context.Context, userID string, t domain.NotificationType, ch domain.ChannelKey, enabled bool) (*domain.Preference, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	return s.prefs.UpdateTypeSetting(ctx, userID, t, ch, enabled)
}
