package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/notification-center/internal/domain"
)

// PreferencePatch describes a partial preference update. Nil fields are
// left untouched.
type PreferencePatch struct {
	InAppEnabled *bool
	EmailEnabled *bool
	ChatEnabled  *bool
	PushEnabled  *bool

	EmailAddress *string
	ChatID       *string

	DigestEnabled   *bool
	DigestFrequency *domain.DigestFrequency
	DigestTime      *string

	QuietHoursEnabled *bool
	QuietHoursStart   *string
	QuietHoursEnd     *string
	Timezone          *string
}

// PreferenceRepository encapsulates preference persistence.
type PreferenceRepository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Preference, error)
	Create(ctx context.Context, pref *domain.Preference) error
	Update(ctx context.Context, userID string, patch PreferencePatch) (*domain.Preference, error)
	UpdateTypeSetting(ctx context.Context, userID string, t domain.NotificationType, ch domain.ChannelKey, enabled bool) (*domain.Preference, error)
	ListDigestEnabled(ctx context.Context, freq domain.DigestFrequency) ([]domain.Preference, error)
}

type preferenceRepository struct {
	pool *pgxpool.Pool
}

// NewPreferenceRepository instantiates repository.
func NewPreferenceRepository(pool *pgxpool.Pool) PreferenceRepository {
	return &preferenceRepository{pool: pool}
}

const preferenceColumns = `
        user_id, in_app_enabled, email_enabled, chat_enabled, push_enabled,
        email_address, chat_id,
        digest_enabled, digest_frequency, digest_time,
        quiet_hours_enabled, quiet_hours_start, quiet_hours_end, timezone,
        type_settings, created_at, updated_at`

func (r *preferenceRepository) GetByUser(ctx context.Context, userID string) (*domain.Preference, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_preferences WHERE user_id=$1`, preferenceColumns)
	return r.fetchSingle(ctx, query, userID)
}

func (r *preferenceRepository) Create(ctx context.Context, pref *domain.Preference) error {
	settings, err := json.Marshal(pref.TypeSettings)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO notification_preferences
            (user_id, in_app_enabled, email_enabled, chat_enabled, push_enabled,
             email_address, chat_id,
             digest_enabled, digest_frequency, digest_time,
             quiet_hours_enabled, quiet_hours_start, quiet_hours_end, timezone, type_settings)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (user_id) DO NOTHING
        RETURNING created_at, updated_at`
	err = r.pool.QueryRow(ctx, query,
		pref.UserID,
		pref.InAppEnabled,
		pref.EmailEnabled,
		pref.ChatEnabled,
		pref.PushEnabled,
		pref.EmailAddress,
		pref.ChatID,
		pref.DigestEnabled,
		pref.DigestFrequency,
		pref.DigestTime,
		pref.QuietHoursEnabled,
		pref.QuietHoursStart,
		pref.QuietHoursEnd,
		pref.Timezone,
		settings,
	).Scan(&pref.CreatedAt, &pref.UpdatedAt)
	if err == pgx.ErrNoRows {
		// concurrent lazy creation won; the caller re-reads
		return nil
	}
	return err
}

func (r *preferenceRepository) Update(ctx context.Context, userID string, patch PreferencePatch) (*domain.Preference, error) {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.InAppEnabled != nil {
		appendSet("in_app_enabled", *patch.InAppEnabled)
	}
	if patch.EmailEnabled != nil {
		appendSet("email_enabled", *patch.EmailEnabled)
	}
	if patch.ChatEnabled != nil {
		appendSet("chat_enabled", *patch.ChatEnabled)
	}
	if patch.PushEnabled != nil {
		appendSet("push_enabled", *patch.PushEnabled)
	}
	if patch.EmailAddress != nil {
		appendSet("email_address", *patch.EmailAddress)
	}
	if patch.ChatID != nil {
		appendSet("chat_id", *patch.ChatID)
	}
	if patch.DigestEnabled != nil {
		appendSet("digest_enabled", *patch.DigestEnabled)
	}
	if patch.DigestFrequency != nil {
		appendSet("digest_frequency", *patch.DigestFrequency)
	}
	if patch.DigestTime != nil {
		appendSet("digest_time", *patch.DigestTime)
	}
	if patch.QuietHoursEnabled != nil {
		appendSet("quiet_hours_enabled", *patch.QuietHoursEnabled)
	}
	if patch.QuietHoursStart != nil {
		appendSet("quiet_hours_start", *patch.QuietHoursStart)
	}
	if patch.QuietHoursEnd != nil {
		appendSet("quiet_hours_end", *patch.QuietHoursEnd)
	}
	if patch.Timezone != nil {
		appendSet("timezone", *patch.Timezone)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`
        UPDATE notification_preferences SET %s WHERE user_id=$%d
        RETURNING %s`, strings.Join(sets, ", "), len(args), preferenceColumns)

	return r.scanRow(r.pool.QueryRow(ctx, query, args...))
}

func (r *preferenceRepository) UpdateTypeSetting(ctx context.Context, userID string, t domain.NotificationType, ch domain.ChannelKey, enabled bool) (*domain.Preference, error) {
	// jsonb_set with a two-level path; the type object is created when absent
	const query = `
        UPDATE notification_preferences
        SET type_settings = jsonb_set(
                jsonb_set(
                    COALESCE(type_settings, '{}'::jsonb),
                    ARRAY[$2],
                    COALESCE(type_settings->$2, '{}'::jsonb),
                    TRUE),
                ARRAY[$2, $3], to_jsonb($4::boolean), TRUE),
            updated_at = NOW()
        WHERE user_id=$1
        RETURNING ` + preferenceColumns

	return r.scanRow(r.pool.QueryRow(ctx, query, userID, string(t), string(ch), enabled))
}

func (r *preferenceRepository) ListDigestEnabled(ctx context.Context, freq domain.DigestFrequency) ([]domain.Preference, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM notification_preferences
        WHERE digest_enabled=TRUE AND digest_frequency=$1`, preferenceColumns)

	rows, err := r.pool.Query(ctx, query, freq)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Preference
	for rows.Next() {
		pref, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *pref)
	}
	return result, rows.Err()
}

func (r *preferenceRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Preference, error) {
	return r.scanRow(r.pool.QueryRow(ctx, query, arg))
}

func (r *preferenceRepository) scanRow(row pgx.Row) (*domain.Preference, error) {
	var (
		pref     domain.Preference
		settings []byte
	)
	if err := row.Scan(
		&pref.UserID,
		&pref.InAppEnabled,
		&pref.EmailEnabled,
		&pref.ChatEnabled,
		&pref.PushEnabled,
		&pref.EmailAddress,
		&pref.ChatID,
		&pref.DigestEnabled,
		&pref.DigestFrequency,
		&pref.DigestTime,
		&pref.QuietHoursEnabled,
		&pref.QuietHoursStart,
		&pref.QuietHoursEnd,
		&pref.Timezone,
		&settings,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	); err != nil {
		return nil, err
	}
	pref.TypeSettings = domain.TypeSettings{}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &pref.TypeSettings); err != nil {
			return nil, fmt.Errorf("decode type settings: %w", err)
		}
	}
	return &pref, nil
}
