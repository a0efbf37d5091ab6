package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-calsync/core"
	"github.com/uptrace/bun"
)

type identityRecord struct {
	bun.BaseModel `bun:"table:cal_identity_records,alias:cir"`

	ID                      string     `bun:"id,pk"`
	ExternalUserID          int64      `bun:"external_user_id,notnull"`
	Email                   string     `bun:"email"`
	AccessToken             *string    `bun:"access_token"`
	RefreshToken            *string    `bun:"refresh_token"`
	AvailabilityLastUpdated *time.Time `bun:"availability_last_updated,nullzero"`
	CreatedAt               time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt               time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *identityRecord) toDomain() core.IdentityRecord {
	if r == nil {
		return core.IdentityRecord{}
	}
	out := core.IdentityRecord{
		LocalID:        r.ID,
		ExternalUserID: r.ExternalUserID,
		Email:          strings.TrimSpace(r.Email),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.AccessToken != nil {
		out.AccessToken = *r.AccessToken
	}
	if r.RefreshToken != nil {
		out.RefreshToken = *r.RefreshToken
	}
	if r.AvailabilityLastUpdated != nil {
		value := r.AvailabilityLastUpdated.UTC()
		out.AvailabilityLastUpdated = &value
	}
	return out
}

type reminderDispatchRecord struct {
	bun.BaseModel `bun:"table:cal_reminder_dispatches,alias:crd"`

	ID              string    `bun:"id,pk"`
	ExternalUserID  int64     `bun:"external_user_id,notnull"`
	Email           string    `bun:"email"`
	DaysSinceUpdate int       `bun:"days_since_update,notnull"`
	Status          string    `bun:"status,notnull"`
	MessageID       string    `bun:"message_id"`
	Error           string    `bun:"error"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (r *reminderDispatchRecord) toDomain() core.ReminderDispatch {
	if r == nil {
		return core.ReminderDispatch{}
	}
	return core.ReminderDispatch{
		ID:              r.ID,
		ExternalUserID:  r.ExternalUserID,
		Email:           r.Email,
		DaysSinceUpdate: r.DaysSinceUpdate,
		Status:          r.Status,
		MessageID:       r.MessageID,
		Error:           r.Error,
		CreatedAt:       r.CreatedAt,
	}
}
