package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Profiles reads account profiles. Concurrent lookups of the same account
// share one query.
type Profiles struct {
	db      *gorm.DB
	sfGroup singleflight.Group
}

// NewProfiles creates a new profile repository.
func NewProfiles(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

// Avatar returns the stored avatar for email. An unknown account yields
// ErrNotFound.
func (p *Profiles) Avatar(ctx context.Context, email string) (string, error) {
	v, err, _ := p.sfGroup.Do(email, func() (any, error) {
		var profile Profile
		if err := p.db.WithContext(ctx).First(&profile, "email = ?", email).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", ErrNotFound
			}
			return "", fmt.Errorf("failed to find profile: %w", err)
		}
		return profile.Avatar, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Save inserts or replaces a profile.
func (p *Profiles) Save(ctx context.Context, profile *Profile) error {
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(profile).Error
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
