package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rooms is the persistent room directory.
type Rooms struct {
	db *gorm.DB
}

// NewRooms creates a new room directory repository.
func NewRooms(db *gorm.DB) *Rooms {
	return &Rooms{db: db}
}

// Create saves a new room. Names are unique.
func (r *Rooms) Create(ctx context.Context, name string, class AccessClass, createdBy string) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("room name is required")
	}

	if _, err := r.FindByName(ctx, name); err == nil {
		return nil, ErrRoomExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	room := &Room{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      class,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

// FindByName retrieves a room by its name.
func (r *Rooms) FindByName(ctx context.Context, name string) (*Room, error) {
	var room Room
	if err := r.db.WithContext(ctx).First(&room, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

// List returns every room ordered by name.
func (r *Rooms) List(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := r.db.WithContext(ctx).Order("name").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// Delete removes a room by id. Deleting an absent room is not an error.
func (r *Rooms) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&Room{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}
