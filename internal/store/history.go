package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// History is the append-only message log keyed by room name.
type History struct {
	db *gorm.DB
}

// NewHistory creates a new message history repository.
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// Insert appends a message.
func (h *History) Insert(ctx context.Context, msg *Message) error {
	if err := h.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// Find looks a message up by its generated id, falling back to the storage
// id for messages written before generated ids existed.
func (h *History) Find(ctx context.Context, id string) (*Message, error) {
	var msg Message
	err := h.db.WithContext(ctx).First(&msg, "message_id = ?", id).Error
	if err == nil {
		return &msg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}

	pk, perr := strconv.ParseUint(id, 10, 64)
	if perr != nil {
		return nil, ErrNotFound
	}
	if err := h.db.WithContext(ctx).First(&msg, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &msg, nil
}

// Delete removes a message by generated id. When that matches nothing or
// fails, it retries once against the storage id. Deleting an absent message
// is not an error.
func (h *History) Delete(ctx context.Context, id string) error {
	res := h.db.WithContext(ctx).Where("message_id = ?", id).Delete(&Message{})
	if res.Error == nil && res.RowsAffected > 0 {
		return nil
	}
	firstErr := res.Error

	pk, perr := strconv.ParseUint(id, 10, 64)
	if perr != nil {
		if firstErr != nil {
			return fmt.Errorf("failed to delete message: %w", firstErr)
		}
		return nil
	}

	if err := h.db.WithContext(ctx).Delete(&Message{}, pk).Error; err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest messages in room, oldest first.
func (h *History) Recent(ctx context.Context, room string, limit int) ([]Message, error) {
	var msgs []Message
	err := h.db.WithContext(ctx).
		Where("room = ?", room).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// DistinctRooms lists the distinct room names that start with prefix and
// contain needle.
func (h *History) DistinctRooms(ctx context.Context, prefix, needle string) ([]string, error) {
	var rooms []string
	err := h.db.WithContext(ctx).
		Model(&Message{}).
		Where("substr(room, 1, ?) = ?", len(prefix), prefix).
		Where("instr(room, ?) > 0", needle).
		Distinct().
		Order("room").
		Pluck("room", &rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}
