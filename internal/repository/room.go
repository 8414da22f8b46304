// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/models"
)

// CreateRoom inserts a new room and fills in its ID and timestamps.
func (r *Repository) CreateRoom(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.Status == "" {
		room.Status = models.RoomStatusActive
	}

	res, err := r.q.ExecContext(ctx,
		`INSERT INTO rooms (user_id, name, slug, description, type, password, logo, cover, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.UserID, room.Name, room.Slug, room.Description, room.Type,
		room.Password, room.Logo, room.Cover, room.Status, room.CreatedAt, room.UpdatedAt)
	if err != nil {
		return err
	}

	room.ID, err = res.LastInsertId()
	return err
}

// GetRoom retrieves an active room owned by the given user.
func (r *Repository) GetRoom(ctx context.Context, ownerID, id int64) (*models.Room, error) {
	var room models.Room
	err := r.q.GetContext(ctx, &room,
		`SELECT * FROM rooms
		 WHERE id = ? AND user_id = ? AND status = ? AND deleted_at IS NULL`,
		id, ownerID, models.RoomStatusActive)
	if err != nil {
		return nil, wrapError(err)
	}
	return &room, nil
}

// ListRooms returns a page of the owner's active rooms, newest first,
// optionally filtered by a name keyword.
func (r *Repository) ListRooms(ctx context.Context, ownerID int64, keyword string, limit, offset int) ([]models.Room, error) {
	query := `SELECT * FROM rooms
		 WHERE user_id = ? AND status = ? AND deleted_at IS NULL`
	args := []any{ownerID, models.RoomStatusActive}

	if keyword != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+keyword+"%")
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rooms := []models.Room{}
	if err := r.q.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CountRooms returns the total number of the owner's active rooms
// matching the keyword filter.
func (r *Repository) CountRooms(ctx context.Context, ownerID int64, keyword string) (int64, error) {
	query := `SELECT COUNT(*) FROM rooms
		 WHERE user_id = ? AND status = ? AND deleted_at IS NULL`
	args := []any{ownerID, models.RoomStatusActive}

	if keyword != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+keyword+"%")
	}

	var count int64
	err := r.q.GetContext(ctx, &count, query, args...)
	return count, err
}

// RoomNameExists checks if a room name is already taken by a row other
// than excludeID. Tombstoned rooms are renamed on delete, so their
// original names do not count.
func (r *Repository) RoomNameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int64
	err := r.q.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM rooms WHERE name = ? AND id != ?`, name, excludeID)
	return count > 0, err
}

// UpdateRoom overwrites the mutable fields of a room.
func (r *Repository) UpdateRoom(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET name = ?, slug = ?, description = ?, type = ?, password = ?, logo = ?, cover = ?, updated_at = ?
		 WHERE id = ?`,
		room.Name, room.Slug, room.Description, room.Type, room.Password,
		room.Logo, room.Cover, room.UpdatedAt, room.ID)
	return err
}

// TombstoneRoom deletes a room in two logical steps folded into one
// statement: the name and slug are renamed with a timestamp suffix to
// free the unique columns, the status flips to inactive and the row is
// soft-deleted.
func (r *Repository) TombstoneRoom(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	name := fmt.Sprintf("deleted-%s-%d", room.Name, now.Unix())
	slug := fmt.Sprintf("deleted-%s-%d", room.Slug, now.Unix())

	_, err := r.q.ExecContext(ctx,
		`UPDATE rooms SET name = ?, slug = ?, status = ?, deleted_at = ?, updated_at = ? WHERE id = ?`,
		name, slug, models.RoomStatusInactive, now, now, room.ID)
	if err != nil {
		return err
	}

	room.Name = name
	room.Slug = slug
	room.Status = models.RoomStatusInactive
	room.DeletedAt = &now
	return nil
}
