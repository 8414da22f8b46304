// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// RoomType controls who may join a room.
type RoomType string

const (
	RoomTypePublic    RoomType = "public"
	RoomTypePrivate   RoomType = "private"
	RoomTypeProtected RoomType = "protected"
)

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypePublic, RoomTypePrivate, RoomTypeProtected:
		return true
	}
	return false
}

// RoomStatus marks a room as usable or tombstoned.
type RoomStatus string

const (
	RoomStatusActive   RoomStatus = "active"
	RoomStatusInactive RoomStatus = "inactive"
)

// Valid reports whether s is a known room status.
func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusActive, RoomStatusInactive:
		return true
	}
	return false
}

// Room is a chat room owned by a single user. Deletion is a two-step
// tombstone: the row is renamed to free the unique name and slug, then
// soft-deleted.
type Room struct { //nolint:govet // fieldalignment: readability over optimization
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user_id"`
	Name        string     `db:"name" json:"name"`
	Slug        string     `db:"slug" json:"slug"`
	Description string     `db:"description" json:"description"`
	Type        RoomType   `db:"type" json:"type"`
	Password    string     `db:"password" json:"-"`
	Logo        string     `db:"logo" json:"logo"`
	Cover       string     `db:"cover" json:"cover"`
	Status      RoomStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"-"`
	UpdatedAt   time.Time  `db:"updated_at" json:"-"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
}
