// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"codeberg.org/oliverandrich/chatroom-api/internal/auth"
	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
	"codeberg.org/oliverandrich/chatroom-api/internal/slug"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
)

const defaultRoomPageSize = 50

// RoomHandlers serves the room CRUD endpoints. All operations are scoped
// to rooms owned by the authenticated user.
type RoomHandlers struct {
	repo *repository.Repository
}

// NewRooms creates the room handlers.
func NewRooms(repo *repository.Repository) *RoomHandlers {
	return &RoomHandlers{repo: repo}
}

// RoomRequest is shared by create and update.
type RoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Password    string `json:"password"`
	Logo        string `json:"logo"`
	Cover       string `json:"cover"`
}

func (r RoomRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(5, 0)),
		validation.Field(&r.Type, validation.Required, validation.By(validRoomType)),
	)
}

func validRoomType(value any) error {
	s, _ := value.(string)
	if !models.RoomType(s).Valid() {
		return errors.New("must be one of public, private or protected")
	}
	return nil
}

// List handles GET /rooms with optional keyword, limit and page query
// parameters.
func (h *RoomHandlers) List(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)

	keyword := c.QueryParam("keyword")
	limit := queryInt(c, "limit", defaultRoomPageSize)
	page := queryInt(c, "page", 1)

	rooms, err := h.repo.ListRooms(ctx, user.ID, keyword, limit, (page-1)*limit)
	if err != nil {
		return serverError(c, err)
	}
	total, err := h.repo.CountRooms(ctx, user.ID, keyword)
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": rooms,
		"meta": map[string]any{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// Create handles POST /rooms.
func (h *RoomHandlers) Create(c echo.Context) error {
	var req RoomRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	ctx := c.Request().Context()
	user := auth.GetUser(ctx)

	if taken, err := h.repo.RoomNameExists(ctx, req.Name, 0); err != nil {
		return serverError(c, err)
	} else if taken {
		return fieldError(c, "name", "The name has already been taken")
	}

	room := &models.Room{
		UserID:      user.ID,
		Name:        req.Name,
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		Type:        models.RoomType(req.Type),
		Password:    req.Password,
		Logo:        req.Logo,
		Cover:       req.Cover,
	}
	err := h.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.CreateRoom(ctx, room)
	})
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"data":    room,
		"message": "Room created successfully",
	})
}

// Show handles GET /rooms/:id.
func (h *RoomHandlers) Show(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)

	room, err := h.findRoom(c, user.ID)
	if err != nil {
		return roomNotFound(c, err)
	}
	return data(c, http.StatusOK, room)
}

// Update handles PUT /rooms/:id.
func (h *RoomHandlers) Update(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)

	room, err := h.findRoom(c, user.ID)
	if err != nil {
		return roomNotFound(c, err)
	}

	var req RoomRequest
	if handled, err := bind(c, &req); handled {
		return err
	}

	if taken, err := h.repo.RoomNameExists(ctx, req.Name, room.ID); err != nil {
		return serverError(c, err)
	} else if taken {
		return fieldError(c, "name", "The name has already been taken")
	}

	room.Name = req.Name
	room.Slug = slug.Make(req.Name)
	room.Description = req.Description
	room.Type = models.RoomType(req.Type)
	room.Password = req.Password
	room.Logo = req.Logo
	room.Cover = req.Cover

	err = h.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.UpdateRoom(ctx, room)
	})
	if err != nil {
		return serverError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":    room,
		"message": "Room updated successfully",
	})
}

// Delete handles DELETE /rooms/:id. Rooms are tombstoned: renamed to
// free up the unique name, marked inactive and soft deleted.
func (h *RoomHandlers) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)

	room, err := h.findRoom(c, user.ID)
	if err != nil {
		return roomNotFound(c, err)
	}

	err = h.repo.InTx(ctx, func(r *repository.Repository) error {
		return r.TombstoneRoom(ctx, room)
	})
	if err != nil {
		return serverError(c, err)
	}

	return message(c, http.StatusOK, "Room has been deleted successfully")
}

// findRoom resolves the :id route parameter to an active room owned by
// ownerID. A malformed id behaves like a missing room.
func (h *RoomHandlers) findRoom(c echo.Context, ownerID int64) (*models.Room, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return h.repo.GetRoom(c.Request().Context(), ownerID, id)
}

func roomNotFound(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return message(c, http.StatusNotFound, "Room not found")
	}
	return serverError(c, err)
}

func queryInt(c echo.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
