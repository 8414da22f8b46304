// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/chatroom-api/internal/auth"
	"codeberg.org/oliverandrich/chatroom-api/internal/handlers"
	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
	"codeberg.org/oliverandrich/chatroom-api/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authedContext builds an echo context whose request carries user, the
// way the token middleware would after a successful authentication.
func authedContext(e *echo.Echo, user *models.User, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func newRoomHandlers(t *testing.T) (*handlers.RoomHandlers, *repository.Repository, *models.User) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	user := testutil.NewActiveUser(t, repo, "jane")
	return handlers.NewRooms(repo), repo, user
}

func TestCreateRoom(t *testing.T) {
	h, _, user := newRoomHandlers(t)

	e := echo.New()
	body := `{"name":"General Chat","description":"Talk about anything","type":"public"}`
	c, rec := authedContext(e, user, http.MethodPost, "/rooms", strings.NewReader(body))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	payload := decodeBody(t, rec.Body.String())
	assert.Equal(t, "Room created successfully", payload["message"])

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "General Chat", data["name"])
	assert.Equal(t, "general-chat", data["slug"])
	assert.Equal(t, "active", data["status"])
	assert.NotContains(t, data, "password")
}

func TestCreateRoomValidation(t *testing.T) {
	h, _, user := newRoomHandlers(t)
	e := echo.New()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"short name", `{"name":"abc","type":"public"}`, "name"},
		{"missing type", `{"name":"General Chat"}`, "type"},
		{"unknown type", `{"name":"General Chat","type":"secret"}`, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := authedContext(e, user, http.MethodPost, "/rooms", strings.NewReader(tt.body))
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			payload := decodeBody(t, rec.Body.String())
			errs, ok := payload["errors"].(map[string]any)
			require.True(t, ok)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestCreateRoomDuplicateName(t *testing.T) {
	h, repo, user := newRoomHandlers(t)
	testutil.NewTestRoom(t, repo, user.ID, "General Chat", "general-chat")

	e := echo.New()
	body := `{"name":"General Chat","type":"public"}`
	c, rec := authedContext(e, user, http.MethodPost, "/rooms", strings.NewReader(body))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"message":"Validation Error","errors":{"name":["The name has already been taken"]}}`,
		rec.Body.String())
}

func TestListRooms(t *testing.T) {
	h, repo, user := newRoomHandlers(t)
	testutil.NewTestRoom(t, repo, user.ID, "General Chat", "general-chat")
	testutil.NewTestRoom(t, repo, user.ID, "Golang Talk", "golang-talk")

	e := echo.New()
	c, rec := authedContext(e, user, http.MethodGet, "/rooms?keyword=Golang&limit=10&page=1", nil)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec.Body.String())
	data, ok := payload["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)

	meta, ok := payload["meta"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, meta["total"])
	assert.EqualValues(t, 1, meta["page"])
	assert.EqualValues(t, 10, meta["limit"])
}

func TestListRoomsDefaults(t *testing.T) {
	h, _, user := newRoomHandlers(t)

	e := echo.New()
	c, rec := authedContext(e, user, http.MethodGet, "/rooms", nil)

	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	meta := decodeBody(t, rec.Body.String())["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["page"])
	assert.EqualValues(t, 50, meta["limit"])
}

func TestShowRoom(t *testing.T) {
	h, repo, user := newRoomHandlers(t)
	room := testutil.NewTestRoom(t, repo, user.ID, "General Chat", "general-chat")

	e := echo.New()
	c, rec := authedContext(e, user, http.MethodGet, "/rooms/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Show(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec.Body.String())["data"].(map[string]any)
	assert.EqualValues(t, room.ID, data["id"])
}

func TestShowRoomNotFound(t *testing.T) {
	h, _, user := newRoomHandlers(t)

	e := echo.New()
	for _, id := range []string{"99", "not-a-number"} {
		c, rec := authedContext(e, user, http.MethodGet, "/rooms/"+id, nil)
		c.SetParamNames("id")
		c.SetParamValues(id)

		require.NoError(t, h.Show(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"Room not found"}`, rec.Body.String())
	}
}

func TestShowRoomOwnedByOtherUser(t *testing.T) {
	h, repo, _ := newRoomHandlers(t)
	other := testutil.NewActiveUser(t, repo, "john")
	room := testutil.NewTestRoom(t, repo, other.ID, "John's Room", "johns-room")

	intruder := testutil.NewActiveUser(t, repo, "eve")
	e := echo.New()
	c, rec := authedContext(e, intruder, http.MethodGet, "/rooms/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Show(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_ = room
}

func TestUpdateRoom(t *testing.T) {
	h, repo, user := newRoomHandlers(t)
	room := testutil.NewTestRoom(t, repo, user.ID, "General Chat", "general-chat")

	e := echo.New()
	body := `{"name":"Renamed Room","description":"New description","type":"private"}`
	c, rec := authedContext(e, user, http.MethodPut, "/rooms/1", strings.NewReader(body))
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec.Body.String())
	assert.Equal(t, "Room updated successfully", payload["message"])

	got, err := repo.GetRoom(context.Background(), user.ID, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Room", got.Name)
	assert.Equal(t, "renamed-room", got.Slug)
	assert.Equal(t, models.RoomTypePrivate, got.Type)
}

func TestDeleteRoom(t *testing.T) {
	h, repo, user := newRoomHandlers(t)
	room := testutil.NewTestRoom(t, repo, user.ID, "General Chat", "general-chat")

	e := echo.New()
	c, rec := authedContext(e, user, http.MethodDelete, "/rooms/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Room has been deleted successfully"}`, rec.Body.String())

	_, err := repo.GetRoom(context.Background(), user.ID, room.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
