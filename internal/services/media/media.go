// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package media stores uploaded files on disk and resolves their public
// URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/slug"
	"github.com/google/uuid"
)

// MaxUploadSize is the upload cap in bytes (20 MiB).
const MaxUploadSize = 20 << 20

var (
	// ErrUnsupportedExtension is returned for file types outside the
	// allow list.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrTooLarge is returned when an upload exceeds MaxUploadSize.
	ErrTooLarge = errors.New("file exceeds the upload size limit")
)

var allowedExtensions = map[string]struct{}{
	"jpeg": {}, "jpg": {}, "png": {}, "gif": {}, "svg": {},
	"wav": {}, "mp4": {}, "mp3": {},
}

// Background palette for generated avatar placeholders.
var avatarColors = []string{"0652DD", "009432", "1B1464", "6F1E51", "3c40c6"}

const avatarEndpoint = "https://ui-avatars.com/api/"

// Service writes media files below a root directory. Stored paths are
// relative slash-separated paths; the public URL is baseURL + /storage/.
type Service struct {
	dir     string
	baseURL string
	client  *http.Client
}

// NewService creates a media service rooted at dir.
func NewService(dir, baseURL string) *Service {
	return &Service{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Store writes the file under media/<type>/. Avatars are named after the
// slug of the owner's display name, everything else gets a random name.
// Returns the stored relative path and its public URL.
func (s *Service) Store(mediaType models.MediaType, ownerName, ext string, r io.Reader) (string, string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", "", ErrUnsupportedExtension
	}

	var name string
	switch mediaType {
	case models.MediaTypeAvatar:
		name = slug.Make(ownerName)
	case models.MediaTypeImage, models.MediaTypeVideo, models.MediaTypeAudio, models.MediaTypeDocument:
		name = uuid.New().String()
	default:
		return "", "", fmt.Errorf("unknown media type %q", mediaType)
	}

	rel := path.Join("media", string(mediaType), name+"."+ext)
	if err := s.write(rel, r); err != nil {
		return "", "", err
	}

	return rel, s.URL(rel), nil
}

// URL resolves a stored relative path to its public URL.
func (s *Service) URL(rel string) string {
	return s.baseURL + "/storage/" + rel
}

// GenerateAvatar fetches a placeholder image for the given display name
// and stores it as the user's avatar. The fetch is bounded by the client
// timeout and the caller's context.
func (s *Service) GenerateAvatar(ctx context.Context, name string) (string, error) {
	slugged := slug.Make(name)
	color := avatarColors[rand.IntN(len(avatarColors))]

	endpoint := fmt.Sprintf("%s?name=%s&size=100&background=%s&color=fff",
		avatarEndpoint, url.QueryEscape(slugged), color)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar service returned status %d", resp.StatusCode)
	}

	rel := path.Join("media", "avatar", slugged+".png")
	if err := s.write(rel, resp.Body); err != nil {
		return "", err
	}

	return rel, nil
}

// write copies r to the file at the given relative path, creating parent
// directories as needed and enforcing the size cap.
func (s *Service) write(rel string, r io.Reader) error {
	abs := filepath.Join(s.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return err
	}

	f, err := os.Create(abs)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(abs)
		return err
	}
	if n > MaxUploadSize {
		_ = os.Remove(abs)
		return ErrTooLarge
	}

	return nil
}
