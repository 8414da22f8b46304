// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// MediaType selects the storage folder for an uploaded file.
type MediaType string

const (
	MediaTypeAvatar   MediaType = "avatar"
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeDocument MediaType = "document"
)

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeAvatar, MediaTypeImage, MediaTypeVideo, MediaTypeAudio, MediaTypeDocument:
		return true
	}
	return false
}
