// Package models defines the data structures shared by capture, submission
// and presentation.
package models

import (
	"mime"
	"path/filepath"
	"strings"
)

// Payload sources.
const (
	SourceRecording = "recording"
	SourceFile      = "file"
)

// DefaultMediaType is used when the kind of an audio blob is unknown.
const DefaultMediaType = "application/octet-stream"

// AudioPayload is a finalized audio blob ready for submission.
// It is built once and never mutated afterwards.
type AudioPayload struct {
	Data      []byte
	MediaType string // e.g. audio/webm
	Source    string // recording or file
}

// Size returns the payload length in bytes.
func (p AudioPayload) Size() int {
	return len(p.Data)
}

// MediaTypeFor guesses the media type of an audio file from its extension.
func MediaTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case "":
		return DefaultMediaType
	case ".webm":
		return "audio/webm"
	case ".ogg", ".opus":
		return "audio/ogg"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return DefaultMediaType
}
