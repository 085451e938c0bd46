// Package status defines the JSON document the publisher writes and the
// display clients poll, together with the client and poller that fetch it.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimeLayout is the format of Document.LastUpdated
const TimeLayout = "2006-01-02 15:04:05"

// Player states as published. Display clients only distinguish PLAYING
// from everything else.
const (
	StatePlaying = "PLAYING"
	StatePaused  = "PAUSED"
	StateIdle    = "IDLE"
)

// Document is the published now-playing record. Fields are declared in key
// order so the encoded document has sorted keys.
type Document struct {
	AlbumName   string  `json:"album_name"`
	Artist      string  `json:"artist"`
	Image       string  `json:"image"`
	IP          string  `json:"ip"`
	LastUpdated string  `json:"last_updated"`
	PlayerState string  `json:"player_state"`
	Playlist    *string `json:"playlist"`
	ReleaseDate string  `json:"release_date"`
	Title       string  `json:"title"`
}

// PlaylistName returns the playlist, or "" when there is none
func (d *Document) PlaylistName() string {
	if d.Playlist == nil {
		return ""
	}
	return *d.Playlist
}

// Playing reports whether the player was playing when the document was
// written
func (d *Document) Playing() bool {
	return d.PlayerState == StatePlaying
}

// Updated parses LastUpdated in the local time zone
func (d *Document) Updated() (time.Time, error) {
	return time.ParseInLocation(TimeLayout, d.LastUpdated, time.Local)
}

// SameContent reports whether two documents differ only in LastUpdated
// and IP
func (d *Document) SameContent(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if (d.Playlist == nil) != (other.Playlist == nil) || d.PlaylistName() != other.PlaylistName() {
		return false
	}
	return d.AlbumName == other.AlbumName &&
		d.Artist == other.Artist &&
		d.Image == other.Image &&
		d.PlayerState == other.PlayerState &&
		d.ReleaseDate == other.ReleaseDate &&
		d.Title == other.Title
}

// StringPtr returns a pointer to s, for building documents with a playlist
func StringPtr(s string) *string {
	return &s
}

// Encode marshals doc with four-space indentation and without HTML
// escaping
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Write atomically replaces the document at path
func Write(path string, doc *Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temp file first, then rename so pollers never read a partial
	// document
	tmp, err := os.CreateTemp(dir, ".data-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	// CreateTemp uses 0600; the document is served to other users
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod document: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename document: %w", err)
	}
	return nil
}

// Read loads a document from path
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return Decode(data)
}

// Decode parses a document
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &doc, nil
}
