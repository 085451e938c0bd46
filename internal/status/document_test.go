package status

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testDocument() *Document {
	return &Document{
		AlbumName:   "In Rainbows",
		Artist:      "Radiohead",
		Image:       "abc123.jpg",
		IP:          "192.168.1.20",
		LastUpdated: "2024-03-01 20:15:00",
		PlayerState: StatePlaying,
		Playlist:    StringPtr("Rock & Roll"),
		ReleaseDate: "10 October 2007",
		Title:       "Reckoner",
	}
}

func TestEncode_SortedKeysAndIndent(t *testing.T) {
	data, err := Encode(testDocument())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got := string(data)

	keys := []string{
		`"album_name"`, `"artist"`, `"image"`, `"ip"`, `"last_updated"`,
		`"player_state"`, `"playlist"`, `"release_date"`, `"title"`,
	}
	prev := -1
	for _, k := range keys {
		idx := strings.Index(got, k)
		if idx < 0 {
			t.Fatalf("key %s missing from %s", k, got)
		}
		if idx < prev {
			t.Errorf("key %s out of order", k)
		}
		prev = idx
	}

	if !strings.Contains(got, "\n    \"album_name\": \"In Rainbows\"") {
		t.Errorf("expected four-space indentation, got:\n%s", got)
	}
	if !strings.Contains(got, "Rock & Roll") {
		t.Errorf("expected unescaped ampersand, got:\n%s", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("expected no trailing newline")
	}
}

func TestEncode_NullPlaylist(t *testing.T) {
	doc := testDocument()
	doc.Playlist = nil

	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), `"playlist": null`) {
		t.Errorf("expected null playlist, got:\n%s", data)
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "static", "data.json")

	if err := Write(path, testDocument()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !got.SameContent(testDocument()) || got.LastUpdated != "2024-03-01 20:15:00" {
		t.Errorf("Read() = %+v", got)
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only data.json, found %d entries", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0644 {
		t.Errorf("permissions = %o, want 644", perm)
	}
}

func TestWrite_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	first := testDocument()
	if err := Write(path, first); err != nil {
		t.Fatal(err)
	}
	second := testDocument()
	second.Title = "Nude"
	if err := Write(path, second); err != nil {
		t.Fatal(err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Nude" {
		t.Errorf("Title = %q, want Nude", got.Title)
	}
}

func TestSameContent(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *Document)
		want   bool
	}{
		{"identical", func(d *Document) {}, true},
		{"timestamp only", func(d *Document) { d.LastUpdated = "2024-03-01 20:16:00" }, true},
		{"ip only", func(d *Document) { d.IP = "10.0.0.2" }, true},
		{"title", func(d *Document) { d.Title = "Nude" }, false},
		{"state", func(d *Document) { d.PlayerState = StatePaused }, false},
		{"playlist removed", func(d *Document) { d.Playlist = nil }, false},
		{"playlist changed", func(d *Document) { d.Playlist = StringPtr("Jazz") }, false},
		{"image", func(d *Document) { d.Image = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := testDocument()
			tt.modify(other)
			if got := testDocument().SameContent(other); got != tt.want {
				t.Errorf("SameContent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDocument_Updated(t *testing.T) {
	doc := testDocument()
	ts, err := doc.Updated()
	if err != nil {
		t.Fatalf("Updated() error = %v", err)
	}
	if ts.Format(TimeLayout) != doc.LastUpdated {
		t.Errorf("Updated() = %v", ts)
	}

	doc.LastUpdated = "yesterday"
	if _, err := doc.Updated(); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}
