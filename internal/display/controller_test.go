package display

import (
	"testing"
	"time"

	"github.com/jfmyers9/nowplaying/internal/status"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2024, 3, 1, 20, 15, 0, 0, time.UTC)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func newDoc(title, image string) *status.Document {
	return &status.Document{
		AlbumName:   "In Rainbows",
		Artist:      "Radiohead",
		Image:       image,
		LastUpdated: "2024-03-01 20:15:00",
		PlayerState: status.StatePlaying,
		Playlist:    status.StringPtr("Evening"),
		ReleaseDate: "10 October 2007",
		Title:       title,
	}
}

func newTestController(t *testing.T) (*Controller, *MockAnimator) {
	t.Helper()
	ctrl := gomock.NewController(t)
	anim := NewMockAnimator(ctrl)
	return NewController(anim, zerolog.Nop()), anim
}

func TestApply_FieldTransition(t *testing.T) {
	c, anim := newTestController(t)
	anim.EXPECT().Stop().Times(1)

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)

	tests := []struct {
		at        time.Duration
		wantValue string
		wantAlpha float64
	}{
		{0, "", 1},
		{ms(250), "", 0.5},
		{ms(500), "Reckoner", 0},
		{ms(750), "Reckoner", 0.5},
		{ms(1000), "Reckoner", 1},
		{ms(3000), "Reckoner", 1},
	}

	for _, tt := range tests {
		c.Tick(t0.Add(tt.at))
		got := c.Field(FieldTitle)
		if got.Value != tt.wantValue || got.Alpha != tt.wantAlpha {
			t.Errorf("at %v: Field(title) = %+v, want {%q %v}", tt.at, got, tt.wantValue, tt.wantAlpha)
		}
	}
}

func TestApply_UnchangedFieldsStay(t *testing.T) {
	c, anim := newTestController(t)
	anim.EXPECT().Stop().Times(1)

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)
	c.Tick(t0.Add(time.Second))

	next := newDoc("Nude", "a.jpg")
	at := t0.Add(5 * time.Second)
	c.Apply(next, at)
	c.Tick(at.Add(ms(250)))

	if got := c.Field(FieldArtist); got.Value != "Radiohead" || got.Alpha != 1 {
		t.Errorf("Field(artist) = %+v, want unchanged", got)
	}
	if got := c.Field(FieldTitle); got.Value != "Reckoner" || got.Alpha != 0.5 {
		t.Errorf("Field(title) = %+v, want fading out Reckoner", got)
	}

	c.Tick(at.Add(time.Second))
	if got := c.Field(FieldTitle); got.Value != "Nude" || got.Alpha != 1 {
		t.Errorf("Field(title) = %+v, want Nude", got)
	}
}

func TestApply_PlayerStateLabel(t *testing.T) {
	tests := []struct {
		state string
		want  string
	}{
		{status.StatePlaying, LabelPlaying},
		{status.StatePaused, LabelNotPlaying},
		{status.StateIdle, LabelNotPlaying},
		{"BUFFERING", LabelNotPlaying},
		{"", LabelNotPlaying},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			c, anim := newTestController(t)
			anim.EXPECT().Restart().AnyTimes()

			doc := newDoc("Reckoner", "")
			doc.PlayerState = tt.state
			c.Apply(doc, t0)
			c.Tick(t0.Add(time.Second))

			if got := c.Field(FieldPlayerState).Value; got != tt.want {
				t.Errorf("player_state = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApply_PlaylistNull(t *testing.T) {
	c, anim := newTestController(t)
	anim.EXPECT().Restart().AnyTimes()

	doc := newDoc("Reckoner", "")
	doc.Playlist = nil
	c.Apply(doc, t0)
	c.Tick(t0.Add(time.Second))

	if got := c.Field(FieldPlaylist).Value; got != "" {
		t.Errorf("playlist = %q, want empty", got)
	}
}

func TestApply_Reveal(t *testing.T) {
	c, anim := newTestController(t)
	anim.EXPECT().Stop().Times(1)

	if c.Revealing(t0) {
		t.Error("should not reveal before any document")
	}

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)
	if !c.Revealing(t0.Add(ms(4799))) {
		t.Error("expected reveal just before 4.8s")
	}
	if c.Revealing(t0.Add(ms(4800))) {
		t.Error("expected reveal to end at 4.8s")
	}
	if p := c.RevealProgress(t0.Add(ms(2400))); p != 0.5 {
		t.Errorf("RevealProgress() = %v, want 0.5", p)
	}

	// The same document again still triggers the reveal
	at := t0.Add(5 * time.Second)
	c.Apply(newDoc("Reckoner", "a.jpg"), at)
	if !c.Revealing(at.Add(time.Second)) {
		t.Error("expected reveal for an unchanged document")
	}
}

func TestApply_NewArtworkStopsAnimator(t *testing.T) {
	c, anim := newTestController(t)

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)
	c.Tick(t0.Add(ms(250)))

	if got := c.Artwork(); got.Image != "" || got.Alpha != 0.5 {
		t.Errorf("Artwork() = %+v, want fading out with no image", got)
	}

	// Stop is deferred until the swap
	anim.EXPECT().Stop().Times(1)
	c.Tick(t0.Add(ms(500)))

	if got := c.Artwork(); got.Image != "a.jpg" || got.Alpha != 0 {
		t.Errorf("Artwork() = %+v, want a.jpg at alpha 0", got)
	}

	c.Tick(t0.Add(ms(1000)))
	if got := c.Artwork(); got.Alpha != 1 {
		t.Errorf("Artwork().Alpha = %v, want 1", got.Alpha)
	}
}

func TestApply_SameArtworkDoesNothing(t *testing.T) {
	c, anim := newTestController(t)
	anim.EXPECT().Stop().Times(1)

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)
	c.Tick(t0.Add(time.Second))

	at := t0.Add(5 * time.Second)
	c.Apply(newDoc("Nude", "a.jpg"), at)
	c.Tick(at.Add(ms(250)))

	if got := c.Artwork(); got.Image != "a.jpg" || got.Alpha != 1 {
		t.Errorf("Artwork() = %+v, want untouched", got)
	}
	c.Tick(at.Add(time.Second))
}

func TestApply_MissingArtworkRestartsAnimator(t *testing.T) {
	c, anim := newTestController(t)

	gomock.InOrder(
		anim.EXPECT().Stop(),
		anim.EXPECT().Restart(),
	)

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)
	c.Tick(t0.Add(time.Second))

	at := t0.Add(5 * time.Second)
	c.Apply(newDoc("Reckoner", ""), at)
	c.Tick(at.Add(time.Second))

	got := c.Artwork()
	if got.Alpha != 0 {
		t.Errorf("Artwork().Alpha = %v, want 0", got.Alpha)
	}
	// The old image stays set, just hidden
	if got.Image != "a.jpg" {
		t.Errorf("Artwork().Image = %q, want a.jpg", got.Image)
	}
}

func TestApply_EmptyArtworkEveryPoll(t *testing.T) {
	c, anim := newTestController(t)
	anim.EXPECT().Restart().Times(3)

	for i := 0; i < 3; i++ {
		c.Apply(newDoc("Reckoner", ""), t0.Add(time.Duration(i)*5*time.Second))
	}
}

func TestApply_ArtworkReturns(t *testing.T) {
	c, anim := newTestController(t)

	gomock.InOrder(
		anim.EXPECT().Stop(),
		anim.EXPECT().Restart(),
		anim.EXPECT().Stop(),
	)

	c.Apply(newDoc("Reckoner", "a.jpg"), t0)
	c.Tick(t0.Add(time.Second))
	c.Apply(newDoc("Reckoner", ""), t0.Add(5*time.Second))
	c.Tick(t0.Add(6 * time.Second))

	// Same image as before the gap is still treated as new
	at := t0.Add(10 * time.Second)
	c.Apply(newDoc("Reckoner", "a.jpg"), at)
	c.Tick(at.Add(time.Second))

	if got := c.Artwork(); got.Image != "a.jpg" || got.Alpha != 1 {
		t.Errorf("Artwork() = %+v, want a.jpg visible", got)
	}
}

func TestField_Unknown(t *testing.T) {
	c, _ := newTestController(t)
	if got := c.Field("nope"); got != (FieldState{}) {
		t.Errorf("Field(nope) = %+v, want zero", got)
	}
}

func TestTween(t *testing.T) {
	tw := fadeTo(0.2, 1, t0)

	tests := []struct {
		at   time.Duration
		want float64
	}{
		{-ms(100), 0.2},
		{0, 0.2},
		{ms(500), 1},
		{ms(900), 1},
	}
	for _, tt := range tests {
		if got := tw.at(t0.Add(tt.at)); got != tt.want {
			t.Errorf("at(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}
