package music

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// sourceAppleMusic is the Track.Source reported for Apple Music
const sourceAppleMusic = "Apple Music"

// AppleScriptClient implements the Client interface using AppleScript to query Apple Music
type AppleScriptClient struct{}

// NewAppleScriptClient creates a new AppleScript-based music client
func NewAppleScriptClient() *AppleScriptClient {
	return &AppleScriptClient{}
}

// IsRunning checks if the Music app is currently running
func (c *AppleScriptClient) IsRunning(ctx context.Context) (bool, error) {
	script := `tell application "System Events" to (name of processes) contains "Music"`

	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("failed to check if Music is running: %w", err)
	}

	result := strings.TrimSpace(string(output))
	return result == "true", nil
}

// GetCurrentTrack returns the currently playing or paused track from Apple Music.
// A single osascript call checks Music is running and reads the track, so
// the two can't disagree.
func (c *AppleScriptClient) GetCurrentTrack(ctx context.Context) (*Track, error) {
	script := `
tell application "System Events"
	if not ((name of processes) contains "Music") then
		return "not_running"
	end if
end tell
tell application "Music"
	if player state is stopped then
		return "stopped"
	else
		set trackName to name of current track
		set trackArtist to artist of current track
		set trackAlbum to album of current track
		set trackDuration to duration of current track
		set playerPos to player position
		set playerState to player state as string
		set trackID to persistent ID of current track
		try
			set playlistName to name of current playlist
		on error
			set playlistName to ""
		end try

		return trackName & "|||" & trackArtist & "|||" & trackAlbum & "|||" & trackDuration & "|||" & playerPos & "|||" & playerState & "|||" & playlistName & "|||" & trackID
	end if
end tell`

	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	output, err := cmd.Output()
	if err != nil {
		// If there's an error, try to extract the error message
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("osascript error: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("failed to execute osascript: %w", err)
	}

	result := strings.TrimSpace(string(output))

	// Handle not running or stopped states
	if result == "not_running" || result == "stopped" {
		return nil, nil
	}

	track, err := parseTrackOutput(result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse track output: %w", err)
	}

	return track, nil
}

// parseTrackOutput parses the delimited output from the AppleScript
func parseTrackOutput(output string) (*Track, error) {
	parts := strings.Split(output, "|||")
	if len(parts) != 8 {
		return nil, fmt.Errorf("expected 8 parts, got %d: %q", len(parts), output)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	// Duration and position are seconds as floats. Streams report a
	// missing duration.
	var duration float64
	if parts[3] != "" && parts[3] != "missing value" {
		d, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration %q: %w", parts[3], err)
		}
		duration = d
	}

	position, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse position %q: %w", parts[4], err)
	}

	var state PlayState
	switch parts[5] {
	case "playing":
		state = StatePlaying
	case "paused":
		state = StatePaused
	case "stopped":
		state = StateStopped
	default:
		return nil, fmt.Errorf("unknown player state: %q", parts[5])
	}

	return &Track{
		Title:     parts[0],
		Artist:    parts[1],
		Album:     parts[2],
		Playlist:  parts[6],
		ContentID: parts[7],
		Source:    sourceAppleMusic,
		Duration:  secondsToDuration(duration),
		Position:  secondsToDuration(position),
		State:     state,
	}, nil
}

// secondsToDuration converts seconds (as float) to time.Duration
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
