// Package spotify provides a small client for the Spotify Web API, covering
// the app-only (client credentials) flow and track lookups.
//
// # Quick Start
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	track, err := client.GetTrack(ctx, "spotify:track:6Qn5zhYkTa37e91HC1D7lb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(track.Album.FormattedReleaseDate())
//
// # Authentication
//
// Access tokens are fetched on first use and refreshed shortly before they
// expire. No user authorization is involved, so only public catalog
// endpoints are available.
//
// # Error Handling
//
// API failures are returned as *Error, which carries the HTTP status:
//
//	_, err := client.GetTrack(ctx, id)
//	var apiErr *spotify.Error
//	if errors.As(err, &apiErr) && apiErr.Temporary() {
//	    // try again later
//	}
//
// Rate limiting (429) and server errors are retried with exponential
// backoff before being returned.
package spotify
