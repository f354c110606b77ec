// package models defines the records exchanged between the catalog, the discovery engine and clients
package models

import (
	"fmt"
	"strings"
)

// Hit is a discovered one-hit track.
type Hit struct {
	Name         string `json:"name"`
	YoutubeID    string `json:"youtubeId"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Validate checks the fields needed to play and store a hit.
func (h Hit) Validate() error {
	if strings.TrimSpace(h.YoutubeID) == "" {
		return fmt.Errorf("youtube id is required")
	}
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Thumbnail is the default-size preview image of a video.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Video is the result of a video search for a track.
type Video struct {
	ID        string    `json:"id"`
	Thumbnail Thumbnail `json:"thumbnail"`
}

// Stats reports how many distinct entities the process has seen.
type Stats struct {
	ArtistCount int `json:"artistCount"`
	TrackCount  int `json:"trackCount"`
	TagCount    int `json:"tagCount"`
}

// BrokenTrack is a client report of a video that failed to play.
type BrokenTrack struct {
	YoutubeID string `json:"youtubeId"`
	Name      string `json:"name"`
}

// TrackName formats the display name shared by hits and video cache keys.
func TrackName(artist, track string) string {
	return artist + " - " + track
}
