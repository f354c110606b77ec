package repositories

import (
	"fmt"
	"strings"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
)

const itemSeparator = "|"

// EncodeItem formats a hit as a playlist list element.
func EncodeItem(h models.Hit) string {
	return strings.Join([]string{h.YoutubeID, h.ThumbnailURL, h.Name}, itemSeparator)
}

// DecodeItem parses a playlist list element.
func DecodeItem(s string) (models.Hit, error) {
	parts := strings.SplitN(s, itemSeparator, 3)
	if len(parts) != 3 {
		return models.Hit{}, fmt.Errorf("%w: playlist item %q", shared.ErrInvalidPayload, s)
	}
	return models.Hit{YoutubeID: parts[0], ThumbnailURL: parts[1], Name: parts[2]}, nil
}
