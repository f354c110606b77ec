package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/onehit/internal/formatter"
	"github.com/desertthunder/onehit/internal/models"
)

var _ list.Item = hitItem{}

// hitItem wraps [models.Hit] to implement [list.Item].
type hitItem struct {
	hit models.Hit
}

func (i hitItem) FilterValue() string { return i.hit.Name }
func (i hitItem) Title() string       { return i.hit.Name }
func (i hitItem) Description() string { return formatter.WatchURL(i.hit.YoutubeID) }

func hitItems(hits []models.Hit) []list.Item {
	items := make([]list.Item, len(hits))
	for i, h := range hits {
		items[i] = hitItem{hit: h}
	}
	return items
}
