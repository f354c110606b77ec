package models

import "testing"

func TestHitValidate(t *testing.T) {
	tc := []struct {
		name    string
		hit     Hit
		wantErr bool
	}{
		{name: "valid", hit: Hit{Name: "Nena - 99 Luftballons", YoutubeID: "La4Dcd1aUcE"}},
		{name: "missing id", hit: Hit{Name: "Nena - 99 Luftballons"}, wantErr: true},
		{name: "blank name", hit: Hit{Name: "  ", YoutubeID: "x"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.hit.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTrackName(t *testing.T) {
	if got := TrackName("Toni Basil", "Mickey"); got != "Toni Basil - Mickey" {
		t.Errorf("TrackName() = %q", got)
	}
}
