package catalog

const (
	// HitThreshold is the largest second/first play count ratio that still counts as a one-hit wonder.
	HitThreshold = 0.4
	// PlaycountThreshold is the play count the first track must exceed.
	PlaycountThreshold = 10_000
	// SecondTrackMaxPlaycount disqualifies artists whose runner-up is itself popular.
	SecondTrackMaxPlaycount = 1_000_000
	// TopTrackCount is how many top tracks an artist exposes.
	TopTrackCount = 3
)

// PickHit returns the track that dominates tracks, which must be ordered by descending play count.
//
// A zero first play count is no hit.
func PickHit(tracks []*Track) *Track {
	if len(tracks) < 2 {
		return nil
	}

	first, second := tracks[0], tracks[1]
	if second.Playcount > SecondTrackMaxPlaycount {
		return nil
	}
	if first.Playcount <= 0 {
		return nil
	}

	ratio := float64(second.Playcount) / float64(first.Playcount)
	if ratio < HitThreshold && first.Playcount > PlaycountThreshold {
		return first
	}
	return nil
}
