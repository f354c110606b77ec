package tasks

import (
	"fmt"

	"github.com/desertthunder/onehit/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveCandidates Phase = iota
	CheckArtist
	FoundHit
	Waiting
	GiveUp
	Finished
)

func (p Phase) String() string {
	switch p {
	case ResolveCandidates:
		return "resolve_candidates"
	case CheckArtist:
		return "check_artist"
	case FoundHit:
		return "found_hit"
	case Waiting:
		return "waiting"
	case GiveUp:
		return "give_up"
	case Finished:
		return "finished"
	default:
		return ""
	}
}

func resolveCandidatesUpdate(query string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveCandidates,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Found %d candidate artists for %q", count, query),
	}
}

func checkArtistUpdate(step, total int, artist string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckArtist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Checking %s...", artist),
	}
}

func foundHitUpdate(step, total int, hit models.Hit) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FoundHit,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found %s", hit.Name),
		Data:    hit,
	}
}

func waitingUpdate(misses, limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Waiting,
		Step:    misses,
		Total:   limit,
		Message: fmt.Sprintf("Waiting for results (%d/%d)...", misses, limit),
	}
}

func giveUpUpdate(misses int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GiveUp,
		Step:    misses,
		Total:   misses,
		Message: "Giving up on outstanding artists",
	}
}

func finishedUpdate(outcome Outcome, hits int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finished,
		Step:    hits,
		Total:   hits,
		Message: fmt.Sprintf("Discovery %s with %d hits", outcome, hits),
		Data:    outcome,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
