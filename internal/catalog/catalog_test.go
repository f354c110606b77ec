package catalog

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/services"
	"github.com/desertthunder/onehit/internal/shared"
	"github.com/desertthunder/onehit/internal/store"
	tu "github.com/desertthunder/onehit/internal/testing"
)

type fixture struct {
	kv    *store.SQLiteStore
	meta  *tu.MockMetadata
	video *tu.MockVideo
	cat   *Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{kv: tu.NewTestStore(t), meta: tu.NewMockMetadata(), video: tu.NewMockVideo()}
	f.cat = New(f.kv, f.meta, f.video, Options{Logger: shared.DiscardLogger()})
	return f
}

// restart simulates a cold process sharing the same persistent store.
func (f *fixture) restart() {
	f.cat = New(f.kv, f.meta, f.video, Options{Logger: shared.DiscardLogger()})
}

func names(artists []*Artist) []string {
	out := make([]string, len(artists))
	for i, a := range artists {
		out[i] = a.Name
	}
	return out
}

func TestRegistries(t *testing.T) {
	f := newFixture(t)

	t.Run("artists are flyweights", func(t *testing.T) {
		var wg sync.WaitGroup
		got := make([]*Artist, 32)
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i] = f.cat.Artist("Nena")
			}(i)
		}
		wg.Wait()
		for _, a := range got {
			if a != got[0] {
				t.Fatal("expected a single Nena instance")
			}
		}
	})

	t.Run("track playcount fixed at creation", func(t *testing.T) {
		a := f.cat.Track("Nena", "99 Luftballons", 900000)
		b := f.cat.Track("Nena", "99 Luftballons", 1)
		if a != b || b.Playcount != 900000 {
			t.Errorf("expected existing track with original playcount, got %d", b.Playcount)
		}
	})

	t.Run("stats", func(t *testing.T) {
		f.cat.Tag("new wave")
		stats := f.cat.Stats()
		want := models.Stats{ArtistCount: 1, TrackCount: 1, TagCount: 1}
		if stats != want {
			t.Errorf("got %+v, want %+v", stats, want)
		}
	})
}

func TestSimilarArtists(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves once and writes through", func(t *testing.T) {
		f := newFixture(t)
		f.meta.Similar["Nena"] = []string{"Alphaville", "Trio"}

		for i := 0; i < 2; i++ {
			got, err := f.cat.Artist("Nena").SimilarArtists(ctx)
			if err != nil {
				t.Fatalf("SimilarArtists failed: %v", err)
			}
			if !reflect.DeepEqual(names(got), []string{"Alphaville", "Trio"}) {
				t.Errorf("unexpected similar artists %v", names(got))
			}
		}
		if f.meta.Calls("SimilarArtists") != 1 {
			t.Errorf("expected 1 service call, got %d", f.meta.Calls("SimilarArtists"))
		}

		stored, _ := f.kv.LRange(ctx, "similar:Nena", 0, -1)
		if !reflect.DeepEqual(stored, []string{"Alphaville", "Trio"}) {
			t.Errorf("unexpected stored list %v", stored)
		}
		if ok, _ := f.cat.IsArtist(ctx, "ALPHAVILLE"); !ok {
			t.Error("similar artists should be registered as known artists")
		}
	})

	t.Run("cold restart reads the store", func(t *testing.T) {
		f := newFixture(t)
		f.meta.Similar["Nena"] = []string{"Alphaville"}
		if _, err := f.cat.Artist("Nena").SimilarArtists(ctx); err != nil {
			t.Fatalf("SimilarArtists failed: %v", err)
		}

		f.restart()
		got, err := f.cat.Artist("Nena").SimilarArtists(ctx)
		if err != nil {
			t.Fatalf("SimilarArtists failed: %v", err)
		}
		if len(got) != 1 || got[0].Name != "Alphaville" {
			t.Errorf("unexpected similar artists %v", names(got))
		}
		if f.meta.Calls("SimilarArtists") != 1 {
			t.Errorf("restart must not call the service again, got %d calls", f.meta.Calls("SimilarArtists"))
		}
	})

	t.Run("empty result is remembered", func(t *testing.T) {
		f := newFixture(t)
		if got, err := f.cat.Artist("Nobody").SimilarArtists(ctx); err != nil || len(got) != 0 {
			t.Fatalf("expected empty result, got %v, %v", got, err)
		}
		f.restart()
		if _, err := f.cat.Artist("Nobody").SimilarArtists(ctx); err != nil {
			t.Fatalf("SimilarArtists failed: %v", err)
		}
		if f.meta.Calls("SimilarArtists") != 1 {
			t.Errorf("negative marker should prevent a second call, got %d", f.meta.Calls("SimilarArtists"))
		}
		if ok, _ := f.kv.SIsMember(ctx, "hasnosimilarartist", "Nobody"); !ok {
			t.Error("expected negative marker")
		}
	})

	t.Run("service failure is not cached", func(t *testing.T) {
		f := newFixture(t)
		f.meta.Err = shared.ErrAPIRequest
		if _, err := f.cat.Artist("Nena").SimilarArtists(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}

		f.meta.Err = nil
		f.meta.Similar["Nena"] = []string{"Trio"}
		got, err := f.cat.Artist("Nena").SimilarArtists(ctx)
		if err != nil || len(got) != 1 {
			t.Fatalf("retry should succeed, got %v, %v", got, err)
		}
	})
}

func TestTopTracks(t *testing.T) {
	ctx := context.Background()

	t.Run("ranked, capped and persisted", func(t *testing.T) {
		f := newFixture(t)
		f.meta.Tracks["Nena"] = []services.TrackPlaycount{
			{Name: "Leuchtturm", Playcount: 40000},
			{Name: "99 Luftballons", Playcount: 900000},
			{Name: "Irgendwie", Playcount: 40000},
			{Name: "Nur geträumt", Playcount: 120000},
		}

		tracks, err := f.cat.Artist("Nena").TopTracks(ctx)
		if err != nil {
			t.Fatalf("TopTracks failed: %v", err)
		}
		var got []string
		for _, tr := range tracks {
			got = append(got, tr.Name)
		}
		want := []string{"99 Luftballons", "Nur geträumt", "Leuchtturm"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}

		members, _ := f.kv.ZRevRange(ctx, "toptracks:Nena", 0, -1)
		if len(members) != 4 {
			t.Errorf("expected full ranking stored, got %d members", len(members))
		}

		f.restart()
		again, err := f.cat.Artist("Nena").TopTracks(ctx)
		if err != nil {
			t.Fatalf("TopTracks failed: %v", err)
		}
		if len(again) != 3 || again[0].Playcount != 900000 || again[2].Name != "Leuchtturm" {
			t.Errorf("store read should match the first ranking, got %v", again)
		}
		if f.meta.Calls("TopTracks") != 1 {
			t.Errorf("expected 1 service call, got %d", f.meta.Calls("TopTracks"))
		}
	})

	t.Run("HitTrack", func(t *testing.T) {
		f := newFixture(t)
		f.meta.Tracks["Nena"] = []services.TrackPlaycount{
			{Name: "99 Luftballons", Playcount: 900000},
			{Name: "Nur geträumt", Playcount: 120000},
		}
		f.meta.Tracks["a-ha"] = []services.TrackPlaycount{
			{Name: "Take On Me", Playcount: 3000000},
			{Name: "The Sun Always Shines on T.V.", Playcount: 1500000},
		}

		hit, err := f.cat.Artist("Nena").HitTrack(ctx)
		if err != nil || hit == nil || hit.Name != "99 Luftballons" {
			t.Errorf("expected 99 Luftballons, got %v, %v", hit, err)
		}
		hit, err = f.cat.Artist("a-ha").HitTrack(ctx)
		if err != nil || hit != nil {
			t.Errorf("expected no hit, got %v, %v", hit, err)
		}
	})
}

func TestTagTopArtists(t *testing.T) {
	ctx := context.Background()

	t.Run("two pages", func(t *testing.T) {
		f := newFixture(t)
		all := make([]string, 250)
		for i := range all {
			all[i] = "artist" + string(rune('A'+i%26)) + string(rune('a'+i/26))
		}
		f.meta.TagArtists["new wave"] = all

		got, err := f.cat.Tag("new wave").TopArtists(ctx)
		if err != nil {
			t.Fatalf("TopArtists failed: %v", err)
		}
		if len(got) != 200 {
			t.Errorf("expected 200 artists from two pages, got %d", len(got))
		}
		if f.meta.Calls("TagTopArtists") != 2 {
			t.Errorf("expected 2 page calls, got %d", f.meta.Calls("TagTopArtists"))
		}
		if ok, _ := f.cat.IsTag(ctx, "New Wave"); !ok {
			t.Error("resolved tag should be known")
		}
	})

	t.Run("second page skipped when first is empty", func(t *testing.T) {
		f := newFixture(t)
		got, err := f.cat.Tag("nena").TopArtists(ctx)
		if err != nil || len(got) != 0 {
			t.Fatalf("expected empty result, got %v, %v", got, err)
		}
		if f.meta.Calls("TagTopArtists") != 1 {
			t.Errorf("expected a single page call, got %d", f.meta.Calls("TagTopArtists"))
		}
		if ok, _ := f.kv.SIsMember(ctx, "isnottag", "nena"); !ok {
			t.Error("expected isnottag marker")
		}
	})
}

func TestTrackVideo(t *testing.T) {
	ctx := context.Background()

	t.Run("write through and restart", func(t *testing.T) {
		f := newFixture(t)
		f.video.Videos["Nena - 99 Luftballons"] = &models.Video{
			ID:        "La4Dcd1aUcE",
			Thumbnail: models.Thumbnail{URL: "https://i.ytimg.com/vi/La4Dcd1aUcE/default.jpg", Width: 120, Height: 90},
		}

		v, err := f.cat.Track("Nena", "99 Luftballons", 900000).Video(ctx)
		if err != nil || v == nil || v.ID != "La4Dcd1aUcE" {
			t.Fatalf("unexpected video %v, %v", v, err)
		}

		fields, _ := f.kv.HGetAll(ctx, "track:Nena - 99 Luftballons")
		if fields["youtubeId"] != "La4Dcd1aUcE" || fields["thumbnailWidth"] != "120" {
			t.Errorf("unexpected stored hash %v", fields)
		}

		f.restart()
		v, err = f.cat.Track("Nena", "99 Luftballons", 900000).Video(ctx)
		if err != nil || v == nil {
			t.Fatalf("unexpected video %v, %v", v, err)
		}
		if v.Thumbnail.Height != 90 || v.Thumbnail.URL == "" {
			t.Errorf("thumbnail should survive the store, got %+v", v.Thumbnail)
		}
		if f.video.Calls() != 1 {
			t.Errorf("expected 1 search, got %d", f.video.Calls())
		}
	})

	t.Run("missing video is remembered", func(t *testing.T) {
		f := newFixture(t)
		for i := 0; i < 2; i++ {
			f.restart()
			v, err := f.cat.Track("Obscure", "Demo", 20000).Video(ctx)
			if err != nil || v != nil {
				t.Fatalf("expected nil video, got %v, %v", v, err)
			}
		}
		if f.video.Calls() != 1 {
			t.Errorf("expected 1 search, got %d", f.video.Calls())
		}
	})
}

func TestResolveCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.cat.ResolveCandidates(ctx, "   "); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown query unions tag and similar", func(t *testing.T) {
		f := newFixture(t)
		f.meta.TagArtists["synthpop"] = []string{"Yazoo", "Trio"}
		f.meta.Similar["synthpop"] = []string{"Trio", "Alphaville"}

		got, err := f.cat.ResolveCandidates(ctx, "  SynthPop ")
		if err != nil {
			t.Fatalf("ResolveCandidates failed: %v", err)
		}
		if !reflect.DeepEqual(names(got), []string{"Yazoo", "Trio", "Alphaville"}) {
			t.Errorf("unexpected candidates %v", names(got))
		}
	})

	t.Run("known tag uses tag only", func(t *testing.T) {
		f := newFixture(t)
		f.meta.TagArtists["synthpop"] = []string{"Yazoo"}
		if _, err := f.cat.Tag("synthpop").TopArtists(ctx); err != nil {
			t.Fatalf("TopArtists failed: %v", err)
		}

		f.restart()
		got, err := f.cat.ResolveCandidates(ctx, "synthpop")
		if err != nil || !reflect.DeepEqual(names(got), []string{"Yazoo"}) {
			t.Errorf("unexpected candidates %v, %v", names(got), err)
		}
		if f.meta.Calls("SimilarArtists") != 0 {
			t.Error("a known tag must not query similar artists")
		}
	})

	t.Run("known artist uses similar only", func(t *testing.T) {
		f := newFixture(t)
		if err := f.kv.SAdd(ctx, "artists", "nena"); err != nil {
			t.Fatalf("SAdd failed: %v", err)
		}
		f.meta.Similar["nena"] = []string{"Alphaville"}

		got, err := f.cat.ResolveCandidates(ctx, "Nena")
		if err != nil || !reflect.DeepEqual(names(got), []string{"Alphaville"}) {
			t.Errorf("unexpected candidates %v, %v", names(got), err)
		}
		if f.meta.Calls("TagTopArtists") != 0 {
			t.Error("a known artist must not query the tag")
		}
	})

	t.Run("both lookups failing", func(t *testing.T) {
		f := newFixture(t)
		f.meta.Err = shared.ErrAPIRequest
		if _, err := f.cat.ResolveCandidates(ctx, "anything"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestFindHit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.meta.Tracks["Nena"] = []services.TrackPlaycount{
		{Name: "99 Luftballons", Playcount: 900000},
		{Name: "Nur geträumt", Playcount: 120000},
	}
	f.meta.Tracks["Obscure"] = []services.TrackPlaycount{
		{Name: "Demo", Playcount: 20000},
		{Name: "B-side", Playcount: 10},
	}
	f.video.Videos["Nena - 99 Luftballons"] = &models.Video{ID: "La4Dcd1aUcE", Thumbnail: models.Thumbnail{URL: "thumb"}}

	t.Run("hit with video", func(t *testing.T) {
		hit, err := f.cat.FindHit(ctx, f.cat.Artist("Nena"))
		if err != nil {
			t.Fatalf("FindHit failed: %v", err)
		}
		want := &models.Hit{Name: "Nena - 99 Luftballons", YoutubeID: "La4Dcd1aUcE", ThumbnailURL: "thumb"}
		if !reflect.DeepEqual(hit, want) {
			t.Errorf("got %+v, want %+v", hit, want)
		}
	})

	t.Run("hit without video is skipped", func(t *testing.T) {
		hit, err := f.cat.FindHit(ctx, f.cat.Artist("Obscure"))
		if err != nil || hit != nil {
			t.Errorf("expected nil hit, got %v, %v", hit, err)
		}
	})

	t.Run("no hit", func(t *testing.T) {
		hit, err := f.cat.FindHit(ctx, f.cat.Artist("Unknown"))
		if err != nil || hit != nil {
			t.Errorf("expected nil hit, got %v, %v", hit, err)
		}
	})
}
