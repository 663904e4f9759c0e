package snapshot

import (
	"testing"
	"time"

	"github.com/TimurManjosov/segmentd/internal/rules"
)

func TestBuild_ETagTracksContent(t *testing.T) {
	segs := []rules.Segment{
		{Key: "power_users", Condition: "level >= 10", Env: "prod"},
		{Key: "us_users", Condition: "country = 'US'", Env: "prod"},
	}

	first := Build(segs)
	second := Build(segs)
	if first.ETag != second.ETag {
		t.Fatalf("identical segments produced different ETags: %s vs %s", first.ETag, second.ETag)
	}

	changed := Build([]rules.Segment{
		{Key: "power_users", Condition: "level >= 20", Env: "prod"},
		{Key: "us_users", Condition: "country = 'US'", Env: "prod"},
	})
	if changed.ETag == first.ETag {
		t.Fatal("changed condition did not change the ETag")
	}
}

func TestBuild_UpdatedAtDoesNotAffectETag(t *testing.T) {
	a := Build([]rules.Segment{{Key: "s", Condition: "x = 1", Env: "prod", UpdatedAt: time.Unix(1, 0)}})
	b := Build([]rules.Segment{{Key: "s", Condition: "x = 1", Env: "prod", UpdatedAt: time.Unix(2, 0)}})
	if a.ETag != b.ETag {
		t.Fatal("UpdatedAt leaked into the ETag")
	}
}

func TestUpdateAndLoad(t *testing.T) {
	s := Build([]rules.Segment{{Key: "s", Condition: "x = 1", Env: "prod"}})
	Update(s)

	got := Load()
	if got.ETag != s.ETag {
		t.Fatalf("Load() ETag = %s, want %s", got.ETag, s.ETag)
	}
	if _, ok := got.Segments["s"]; !ok {
		t.Fatal("segment missing from loaded snapshot")
	}
}

func TestSubscribe_ReceivesUpdates(t *testing.T) {
	ch, unsub := Subscribe()
	defer unsub()

	s := Build([]rules.Segment{{Key: "notify_me", Condition: "x = 1", Env: "prod"}})
	Update(s)

	select {
	case etag := <-ch:
		if etag != s.ETag {
			t.Fatalf("received ETag %s, want %s", etag, s.ETag)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}
