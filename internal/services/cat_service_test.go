package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/florianhoeppner/catatlas-backend/internal/repo"
)

func TestCatCreate_NormalizesName(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	c, err := s.Create(ctx, loc("  miss   whiskers  "))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name == nil || *c.Name != "miss whiskers" {
		t.Fatalf("name not normalized: %v", c.Name)
	}

	anon, err := s.Create(ctx, loc("   "))
	if err != nil || anon.Name != nil {
		t.Fatalf("blank name should create anonymous cat: %+v, %v", anon, err)
	}
}

func TestCatUpdateName(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	c, _ := s.Create(ctx, nil)
	got, err := s.UpdateName(ctx, c.ID, " General  Fluff ")
	if err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if got.Name == nil || *got.Name != "General Fluff" {
		t.Fatalf("name not updated: %v", got.Name)
	}

	if _, err := s.UpdateName(ctx, c.ID, "  "); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, err := s.UpdateName(ctx, 4040, "Nobody"); err != ErrCatNotFound {
		t.Fatalf("expected ErrCatNotFound, got %v", err)
	}
}

func TestCatList_IncludesSightingCounts(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	c, _ := s.Create(ctx, loc("Shadow"))
	for i := 0; i < 2; i++ {
		e := seedEntry(t, db, "sighting", nil)
		if err := repo.AssignCat(ctx, db, e.ID, &c.ID); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}
	_, _ = s.Create(ctx, nil)

	out, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected two cats, got %d", len(out))
	}
	counts := map[int64]int64{}
	for _, c := range out {
		counts[c.ID] = c.SightingsCount
	}
	if counts[c.ID] != 2 {
		t.Fatalf("sighting counts wrong: %+v", counts)
	}
}

func TestCatFromSightings_TransactionalLink(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	a := seedEntry(t, db, "first sighting", nil)
	b := seedEntry(t, db, "second sighting", nil)

	cat, linked, err := s.FromSightings(ctx, loc("Pixel"), []int64{a.ID, b.ID})
	if err != nil {
		t.Fatalf("FromSightings: %v", err)
	}
	if linked != 2 || cat.Name == nil || *cat.Name != "Pixel" {
		t.Fatalf("unexpected result: cat=%+v linked=%d", cat, linked)
	}

	// All-unknown entry IDs roll the cat creation back.
	if _, _, err := s.FromSightings(ctx, nil, []int64{90001, 90002}); err != ErrEntryNotFound {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	cats, _ := repo.ListCats(ctx, db)
	if len(cats) != 1 {
		t.Fatalf("rolled-back cat persisted: %+v", cats)
	}

	if _, _, err := s.FromSightings(ctx, nil, nil); err != ErrNoSightingIDs {
		t.Fatalf("expected ErrNoSightingIDs, got %v", err)
	}
}

func TestCatLinkSightings(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	c, _ := s.Create(ctx, nil)
	e := seedEntry(t, db, "note", nil)

	n, err := s.LinkSightings(ctx, c.ID, []int64{e.ID, 99999})
	if err != nil || n != 1 {
		t.Fatalf("LinkSightings = %d, %v", n, err)
	}
	if _, err := s.LinkSightings(ctx, 4040, []int64{e.ID}); err != ErrCatNotFound {
		t.Fatalf("expected ErrCatNotFound, got %v", err)
	}
	if _, err := s.LinkSightings(ctx, c.ID, nil); err != ErrNoSightingIDs {
		t.Fatalf("expected ErrNoSightingIDs, got %v", err)
	}
}

func TestCatProfile_AggregatesSightings(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	c, _ := s.Create(ctx, loc("miss whiskers"))

	e1 := seedEntry(t, db, "first sighting", loc("Greenfield Park"))
	e2 := seedEntry(t, db, "second sighting", loc("Old Mill"))
	e3 := seedEntry(t, db, "third sighting", loc("Greenfield Park"))
	for _, e := range []int64{e1.ID, e2.ID, e3.ID} {
		if err := repo.AssignCat(ctx, db, e, &c.ID); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	p, err := s.Profile(ctx, c.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.SightingsCount != 3 || len(p.Sightings) != 3 {
		t.Fatalf("sighting count mismatch: %+v", p)
	}
	if p.DisplayName != "Miss Whiskers" {
		t.Fatalf("display name not title-cased: %q", p.DisplayName)
	}
	if p.FirstSeen == nil || p.LastSeen == nil || p.FirstSeen.After(*p.LastSeen) {
		t.Fatalf("first/last seen wrong: %v / %v", p.FirstSeen, p.LastSeen)
	}
	if len(p.Locations) != 2 {
		t.Fatalf("locations should be deduplicated: %+v", p.Locations)
	}

	// Anonymous cat falls back to a numbered display name.
	anon, _ := s.Create(ctx, nil)
	ap, err := s.Profile(ctx, anon.ID)
	if err != nil {
		t.Fatalf("Profile(anon): %v", err)
	}
	if ap.SightingsCount != 0 || ap.FirstSeen != nil {
		t.Fatalf("empty profile expected: %+v", ap)
	}
	want := "Cat #"
	if len(ap.DisplayName) <= len(want) || ap.DisplayName[:len(want)] != want {
		t.Fatalf("placeholder display name expected, got %q", ap.DisplayName)
	}
}

func TestCatProfile_NarrativeTagsAndLocationCap(t *testing.T) {
	db := newServiceDB(t)
	s := NewCatService(db)
	ctx := context.Background()

	c, _ := s.Create(ctx, loc("smokey"))
	for i := 0; i < 7; i++ {
		e := seedEntry(t, db, "happy grey tabby purring loudly", loc(fmt.Sprintf("Spot %d", i)))
		if err := repo.AssignCat(ctx, db, e.ID, &c.ID); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	p, err := s.Profile(ctx, c.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if len(p.Locations) != 5 {
		t.Fatalf("locations should cap at five: %+v", p.Locations)
	}
	if p.Locations[0] != "Spot 6" {
		t.Fatalf("locations should list most recent first: %+v", p.Locations)
	}
	if p.Temperament != "friendly" {
		t.Fatalf("positive notes should read as friendly: %q", p.Temperament)
	}
	found := false
	for _, tag := range p.TopTags {
		if tag == "tabby" {
			found = true
		}
	}
	if !found || len(p.TopTags) > 8 {
		t.Fatalf("top tags wrong: %+v", p.TopTags)
	}
	if !strings.Contains(p.ProfileText, "Smokey is a community-tracked street cat most often seen around Spot 6") {
		t.Fatalf("narrative opening wrong: %q", p.ProfileText)
	}
	if !strings.Contains(p.ProfileText, "Based on 7 sighting(s), the current temperament guess is 'friendly'") {
		t.Fatalf("narrative temperament wrong: %q", p.ProfileText)
	}

	// A cat with no sightings gets the placeholder narrative.
	anon, _ := s.Create(ctx, nil)
	ap, err := s.Profile(ctx, anon.ID)
	if err != nil {
		t.Fatalf("Profile(anon): %v", err)
	}
	if ap.Temperament != "unknown" {
		t.Fatalf("empty profile temperament = %q", ap.Temperament)
	}
	if ap.ProfileText != "No sightings assigned yet. Assign sightings to build a profile." {
		t.Fatalf("empty profile narrative = %q", ap.ProfileText)
	}
	if ap.TopTags == nil || len(ap.TopTags) != 0 {
		t.Fatalf("empty profile tags = %#v", ap.TopTags)
	}
}
