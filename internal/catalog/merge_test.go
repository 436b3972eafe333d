package catalog

import (
	"errors"
	"testing"

	"golang.org/x/text/language"
)

func seedDocument() Document {
	return Document{
		{Group: "Chest", Items: []Exercise{
			{ID: "bench-press", Name: "Bench Press", Variations: []Variation{
				{ID: "incline", Name: "Incline"},
			}},
		}},
		{Group: "Legs", Items: []Exercise{
			{ID: "squat", Name: "Squat"},
		}},
	}
}

func countExercises(doc Document) int {
	total := 0
	for _, g := range doc {
		total += len(g.Items)
	}
	return total
}

func TestApplyCreateNewGroup(t *testing.T) {
	c := NewCollator(language.English)
	doc, err := Apply(Document{}, Intent{
		GroupName: "Chest",
		Exercise:  Exercise{ID: "bench-press", Name: "Bench Press"},
	}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc) != 1 || doc[0].Group != "Chest" {
		t.Fatalf("expected single Chest group, got %+v", doc)
	}
	if len(doc[0].Items) != 1 || doc[0].Items[0].ID != "bench-press" {
		t.Fatalf("expected bench-press item, got %+v", doc[0].Items)
	}
	if doc[0].Items[0].Variations != nil {
		t.Errorf("expected children omitted when empty, got %+v", doc[0].Items[0].Variations)
	}
}

func TestApplyCreateMatchesGroupCaseInsensitively(t *testing.T) {
	c := NewCollator(language.English)
	doc, err := Apply(seedDocument(), Intent{
		GroupName: "chest",
		Exercise:  Exercise{ID: "dips", Name: "Dips"},
	}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chestGroups := 0
	for _, g := range doc {
		if c.CompareString(g.Group, "chest") == 0 {
			chestGroups++
			if len(g.Items) != 2 {
				t.Errorf("expected 2 chest items, got %+v", g.Items)
			}
		}
	}
	if chestGroups != 1 {
		t.Errorf("expected exactly one chest group, got %d", chestGroups)
	}
}

func TestApplyCreateRefusesDuplicateID(t *testing.T) {
	c := NewCollator(language.English)
	_, err := Apply(seedDocument(), Intent{
		GroupName: "Back",
		Exercise:  Exercise{ID: "squat", Name: "Not A Squat"},
	}, c)
	ve, ok := err.(*ValidationError)
	if !ok || ve.Code != CodeDuplicateID {
		t.Fatalf("expected DuplicateId, got %v", err)
	}
}

func TestApplyUpdateReplacesInPlace(t *testing.T) {
	c := NewCollator(language.English)
	before := seedDocument()
	doc, err := Apply(before, Intent{
		Edit:       true,
		OriginalID: "bench-press",
		GroupName:  "Chest",
		Exercise:   Exercise{ID: "flat-bench", Name: "Flat Bench"},
	}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if countExercises(doc) != countExercises(before) {
		t.Errorf("update changed the exercise count: %d != %d", countExercises(doc), countExercises(before))
	}
	if _, _, ok := doc.FindExercise("bench-press"); ok {
		t.Errorf("original id should be gone after replacement")
	}
	if _, _, ok := doc.FindExercise("flat-bench"); !ok {
		t.Errorf("replacement entry missing")
	}
}

func TestApplyUpdateNotFound(t *testing.T) {
	c := NewCollator(language.English)
	_, err := Apply(seedDocument(), Intent{
		Edit:       true,
		OriginalID: "deadlift",
		GroupName:  "Back",
		Exercise:   Exercise{ID: "deadlift", Name: "Deadlift"},
	}, c)
	if !errors.Is(err, ErrExerciseNotFound) {
		t.Fatalf("expected ErrExerciseNotFound, got %v", err)
	}
}

func TestApplyUpdateMovesAcrossGroups(t *testing.T) {
	c := NewCollator(language.English)
	doc, err := Apply(seedDocument(), Intent{
		Edit:       true,
		OriginalID: "squat",
		GroupName:  "Quads",
		Exercise:   Exercise{ID: "squat", Name: "Back Squat"},
	}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, g := range doc {
		if g.Group == "Legs" {
			t.Errorf("emptied group should be dropped, got %+v", doc)
		}
	}
	gi, _, ok := doc.FindExercise("squat")
	if !ok || doc[gi].Group != "Quads" {
		t.Fatalf("expected squat under Quads, got %+v", doc)
	}
}

func TestApplySortsByNameCaseInsensitively(t *testing.T) {
	c := NewCollator(language.English)
	doc := Document{
		{Group: "legs", Items: []Exercise{{ID: "squat", Name: "squat"}}},
	}
	doc, err := Apply(doc, Intent{
		GroupName: "Back",
		Exercise:  Exercise{ID: "deadlift", Name: "Deadlift"},
	}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, err = Apply(doc, Intent{
		GroupName: "legs",
		Exercise:  Exercise{ID: "lunge", Name: "Alternating Lunge"},
	}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc[0].Group != "Back" || doc[1].Group != "legs" {
		t.Fatalf("groups not sorted: %+v", doc)
	}
	legs := doc[1].Items
	if legs[0].ID != "lunge" || legs[1].ID != "squat" {
		t.Errorf("items not sorted by name: %+v", legs)
	}
}

func TestApplyDoesNotMutateInputGroups(t *testing.T) {
	c := NewCollator(language.English)
	before := seedDocument()
	if _, err := Apply(before, Intent{
		GroupName: "Chest",
		Exercise:  Exercise{ID: "dips", Name: "Dips"},
	}, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(before[0].Items) != 1 {
		t.Errorf("input document mutated: %+v", before[0].Items)
	}
}
