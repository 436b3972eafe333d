package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/Quicexo28/Fitracker-editor/internal/catalog"
)

func TestBlobSHAMatchesGit(t *testing.T) {
	// git hash-object of "hello\n"
	got := BlobSHA([]byte("hello\n"))
	want := "ce013625030ba8dba906f756967f9e9ca394464a"
	if got != want {
		t.Errorf("BlobSHA mismatch: got %s, want %s", got, want)
	}
}

func TestMarshalDocumentShape(t *testing.T) {
	doc := catalog.Document{
		{Group: "Chest", Items: []catalog.Exercise{{ID: "bench-press", Name: "Bench Press"}}},
	}
	payload, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(payload)
	if !strings.HasPrefix(text, "[\n  {") {
		t.Errorf("expected 2-space indented array, got %q", text[:20])
	}
	if !strings.HasSuffix(text, "\n]\n") {
		t.Errorf("expected trailing newline, got %q", text[len(text)-4:])
	}
	if !strings.Contains(text, `"group": "Chest"`) {
		t.Errorf("group field missing: %s", text)
	}
	if strings.Contains(text, `"variations"`) {
		t.Errorf("empty variations must be omitted: %s", text)
	}
}

func TestMarshalDocumentNilIsEmptyArray(t *testing.T) {
	payload, err := MarshalDocument(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != "[]\n" {
		t.Errorf("expected empty array, got %q", payload)
	}
}

func TestDecodeDocumentRoundTrip(t *testing.T) {
	doc := catalog.Document{
		{Group: "Legs", Items: []catalog.Exercise{{
			ID:   "squat",
			Name: "Squat",
			Variations: []catalog.Variation{{
				ID: "front", Name: "Front Squat", IsUnilateral: false,
			}},
		}}},
	}
	payload, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := DecodeDocument(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded[0].Items[0].Variations[0].ID != "front" {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}

func TestDecodeDocumentRejectsMalformedJSON(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"not": "an array"`))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
