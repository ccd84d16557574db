package document

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	doc, err := New("0042", "Glaucoma is an eye disease.", WithSource("NEI"), WithTopic("Glaucoma"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "0042" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Text() != "Glaucoma is an eye disease." {
		t.Errorf("Text() = %q", doc.Text())
	}
	if src, ok := doc.Source(); !ok || src != "NEI" {
		t.Errorf("Source() = %q, %v", src, ok)
	}
	if topic, ok := doc.Topic(); !ok || topic != "Glaucoma" {
		t.Errorf("Topic() = %q, %v", topic, ok)
	}
}

func TestNew_OptionalFieldsAbsent(t *testing.T) {
	doc, err := New("1", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Source(); ok {
		t.Error("Source() should be absent")
	}
	if _, ok := doc.Topic(); ok {
		t.Error("Topic() should be absent")
	}
}

func TestNew_EmptySourceIsStillPresent(t *testing.T) {
	doc, err := New("1", "text", WithSource(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Source(); !ok {
		t.Error("explicitly set empty source should be present")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		text string
	}{
		{"empty id", "", "text"},
		{"blank id", "   ", "text"},
		{"padded id", " 12 ", "text"},
		{"long id", strings.Repeat("a", MaxIDLength+1), "text"},
		{"empty text", "1", ""},
		{"blank text", "1", " \n\t"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, tc.text); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
