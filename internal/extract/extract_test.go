package extract

import "testing"

func TestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "plain", input: "John", want: "John", wantOK: true},
		{name: "lowercase", input: "  john  ", want: "John", wantOK: true},
		{name: "my name is", input: "My name is Sarah Connor", want: "Sarah Connor", wantOK: true},
		{name: "greeting then filler", input: "Hi, I'm ana!", want: "Ana", wantOK: true},
		{name: "call me", input: "call me maria jose", want: "Maria Jose", wantOK: true},
		{name: "filler prefix inside word", input: "Hilary", want: "Hilary", wantOK: true},
		{name: "im prefix inside word", input: "imran", want: "Imran", wantOK: true},
		{name: "greeting only", input: "Hi there!", wantOK: false},
		{name: "empty", input: "   ", wantOK: false},
		{name: "punctuation", input: "?!?", wantOK: false},
		{name: "single letter", input: "J", wantOK: false},
		{name: "digits", input: "R2D2", wantOK: false},
		{name: "too long", input: "Bartholomew Maximilian Fitzgerald", wantOK: false},
		{name: "accented", input: "josé", want: "José", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Name(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Name(%q) ok = %v, want %v (got %q)", tt.input, ok, tt.wantOK, got)
			}
			if ok && got != tt.want {
				t.Fatalf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{input: "Boston", want: "Boston", wantOK: true},
		{input: "i'm from new york", want: "New York", wantOK: true},
		{input: "based in berlin ,germany", want: "Berlin, Germany", wantOK: true},
		{input: "Frome", want: "Frome", wantOK: true},
		{input: "12345", wantOK: false},
		{input: "", wantOK: false},
		{input: "a", wantOK: false},
		{input: "NYC #1", wantOK: false},
	}

	for _, tt := range tests {
		got, ok := Location(tt.input)
		if ok != tt.wantOK {
			t.Fatalf("Location(%q) ok = %v, want %v (got %q)", tt.input, ok, tt.wantOK, got)
		}
		if ok && got != tt.want {
			t.Fatalf("Location(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEducation(t *testing.T) {
	t.Parallel()

	if got, ok := Education("computer   science"); !ok || got != "Computer Science" {
		t.Fatalf("Education() = %q, %v", got, ok)
	}
	if got, ok := Education("bootcamp grad"); !ok || got != "Bootcamp Grad" {
		t.Fatalf("Education() = %q, %v", got, ok)
	}
	if _, ok := Education(" cs "); ok {
		t.Fatal("expected two-character education to be rejected")
	}
}
