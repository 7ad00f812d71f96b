package service

import (
	"strings"
	"testing"

	"github.com/digkill/thumblify/internal/models"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(GenerateRequest{
		Title:       "Budget travel in Goa",
		Prompt:      "a backpacker on a beach ",
		Style:       models.StyleMinimalist,
		AspectRatio: "1:1",
		ColorScheme: models.ColorOcean,
		TextOverlay: true,
	})
	want := `Create a minimalist thumbnail, clean layout, simple shapes, limited color palette, plenty of negative space, modern flat design, clear focal point for: "Budget travel in Goa"` +
		` Use a cool blue and teal tones, aquatic color palette, fresh and clean atmosphere color scheme.` +
		` Additional details: a backpacker on a beach.` +
		` Render the title as large, legible text overlay.` +
		` The thumbnail should be 1:1, visually stunning, and designed to maximize click-through rate. Make it bold, professional, and impossible to ignore.`
	if got != want {
		t.Fatalf("prompt mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildPromptOptionalParts(t *testing.T) {
	got := BuildPrompt(GenerateRequest{Title: "x", Style: models.StyleIllustrated})
	for _, part := range []string{"Use a", "Additional details", "text overlay"} {
		if strings.Contains(got, part) {
			t.Fatalf("unexpected %q in %s", part, got)
		}
	}
	if !strings.Contains(got, "should be 16:9,") {
		t.Fatalf("default aspect ratio missing: %s", got)
	}
}

func TestPresetValidation(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
		fn   func(string) bool
		in   string
	}{
		{"style", true, IsValidStyle, "Tech/Futuristic"},
		{"unknown style", false, IsValidStyle, "tech/futuristic"},
		{"color", true, IsValidColorScheme, "pastel"},
		{"unknown color", false, IsValidColorScheme, "rainbow"},
		{"aspect", true, IsValidAspectRatio, "9:16"},
		{"unknown aspect", false, IsValidAspectRatio, "21:9"},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.ok {
			t.Errorf("%s: %q -> %v, want %v", tc.name, tc.in, got, tc.ok)
		}
	}
}

func TestPlanCatalogue(t *testing.T) {
	plans := NewPlanService()
	if len(plans.List()) != 6 {
		t.Fatalf("expected 6 plans, got %d", len(plans.List()))
	}
	pro, ok := plans.Get("Pro")
	if !ok || pro.Credits != 5000 || pro.AmountMinorUnits() != 1990000 {
		t.Fatalf("unexpected Pro plan %+v", pro)
	}
	if free, _ := plans.Get("Free"); !free.IsFree() {
		t.Fatal("Free plan should be free")
	}
	if _, ok := plans.Get("free"); ok {
		t.Fatal("plan ids are case sensitive")
	}
}
