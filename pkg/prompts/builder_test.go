package prompts

import (
	"strings"
	"testing"
)

func TestBuildScenePlan(t *testing.T) {
	b := Builder{}

	tests := []struct {
		name     string
		params   ScenePlanParams
		contains []string
		absent   []string
	}{
		{
			name: "range with keywords",
			params: ScenePlanParams{
				Script:           "A lighthouse at dawn",
				StyleName:        "Cinematic",
				StyleDescription: "Professional film-like quality with dramatic lighting",
				Keywords:         []string{"ocean", "fog"},
				NegativeKeywords: []string{"people"},
				MinScenes:        5,
				MaxScenes:        7,
			},
			contains: []string{
				"generate exactly 5-7 detailed image prompts",
				"Script:\nA lighthouse at dawn",
				"Visual Style: Cinematic",
				"Additional Keywords: ocean, fog",
				"Avoid: people",
				"Return ONLY a JSON array of strings",
			},
		},
		{
			name: "blank keywords are dropped",
			params: ScenePlanParams{
				Script:    "x",
				Keywords:  []string{" ", "sun", ""},
				MinScenes: 5,
				MaxScenes: 7,
			},
			contains: []string{"Additional Keywords: sun\n", "Avoid: \n"},
		},
		{
			name: "fixed count",
			params: ScenePlanParams{
				Script:    "x",
				MinScenes: 6,
				MaxScenes: 6,
			},
			contains: []string{"generate exactly 6 detailed", "1. Create 6 prompts"},
			absent:   []string{"6-6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.BuildScenePlan(tt.params)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("BuildScenePlan() missing %q\ngot:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(got, unwanted) {
					t.Errorf("BuildScenePlan() unexpectedly contains %q", unwanted)
				}
			}
		})
	}
}

func TestBuildPromptRanking(t *testing.T) {
	b := Builder{}
	got := b.BuildPromptRanking("story", []string{"first", "second", "third"})

	for _, want := range []string{"Script:\nstory", "1. first\n", "2. second\n", "3. third\n", "(1-3)"} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildPromptRanking() missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestBuildNarration(t *testing.T) {
	b := Builder{}
	got := b.BuildNarration("NARRATOR: Hello there.")

	if !strings.HasSuffix(got, "Script:\nNARRATOR: Hello there.") {
		t.Errorf("BuildNarration() should end with the script, got:\n%s", got)
	}
}
