// Package prompts builds the instruction texts sent to the text-completion model.
package prompts

import (
	"fmt"
	"strings"
)

// Builder constructs instruction strings.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// ScenePlanParams defines inputs for the scene-prompt instruction.
type ScenePlanParams struct {
	Script           string
	StyleName        string
	StyleDescription string
	Keywords         []string
	NegativeKeywords []string
	MinScenes        int
	MaxScenes        int
}

// BuildScenePlan returns the instruction asking for a JSON array of scene prompts.
func (b Builder) BuildScenePlan(p ScenePlanParams) string {
	count := b.sceneCount(p.MinScenes, p.MaxScenes)

	var sb strings.Builder
	sb.WriteString("You are an expert at breaking down video scripts into visual scenes.\n\n")
	fmt.Fprintf(&sb, "Given the following script, generate exactly %s detailed image prompts that will be used to create visuals for the video.\n\n", count)
	fmt.Fprintf(&sb, "Script:\n%s\n\n", p.Script)
	fmt.Fprintf(&sb, "Visual Style: %s\n", p.StyleName)
	fmt.Fprintf(&sb, "Style Description: %s\n", p.StyleDescription)
	fmt.Fprintf(&sb, "Additional Keywords: %s\n", b.joinList(p.Keywords))
	fmt.Fprintf(&sb, "Avoid: %s\n\n", b.joinList(p.NegativeKeywords))
	sb.WriteString("IMPORTANT SAFETY GUIDELINES:\n")
	sb.WriteString("- Keep all prompts family-friendly and appropriate\n")
	sb.WriteString("- Avoid any violent, disturbing, or controversial content\n")
	sb.WriteString("- Do not include real people, copyrighted characters, or brands\n")
	sb.WriteString("- Keep prompts abstract and artistic\n\n")
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "1. Create %s prompts (one per scene)\n", count)
	sb.WriteString("2. Each prompt should be highly detailed and vivid\n")
	sb.WriteString("3. Make prompts flow sequentially to tell the story\n")
	sb.WriteString("4. Each prompt should be suitable for image generation\n\n")
	sb.WriteString("Return ONLY a JSON array of strings, like this:\n")
	sb.WriteString(`["prompt 1 here", "prompt 2 here", "prompt 3 here", ...]`)
	sb.WriteString("\n\nDo not include any other text or explanation.")
	return sb.String()
}

// BuildPromptRanking returns the instruction asking for the 1-based index of the
// candidate that best represents the script.
func (b Builder) BuildPromptRanking(script string, candidates []string) string {
	var sb strings.Builder
	sb.WriteString("Pick the single image prompt that best captures the opening of this video script.\n\n")
	fmt.Fprintf(&sb, "Script:\n%s\n\n", script)
	sb.WriteString("Candidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}
	fmt.Fprintf(&sb, "\nAnswer with the number of the best candidate (1-%d) and nothing else.", len(candidates))
	return sb.String()
}

// BuildNarration returns the instruction asking for only the spoken lines of a script.
func (b Builder) BuildNarration(script string) string {
	var sb strings.Builder
	sb.WriteString("The following video script mixes spoken narration with stage directions, ")
	sb.WriteString("speaker labels and scene notes.\n")
	sb.WriteString("Return only the words a narrator should speak aloud, in order, as plain text. ")
	sb.WriteString("Drop speaker labels, camera directions and bracketed notes. Do not add anything.\n\n")
	fmt.Fprintf(&sb, "Script:\n%s", script)
	return sb.String()
}

func (b Builder) sceneCount(lo, hi int) string {
	if lo <= 0 || hi <= 0 || lo == hi {
		if hi > 0 {
			return fmt.Sprintf("%d", hi)
		}
		return fmt.Sprintf("%d", lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

func (b Builder) joinList(items []string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ", ")
}
