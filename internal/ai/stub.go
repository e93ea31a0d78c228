package ai

import (
	"context"
	"fmt"
	"strings"
)

// Stub is the deterministic collaborator used when no model endpoint is
// configured and as the fallback path of Client. All methods are pure:
// same input, same output, no I/O.
type Stub struct{}

var _ Collaborator = Stub{}

// sufficientAnswerLen is the minimum rune length for an answer to be
// judged sufficient without a model.
const sufficientAnswerLen = 25

// maxStubDepth is the node level at or beyond which the stub stops
// proposing follow-ups.
const maxStubDepth = 3

// stubBranches are the four top-level themes of the template tree, each
// with two second-level questions.
var stubBranches = []struct {
	title     string
	questions [2]string
}{
	{"Goals & value", [2]string{
		"What is the core problem this project solves?",
		"What measurable outcome would make it a success?",
	}},
	{"Users & scenarios", [2]string{
		"Who is the first target user?",
		"What does one typical usage scenario look like?",
	}},
	{"Scope & priorities", [2]string{
		"What are the three most important capabilities?",
		"Which capabilities belong in the first working version?",
	}},
	{"Execution & resources", [2]string{
		"Which key resources do you already have?",
		"How would you stage the work from here to launch?",
	}},
}

// GenerateTree returns the fixed 4-branch, 2-level template tree:
// one root, four theme branches, two questions per branch (13 entries).
func (Stub) GenerateTree(_ context.Context, ideaText string) []TreeEntry {
	name := projectNameFromIdea(ideaText)

	entries := []TreeEntry{{Level: 0, Title: name, Question: "Project root"}}
	for _, b := range stubBranches {
		root := 0
		branchIdx := len(entries)
		entries = append(entries, TreeEntry{
			Level:       1,
			Title:       b.title,
			Question:    fmt.Sprintf("What is your overall thinking on %q?", b.title),
			ParentIndex: &root,
		})
		for i, q := range b.questions {
			pi := branchIdx
			entries = append(entries, TreeEntry{
				Level:       2,
				Title:       fmt.Sprintf("%s — point %d", b.title, i+1),
				Question:    q,
				ParentIndex: &pi,
			})
		}
	}
	return entries
}

// AnalyzeDraft asks for more detail until the combined user text is
// long enough to name the project, then declares the draft ready.
func (Stub) AnalyzeDraft(_ context.Context, messages []Message) DraftAnalysis {
	var parts []string
	for _, m := range messages {
		if m.Role == "user" {
			parts = append(parts, m.Content)
		}
	}
	userText := strings.TrimSpace(strings.Join(parts, " "))

	if len([]rune(userText)) < 20 {
		return DraftAnalysis{
			NeedMore: true,
			Reply: "Could you say a bit more about the direction of this idea? " +
				"For example: is it mainly about interaction, or about the underlying technology?",
		}
	}

	title := userText
	if len([]rune(title)) > 20 {
		title = string([]rune(title)[:20]) + "…"
	}
	if title == "" {
		title = "Untitled project"
	}
	return DraftAnalysis{
		NeedMore: false,
		Reply:    "The essence of the project is clear — you can move to the workbench.",
		Title:    title,
	}
}

// InitialQuestions returns three fixed opening questions.
func (Stub) InitialQuestions(_ context.Context, _, _ string) []string {
	return []string{
		"What is the core problem or need this project addresses?",
		"Who is the primary user, and in what scenario?",
		"What do you see as the biggest feasibility risk right now?",
	}
}

// JudgeAnswer judges by length: short answers on shallow nodes get two
// generic follow-ups; long answers and deep nodes are sufficient.
func (Stub) JudgeAnswer(_ context.Context, _, _, answer string, level int) Judgment {
	sufficient := len([]rune(strings.TrimSpace(answer))) >= sufficientAnswerLen
	if level >= maxStubDepth || sufficient {
		return Judgment{Sufficient: true}
	}
	return Judgment{
		Sufficient: false,
		Followups: []string{
			"Can you make that more concrete?",
			"What constraints or preconditions should be spelled out?",
		},
	}
}

// TipCandidates returns three generic prompts anchored to the question.
func (Stub) TipCandidates(_ context.Context, _, question, _ string) []string {
	base := strings.TrimSpace(question)
	if base == "" {
		base = "This node"
	}
	return []string{
		base + " — look at how established products in this space handle it.",
		base + " — give one or two concrete examples grounded in your target users.",
		base + " — list the risks or constraints worth stating up front.",
	}
}

// ShortTitle truncates the text to 7 runes.
func (Stub) ShortTitle(_ context.Context, text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return "Node"
	}
	r := []rune(t)
	if len(r) > 7 {
		r = r[:7]
	}
	return string(r)
}

// MergeDocument concatenates the sections under a fixed template.
func (Stub) MergeDocument(_ context.Context, title, ideaText string, sections []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — Project Document\n\n", title)
	b.WriteString("## 1. Original idea\n\n")
	if strings.TrimSpace(ideaText) == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(ideaText + "\n")
	}
	b.WriteString("\n## 2. Question & answer summary\n\n")
	for _, s := range sections {
		b.WriteString(s + "\n")
	}
	b.WriteString("\n## 3. Note\n\n")
	b.WriteString("Assembled without a language model; structure and wording follow the recorded answers verbatim.\n")
	return b.String()
}

// projectNameFromIdea derives a display name from free idea text:
// first 24 runes with an ellipsis when truncated.
func projectNameFromIdea(ideaText string) string {
	cleaned := strings.TrimSpace(ideaText)
	if cleaned == "" {
		return "Your project"
	}
	r := []rune(cleaned)
	if len(r) > 24 {
		return string(r[:24]) + "..."
	}
	return cleaned
}
