package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the production collaborator: an OpenAI-compatible
// chat-completions endpoint with the Stub as fallback on every path.
type Client struct {
	api     *openai.Client // nil when no endpoint is configured
	model   string
	timeout time.Duration
	stub    Stub
}

var _ Collaborator = (*Client)(nil)

var errNoRemote = errors.New("ai: no remote endpoint configured")

// NewClient builds a Client from config. With an empty base URL or key
// the client never attempts a network call and behaves exactly like
// the Stub.
func NewClient(cfg Config) *Client {
	c := &Client{model: cfg.Model, timeout: cfg.Timeout}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	if cfg.BaseURL != "" && cfg.APIKey != "" {
		oc := openai.DefaultConfig(cfg.APIKey)
		oc.BaseURL = cfg.BaseURL
		c.api = openai.NewClientWithConfig(oc)
	}
	return c
}

// complete runs one single-turn chat completion under a bounded
// timeout. Never called without checking c.api via the error return.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.api == nil {
		return "", errNoRemote
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ai: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateTree asks the model for a 3-level tree as a JSON array and
// validates the structural contract; anything off falls back to the
// template tree.
func (c *Client) GenerateTree(ctx context.Context, ideaText string) []TreeEntry {
	prompt := fmt.Sprintf(`Given the project idea below, produce a mind-map node list up to 3 levels deep.
Output ONLY a JSON array; each element is {"level": 0|1|2|3, "title": "node label", "question": "the question for this node", "parent_index": null or the array index of the parent}.
Exactly one level-0 root (the project name, parent_index null), then 4 level-1 nodes under it, 2 level-2 nodes under each, and 2 level-3 nodes under each of those. Keep the total between 8 and 28 entries.

Project idea:
%s`, truncRunes(ideaText, 2000))

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return c.stub.GenerateTree(ctx, ideaText)
	}

	var raw []TreeEntry
	if err := json.Unmarshal([]byte(extractJSON(content, '[', ']')), &raw); err != nil {
		return c.stub.GenerateTree(ctx, ideaText)
	}
	entries, ok := validateTree(raw)
	if !ok {
		return c.stub.GenerateTree(ctx, ideaText)
	}
	return entries
}

// validateTree enforces the tree contract: 8–28 entries, every
// parent_index referencing an earlier entry, one level-0 root.
func validateTree(raw []TreeEntry) ([]TreeEntry, bool) {
	if len(raw) < minTreeEntries || len(raw) > maxTreeEntries {
		return nil, false
	}
	out := make([]TreeEntry, 0, len(raw))
	for i, e := range raw {
		if e.Level == 0 {
			e.ParentIndex = nil
		}
		if e.Level > 0 && (e.ParentIndex == nil || *e.ParentIndex < 0 || *e.ParentIndex >= i) {
			return nil, false
		}
		if i == 0 && e.Level != 0 {
			return nil, false
		}
		e.Title = strings.TrimSpace(e.Title)
		if e.Title == "" {
			e.Title = fmt.Sprintf("Node %d", i)
		}
		e.Question = truncRunes(strings.TrimSpace(e.Question), maxQuestionLen)
		if e.Question == "" {
			e.Question = e.Title
		}
		out = append(out, e)
	}
	return out, true
}

// AnalyzeDraft runs the clarification turn: either a free-text reply
// asking 1–2 essence-defining questions, or a ready marker with a title.
func (c *Client) AnalyzeDraft(ctx context.Context, messages []Message) DraftAnalysis {
	var conv strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&conv, "%s: %s\n", m.Role, m.Content)
	}

	prompt := fmt.Sprintf(`You are helping a user pin down the ESSENCE of a project idea — what the thing actually is and which direction it takes.

Conversation so far:
%s

This stage only defines the essence. Do not ask about target users, scenarios, or feature details yet; ask only what distinguishes what this thing IS.

Choose one:
A) If the description is still ambiguous, reply with one short paragraph containing 1-2 essence-defining questions. No JSON.
B) If the essence is clear enough to title the project, output ONLY this JSON: {"ready":true,"title":"project title (max 20 chars)"}`,
		truncRunes(conv.String(), 3000))

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return c.stub.AnalyzeDraft(ctx, messages)
	}
	content = stripFences(strings.TrimSpace(content))

	if strings.Contains(content, `"ready"`) {
		var marker struct {
			Ready bool   `json:"ready"`
			Title string `json:"title"`
		}
		if err := json.Unmarshal([]byte(extractJSON(content, '{', '}')), &marker); err == nil && marker.Ready && marker.Title != "" {
			return DraftAnalysis{
				NeedMore: false,
				Reply: "The essence of the project is clear — you can move to the workbench. " +
					"I'll generate a few key questions there based on what we discussed.",
				Title: truncRunes(marker.Title, 24),
			}
		}
	}
	if content == "" {
		return c.stub.AnalyzeDraft(ctx, messages)
	}
	return DraftAnalysis{NeedMore: true, Reply: truncRunes(content, 2000)}
}

// InitialQuestions asks for 2–3 project-specific opening questions.
func (c *Client) InitialQuestions(ctx context.Context, ideaText, title string) []string {
	prompt := fmt.Sprintf(`Project title: %s

The user's description of the clarified project essence:
%s

Produce 2-3 key questions or feasibility challenges for working through this project. This stage MAY cover target users, scenarios, priorities, risks, and competitive differences. One sentence each, specific to this project — no template questions.

Output ONLY a JSON array, e.g. ["question 1", "question 2", "question 3"].`,
		truncRunes(title, 100), truncRunes(ideaText, 2000))

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return c.stub.InitialQuestions(ctx, ideaText, title)
	}

	var arr []string
	if err := json.Unmarshal([]byte(extractJSON(content, '[', ']')), &arr); err != nil {
		return c.stub.InitialQuestions(ctx, ideaText, title)
	}
	out := cleanStrings(arr, 3, maxQuestionLen)
	if len(out) == 0 {
		return c.stub.InitialQuestions(ctx, ideaText, title)
	}
	return out
}

// JudgeAnswer asks for a sufficiency verdict plus up to two follow-ups.
func (c *Client) JudgeAnswer(ctx context.Context, projectIdea, question, answer string, level int) Judgment {
	prompt := fmt.Sprintf(`Project background: %s

Current node question: %s

User answer: %s

Decide whether the answer is clear and complete enough to build on (no key information missing). Then:
1) If sufficient, output ONLY: {"sufficient":true}
2) If it needs depth or has gaps, output ONLY: {"sufficient":false,"followup_questions":["q1","q2"]} with at most 2 short follow-up questions.`,
		truncRunes(projectIdea, 800), truncRunes(question, 400), truncRunes(answer, 1000))

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return c.stub.JudgeAnswer(ctx, projectIdea, question, answer, level)
	}

	var j Judgment
	if err := json.Unmarshal([]byte(extractJSON(content, '{', '}')), &j); err != nil {
		return c.stub.JudgeAnswer(ctx, projectIdea, question, answer, level)
	}
	j.Followups = cleanStrings(j.Followups, 2, maxQuestionLen)
	return j
}

// TipCandidates asks for 2–3 short reference texts, one per line.
func (c *Client) TipCandidates(ctx context.Context, projectIdea, question, latestAnswer string) []string {
	prompt := fmt.Sprintf(`Project background:
%s

Current node question:
%s

User's latest answer:
%s

Write 2-3 short reference tips the user could consult or fold into their thinking for this node. One line per tip, under 100 words each, no bullets or numbering, no JSON, no extra explanation.`,
		truncRunes(projectIdea, 800), truncRunes(question, 400), truncRunes(latestAnswer, 800))

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return c.stub.TipCandidates(ctx, projectIdea, question, latestAnswer)
	}

	var lines []string
	for _, ln := range strings.Split(content, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
		if len(lines) == 3 {
			break
		}
	}
	if len(lines) == 0 {
		return c.stub.TipCandidates(ctx, projectIdea, question, latestAnswer)
	}
	return lines
}

// ShortTitle asks for a label of at most 7 characters; the input's
// first 7 runes on any failure.
func (c *Client) ShortTitle(ctx context.Context, text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return c.stub.ShortTitle(ctx, text)
	}

	prompt := fmt.Sprintf(`Below is one question from a project mind map. Give it a short, descriptive title of at most 7 characters — a noun or noun phrase, no quotes or punctuation. Output only the title.

Question: %s
Title:`, truncRunes(t, 300))

	content, err := c.complete(ctx, prompt)
	if err != nil {
		return c.stub.ShortTitle(ctx, text)
	}
	first := strings.TrimSpace(strings.SplitN(strings.TrimSpace(content), "\n", 2)[0])
	first = strings.Trim(first, "\"'“”‘’《》")
	if first == "" {
		return c.stub.ShortTitle(ctx, text)
	}
	return truncRunes(first, 7)
}

// MergeDocument asks the model to restructure the assembled content
// into one markdown document without altering the user's meaning.
func (c *Client) MergeDocument(ctx context.Context, title, ideaText string, sections []string) string {
	full := fmt.Sprintf("# %s\n\n## Original idea\n\n%s\n\n## Node Q&A summary\n\n%s",
		title, orNone(ideaText), strings.Join(sections, "\n"))

	prompt := fmt.Sprintf(`Merge the following material into one complete project document in Markdown. Keep the user's original meaning; you may improve structure and wording but never fabricate or drop content. Output the whole document directly.

%s`, truncRunes(full, 8000))

	content, err := c.complete(ctx, prompt)
	if err != nil || strings.TrimSpace(content) == "" {
		return c.stub.MergeDocument(ctx, title, ideaText, sections)
	}
	return strings.TrimSpace(content)
}

// ─── Parsing helpers ─────────────────────────────────────────────────────────

// extractJSON slices content from the first open delimiter to the last
// close delimiter, tolerating prose or fences around the JSON body.
func extractJSON(content string, open, shut byte) string {
	content = stripFences(content)
	i := strings.IndexByte(content, open)
	j := strings.LastIndexByte(content, shut)
	if i < 0 || j < i {
		return content
	}
	return content[i : j+1]
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// cleanStrings trims, drops empties, truncates each entry, and caps the
// list length.
func cleanStrings(in []string, maxItems, maxLen int) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		out = append(out, truncRunes(s, maxLen))
		if len(out) == maxItems {
			break
		}
	}
	return out
}

func truncRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
