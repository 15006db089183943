package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGenAIModel is the Gemini model used when the caller passes none.
const DefaultGenAIModel = "gemini-2.5-flash"

// ContentGenerator is the slice of the genai client used here; *genai.Models
// satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIClassifier asks Gemini for a zero-shot ranking of the candidate labels.
type GenAIClassifier struct {
	models       ContentGenerator
	defaultModel string
}

// NewGenAIClassifier creates a Gemini client using the ambient credentials
// (GOOGLE_API_KEY or Vertex AI env vars).
func NewGenAIClassifier(ctx context.Context, defaultModel string) (*GenAIClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIClassifier: create genai client: %w", err)
	}
	return NewGenAIClassifierWithModels(client.Models, defaultModel), nil
}

// NewGenAIClassifierWithModels wires an existing generator, mostly for tests.
func NewGenAIClassifierWithModels(models ContentGenerator, defaultModel string) *GenAIClassifier {
	if defaultModel == "" {
		defaultModel = DefaultGenAIModel
	}
	return &GenAIClassifier{models: models, defaultModel: defaultModel}
}

// Classify implements Classifier. Labels the model invents are dropped.
func (g *GenAIClassifier) Classify(ctx context.Context, text string, labels []string, model string) (*Result, error) {
	if model == "" {
		model = g.defaultModel
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(text, labels)}},
		},
	}

	resp, err := g.models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("GenAIClassifier.Classify: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("GenAIClassifier.Classify: empty response from model")
	}

	var parsed Result
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("GenAIClassifier.Classify: unmarshal JSON: %w\nraw response: %s", err, rawText)
	}

	res := rank(parsed.Labels, parsed.Scores, labels)
	if len(res.Labels) == 0 {
		return nil, fmt.Errorf("GenAIClassifier.Classify: no candidate label in response")
	}
	return res, nil
}

func buildPrompt(text string, labels []string) string {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", l)
	}

	return "You are a zero-shot classifier for household bank transactions.\n\n" +
		"Transaction description: " + fmt.Sprintf("%q", text) + "\n\n" +
		"Candidate labels: [" + strings.Join(quoted, ", ") + "]\n\n" +
		"Rules:\n" +
		"- Score every candidate label between 0 and 1; scores must sum to 1.\n" +
		"- Use only the candidate labels, spelled exactly as given.\n" +
		"- Order labels from most to least likely.\n\n" +
		"Return ONLY raw JSON of the form {\"labels\": [...], \"scores\": [...]}.\n" +
		"Do NOT wrap the response in code fences.\n"
}

// cleanModelJSON strips Markdown fences and any chatter around the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
