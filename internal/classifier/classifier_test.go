package classifier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// mockGenerator is a hand-written ContentGenerator.
type mockGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.GenerateContentFunc(ctx, model, contents, config)
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: s}}}},
		},
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "success", errs: []error{nil}, wantCalls: 1},
		{name: "timeout then success", errs: []error{ErrTimeout, nil}, wantCalls: 2},
		{name: "two timeouts", errs: []error{ErrTimeout, ErrTimeout}, wantCalls: 2, wantErr: ErrTimeout},
		{name: "cancel never retried", errs: []error{ErrCancelled}, wantCalls: 1, wantErr: ErrCancelled},
		{name: "other error not retried", errs: []error{errors.New("boom")}, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			inner := Func(func(ctx context.Context, text string, labels []string, model string) (*Result, error) {
				err := tt.errs[calls]
				calls++
				if err != nil {
					return nil, err
				}
				return &Result{Labels: []string{"Tax"}, Scores: []float64{1}}, nil
			})

			_, err := WithRetry(inner, DefaultRetries).Classify(context.Background(), "x", nil, "")
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.errs[len(tt.errs)-1] == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGenAIClassifier_Classify(t *testing.T) {
	var gotModel string
	gen := &mockGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotModel = model
			return textResponse("```json\n{\"labels\": [\"Made Up\", \"Shopping\", \"Food & Drink\"], \"scores\": [0.5, 0.2, 0.3]}\n```"), nil
		},
	}

	c := NewGenAIClassifierWithModels(gen, "")
	res, err := c.Classify(context.Background(), "Myntra order", CandidateLabels, "")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if gotModel != DefaultGenAIModel {
		t.Errorf("model = %q, want default", gotModel)
	}
	if len(res.Labels) != 2 || res.Labels[0] != "Food & Drink" || res.Labels[1] != "Shopping" {
		t.Errorf("unexpected ranking %v / %v", res.Labels, res.Scores)
	}
}

func TestGenAIClassifier_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
	}{
		{name: "api error", err: fmt.Errorf("quota")},
		{name: "empty", resp: &genai.GenerateContentResponse{}},
		{name: "not json", resp: textResponse("I think it's food")},
		{name: "no candidates", resp: textResponse(`{"labels": ["Nope"], "scores": [1]}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{
				GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
					return tt.resp, tt.err
				},
			}
			if _, err := NewGenAIClassifierWithModels(gen, "m").Classify(context.Background(), "x", CandidateLabels, ""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBayesClassifier(t *testing.T) {
	history := []domain.Transaction{
		{Description: "Dmart groceries", Category: domain.GroceryShopping, Type: domain.Debit},
		{Description: "Ratnadeep groceries veg", Category: domain.GroceryShopping, Type: domain.Debit},
		{Description: "Swiggy dinner order", Category: domain.OutsideFood, Type: domain.Debit},
		{Description: "Zomato lunch order", Category: domain.OutsideFood, Type: domain.Debit},
		{Description: "Salary", Category: domain.Income, Type: domain.Credit},
		{Description: "Mystery", Category: domain.Uncategorized, Type: domain.Debit},
	}

	b := NewBayesClassifier()
	if _, err := b.Classify(context.Background(), "x", nil, ""); err == nil {
		t.Error("untrained classifier should fail")
	}
	if err := b.Train(history[:2]); err == nil {
		t.Error("training with one category should fail")
	}
	if err := b.Train(history); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	res, err := b.Classify(context.Background(), "swiggy order 450", CategoryLabels(), "")
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	label, score, _ := res.Top()
	if label != string(domain.OutsideFood) {
		t.Errorf("top = %s (%v), want Outside Food", label, score)
	}
	var sum float64
	for _, s := range res.Scores {
		sum += s
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("scores should sum to 1, got %v", sum)
	}

	if _, err := b.Classify(context.Background(), "swiggy", []string{"Tax"}, ""); err == nil {
		t.Error("expected error when no class survives the label filter")
	}
}

func TestTerms(t *testing.T) {
	got := Terms("UPI-Swiggy*Order 1234, Hyd")
	want := []string{"upi", "swiggy", "order", "hyd"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}

func TestLabelCategory(t *testing.T) {
	tests := []struct {
		label string
		want  domain.Category
		ok    bool
	}{
		{"Transport", domain.Commute, true},
		{"Bills", domain.BillsUtilities, true},
		{"Health", domain.HealthWellness, true},
		{"Salary", domain.Income, true},
		{"Food & Drink", domain.FoodAndDrink, true},
		{"Tax", domain.Tax, true},
		{"Transfer", "", false},
		{"Uncategorized", "", false},
	}
	for _, tt := range tests {
		got, ok := LabelCategory(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LabelCategory(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRefine(t *testing.T) {
	drafts := []domain.Transaction{
		{ID: "1", Description: "Myntra", Category: domain.Uncategorized, Type: domain.Debit, Confidence: 0.5},
		{ID: "2", Description: "Dmart", Category: domain.GroceryShopping, Type: domain.Debit, Confidence: 0.9},
		{ID: "3", Description: "Bonus", Category: domain.Uncategorized, Type: domain.Credit},
		{ID: "4", Description: "Weird", Category: domain.Uncategorized, Type: domain.Debit, Confidence: 0.5},
		{ID: "5", Description: "NEFT to Anu", Category: domain.Uncategorized, Type: domain.Debit, Confidence: 0.5},
		{ID: "6", Description: "Broken", Category: domain.Uncategorized, Type: domain.Debit, Confidence: 0.5},
	}

	answers := map[string]*Result{
		"Myntra":      {Labels: []string{"Shopping"}, Scores: []float64{0.8}},
		"Weird":       {Labels: []string{"Tax"}, Scores: []float64{0.4}},
		"NEFT to Anu": {Labels: []string{"Transfer"}, Scores: []float64{0.9}},
	}
	var asked []string
	c := Func(func(ctx context.Context, text string, labels []string, model string) (*Result, error) {
		asked = append(asked, text)
		if res, ok := answers[text]; ok {
			return res, nil
		}
		return nil, errors.New("worker crashed")
	})

	var progress []int
	n, err := Refine(context.Background(), drafts, c, RefineOptions{
		OnProgress: func(done, total int) { progress = append(progress, done) },
	})
	if err != nil {
		t.Fatalf("Refine failed: %v", err)
	}
	if n != 1 {
		t.Errorf("refined = %d, want 1", n)
	}
	if len(asked) != 4 {
		t.Errorf("asked about %v, only uncategorized debits should be sent", asked)
	}
	if drafts[0].Category != domain.Shopping || drafts[0].Confidence != 0.8 {
		t.Errorf("draft 1 = %s/%v", drafts[0].Category, drafts[0].Confidence)
	}
	if drafts[3].Category != domain.Uncategorized {
		t.Error("a score of exactly 0.4 must not be accepted")
	}
	if drafts[4].Category != domain.Uncategorized {
		t.Error("Transfer must not be applied")
	}
	if len(progress) != len(drafts) || progress[len(progress)-1] != len(drafts) {
		t.Errorf("unexpected progress %v", progress)
	}
}

func TestRefine_CancelStopsLoop(t *testing.T) {
	drafts := []domain.Transaction{
		{ID: "1", Description: "Myntra", Category: domain.Uncategorized, Type: domain.Debit},
		{ID: "2", Description: "Cancel me", Category: domain.Uncategorized, Type: domain.Debit},
		{ID: "3", Description: "Never asked", Category: domain.Uncategorized, Type: domain.Debit},
	}

	calls := 0
	c := Func(func(ctx context.Context, text string, labels []string, model string) (*Result, error) {
		calls++
		if text == "Cancel me" {
			return nil, ErrCancelled
		}
		return &Result{Labels: []string{"Shopping"}, Scores: []float64{0.9}}, nil
	})

	n, err := Refine(context.Background(), drafts, c, RefineOptions{})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if n != 1 || calls != 2 {
		t.Errorf("refined=%d calls=%d, want 1 and 2", n, calls)
	}
	if drafts[0].Category != domain.Shopping {
		t.Error("already refined draft lost its value")
	}
	if drafts[2].Category != domain.Uncategorized {
		t.Error("unprocessed draft should keep its rule category")
	}
}
