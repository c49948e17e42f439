package builder

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/hpungsan/studio/internal/config"
	"github.com/hpungsan/studio/internal/errors"
)

func first(int) int { return 0 }

func TestSuggest_Defaults(t *testing.T) {
	out, err := Suggest(context.Background(), TemplateSuggester{Intn: first}, SuggestInput{
		BusinessName: "Acme",
		BusinessType: "plumbing",
	})
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	want := "Acme provides exceptional plumbing services to help you achieve your goals."
	if out.Suggestion != want {
		t.Errorf("Suggestion = %q, want %q", out.Suggestion, want)
	}
	if out.Tone != "professional" || out.BusinessName != "Acme" || out.BusinessType != "plumbing" {
		t.Errorf("out = %+v", out)
	}
}

func TestSuggest_ServiceVariants(t *testing.T) {
	in := SuggestInput{
		BusinessName: "Acme",
		BusinessType: "plumbing",
		Tone:         "modern",
		Services:     []string{"Repairs", "Installs", "Inspections", "Emergencies"},
	}
	c := TemplateSuggester{}.Candidates(in)
	if len(c) != 5 {
		t.Fatalf("len(candidates) = %d, want 5", len(c))
	}
	if c[0] != "Acme - innovative plumbing solutions for today's challenges." {
		t.Errorf("c[0] = %q", c[0])
	}
	if c[3] != "Acme offers Repairs, Installs, Inspections and more to serve your needs." {
		t.Errorf("c[3] = %q", c[3])
	}

	last := func(n int) int { return n - 1 }
	out, err := Suggest(context.Background(), TemplateSuggester{Intn: last}, in)
	if err != nil {
		t.Fatal(err)
	}
	if out.Suggestion != "Discover our Repairs, Installs, Inspections services at Acme." {
		t.Errorf("Suggestion = %q", out.Suggestion)
	}
}

func TestSuggest_Truncates(t *testing.T) {
	out, err := Suggest(context.Background(), TemplateSuggester{Intn: first}, SuggestInput{
		BusinessName: "Acme",
		BusinessType: "plumbing",
		CharLimit:    50,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len([]rune(out.Suggestion)) != 50 || !strings.HasSuffix(out.Suggestion, "...") {
		t.Errorf("Suggestion = %q (%d chars)", out.Suggestion, len(out.Suggestion))
	}
	if !strings.HasPrefix(out.Suggestion, "Acme provides exceptional plumbing services to") {
		t.Errorf("Suggestion = %q", out.Suggestion)
	}
}

func TestSuggest_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    SuggestInput
		field string
	}{
		{"missing name", SuggestInput{BusinessType: "x"}, "business_name"},
		{"missing type", SuggestInput{BusinessName: "x"}, "business_type"},
		{"bad tone", SuggestInput{BusinessName: "x", BusinessType: "y", Tone: "sarcastic"}, "tone"},
		{"limit low", SuggestInput{BusinessName: "x", BusinessType: "y", CharLimit: 49}, "char_limit"},
		{"limit high", SuggestInput{BusinessName: "x", BusinessType: "y", CharLimit: 501}, "char_limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Suggest(context.Background(), TemplateSuggester{Intn: first}, tc.in)
			if len(errors.FieldErrors(err)[tc.field]) == 0 {
				t.Errorf("err = %v, want field error on %s", err, tc.field)
			}
		})
	}
}

type fakeModels struct {
	text   string
	err    error
	prompt string
	model  string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
	}, nil
}

func TestGeminiSuggester(t *testing.T) {
	fake := &fakeModels{text: "Acme fixes leaks fast."}
	g := &GeminiSuggester{models: fake, model: "gemini-test"}

	out, err := Suggest(context.Background(), g, SuggestInput{
		BusinessName: "Acme",
		BusinessType: "plumbing",
		Services:     []string{"Repairs"},
		Text:         "We fix pipes",
	})
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if out.Suggestion != "Acme fixes leaks fast." {
		t.Errorf("Suggestion = %q", out.Suggestion)
	}
	if fake.model != "gemini-test" {
		t.Errorf("model = %q", fake.model)
	}
	for _, want := range []string{"Business name: Acme", "Services: Repairs", "Improve this draft: We fix pipes", "under 200 characters"} {
		if !strings.Contains(fake.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, fake.prompt)
		}
	}
}

func TestWithFallback(t *testing.T) {
	in := SuggestInput{BusinessName: "Acme", BusinessType: "plumbing"}
	failing := &GeminiSuggester{models: &fakeModels{err: stderrors.New("quota exceeded")}, model: "m"}
	s := WithFallback(failing, TemplateSuggester{Intn: first}, nil)

	out, err := Suggest(context.Background(), s, in)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if !strings.HasPrefix(out.Suggestion, "Acme provides exceptional") {
		t.Errorf("fallback not used: %q", out.Suggestion)
	}

	blank := &GeminiSuggester{models: &fakeModels{text: "  "}, model: "m"}
	out, _ = Suggest(context.Background(), WithFallback(blank, TemplateSuggester{Intn: first}, nil), in)
	if !strings.HasPrefix(out.Suggestion, "Acme provides exceptional") {
		t.Errorf("blank reply not replaced: %q", out.Suggestion)
	}
}

func TestNewSuggester_NoKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GeminiAPIKey = ""
	s, err := NewSuggester(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(TemplateSuggester); !ok {
		t.Errorf("suggester = %T, want TemplateSuggester", s)
	}
}
