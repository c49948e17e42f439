package builder

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/hpungsan/studio/internal/errors"
	"github.com/hpungsan/studio/internal/logging"
	"github.com/hpungsan/studio/internal/model"
)

// Suggestion length bounds, in characters.
const (
	MinCharLimit     = 50
	MaxCharLimit     = 500
	DefaultCharLimit = 200
)

// SuggestInput contains parameters for Suggest.
type SuggestInput struct {
	Text         string   `json:"text,omitempty"` // current copy, optional
	BusinessName string   `json:"business_name"`
	BusinessType string   `json:"business_type"`
	Services     []string `json:"services,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	Tone         string   `json:"tone,omitempty"`       // default: professional
	CharLimit    int      `json:"char_limit,omitempty"` // default: 200
}

// SuggestOutput is the result of Suggest.
type SuggestOutput struct {
	Suggestion   string `json:"suggestion"`
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	Tone         string `json:"tone"`
}

// Suggester writes one line of marketing copy for a business.
type Suggester interface {
	Suggest(ctx context.Context, in SuggestInput) (string, error)
}

func validTone(t string) bool {
	for _, v := range model.Tones {
		if v == t {
			return true
		}
	}
	return false
}

// normalize applies defaults and validates in.
func (in SuggestInput) normalize() (SuggestInput, error) {
	fields := map[string][]string{}
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.BusinessType = strings.TrimSpace(in.BusinessType)
	if in.BusinessName == "" {
		fields["business_name"] = []string{requiredMessage}
	} else if len(in.BusinessName) > maxBusinessNameLen {
		fields["business_name"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", maxBusinessNameLen)}
	}
	if in.BusinessType == "" {
		fields["business_type"] = []string{requiredMessage}
	} else if len(in.BusinessType) > maxBusinessTypeLen {
		fields["business_type"] = []string{fmt.Sprintf("Ensure this field has no more than %d characters.", maxBusinessTypeLen)}
	}

	in.Tone = strings.ToLower(strings.TrimSpace(in.Tone))
	if in.Tone == "" {
		in.Tone = model.DefaultTone
	}
	if !validTone(in.Tone) {
		fields["tone"] = []string{fmt.Sprintf("%q is not a valid choice.", in.Tone)}
	}

	switch {
	case in.CharLimit == 0:
		in.CharLimit = DefaultCharLimit
	case in.CharLimit < MinCharLimit:
		fields["char_limit"] = []string{fmt.Sprintf("Ensure this value is greater than or equal to %d.", MinCharLimit)}
	case in.CharLimit > MaxCharLimit:
		fields["char_limit"] = []string{fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxCharLimit)}
	}

	if len(fields) > 0 {
		return in, errors.NewValidation(fields)
	}
	return in, nil
}

// Suggest validates in, asks s for copy and trims it to the character limit.
func Suggest(ctx context.Context, s Suggester, in SuggestInput) (*SuggestOutput, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	text, err := s.Suggest(ctx, in)
	if err != nil {
		return nil, err
	}
	return &SuggestOutput{
		Suggestion:   truncate(strings.TrimSpace(text), in.CharLimit),
		BusinessName: in.BusinessName,
		BusinessType: in.BusinessType,
		Tone:         in.Tone,
	}, nil
}

// truncate cuts s to limit characters, ending in "..." when shortened.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// TemplateSuggester picks from fixed phrasings per tone. It needs no
// network and is the fallback for model-backed suggesters.
type TemplateSuggester struct {
	// Intn returns a number in [0, n). Nil uses math/rand.
	Intn func(n int) int
}

var toneTemplates = map[string][]string{
	"professional": {
		"%[1]s provides exceptional %[2]s services to help you achieve your goals.",
		"At %[1]s, we specialize in delivering high-quality %[2]s solutions.",
		"Trust %[1]s for reliable and professional %[2]s expertise.",
	},
	"friendly": {
		"Welcome to %[1]s! We're passionate about providing great %[2]s services.",
		"Hi there! %[1]s is here to make your %[2]s experience amazing.",
		"At %[1]s, we love helping people with our %[2]s services!",
	},
	"modern": {
		"%[1]s - innovative %[2]s solutions for today's challenges.",
		"Experience next-level %[2]s services with %[1]s.",
		"Cutting-edge %[2]s expertise from %[1]s.",
	},
}

// serviceTemplates take the business name and up to three services.
var serviceTemplates = []string{
	"%[1]s offers %[2]s and more to serve your needs.",
	"Discover our %[2]s services at %[1]s.",
}

// Candidates returns every phrasing the suggester may choose for in.
func (t TemplateSuggester) Candidates(in SuggestInput) []string {
	tpls, ok := toneTemplates[in.Tone]
	if !ok {
		tpls = toneTemplates[model.DefaultTone]
	}
	out := make([]string, 0, len(tpls)+len(serviceTemplates))
	for _, tpl := range tpls {
		out = append(out, fmt.Sprintf(tpl, in.BusinessName, in.BusinessType))
	}
	if len(in.Services) > 0 {
		services := in.Services
		if len(services) > 3 {
			services = services[:3]
		}
		joined := strings.Join(services, ", ")
		for _, tpl := range serviceTemplates {
			out = append(out, fmt.Sprintf(tpl, in.BusinessName, joined))
		}
	}
	return out
}

// Suggest implements Suggester.
func (t TemplateSuggester) Suggest(_ context.Context, in SuggestInput) (string, error) {
	c := t.Candidates(in)
	intn := t.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return c[intn(len(c))], nil
}

// fallbackSuggester tries primary and uses fallback when it fails.
type fallbackSuggester struct {
	primary  Suggester
	fallback Suggester
	logger   *slog.Logger
}

func (f fallbackSuggester) Suggest(ctx context.Context, in SuggestInput) (string, error) {
	text, err := f.primary.Suggest(ctx, in)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		logging.OrDiscard(f.logger).Warn("suggest.fallback", "error", err)
	}
	return f.fallback.Suggest(ctx, in)
}

// WithFallback returns a Suggester that uses fallback whenever primary
// errors or returns blank text.
func WithFallback(primary, fallback Suggester, logger *slog.Logger) Suggester {
	return fallbackSuggester{primary: primary, fallback: fallback, logger: logger}
}
