// Package insight generates structured, citation-backed insights for a cat
// from its recent sightings. The current generator is a deterministic
// template engine — an explicit seam for a future generative model. The
// cache key scheme (cat, mode, prompt version, context hash) lives in the
// service layer and stays stable if this implementation is swapped.
package insight

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/florianhoeppner/catatlas-backend/internal/analyze"
	"github.com/florianhoeppner/catatlas-backend/internal/domain"
)

// PromptVersion tags generated insights; bump when the generation template
// changes in a way that should invalidate cached rows.
const PromptVersion = "v1"

// Insight modes. Each selects a different suggested-action template set.
const (
	ModeProfile = "profile"
	ModeCare    = "care"
	ModeUpdate  = "update"
	ModeRisk    = "risk"
)

const (
	maxFlags     = 8
	maxCitations = 5
	tagCount     = 8
)

// ValidMode reports whether mode names a known insight mode.
func ValidMode(mode string) bool {
	switch mode {
	case ModeProfile, ModeCare, ModeUpdate, ModeRisk:
		return true
	}
	return false
}

// Citation references a sighting used as evidence for an insight.
type Citation struct {
	EntryID   int64     `json:"entry_id"`
	Quote     string    `json:"quote"`
	Location  *string   `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Insight is the structured generation result returned to clients and
// persisted verbatim in the cat_insights cache.
type Insight struct {
	CatID            int64      `json:"cat_id"`
	Mode             string     `json:"mode"`
	PromptVersion    string     `json:"prompt_version"`
	Confidence       float64    `json:"confidence"`
	Headline         string     `json:"headline"`
	Summary          string     `json:"summary"`
	Flags            []string   `json:"flags"`
	SuggestedActions []string   `json:"suggested_actions"`
	Citations        []Citation `json:"citations"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

// Generator produces an Insight from a cat's recent sightings. It is a pure
// function of its inputs so implementations can be swapped (template engine
// today, LLM later) without touching the caching scheme.
type Generator interface {
	Generate(catID int64, mode string, sightings []domain.Entry, question string) Insight
}

// flagRules maps note keywords to risk/health/behavior flags. Order matters
// for deterministic output; extend over time.
var flagRules = []struct {
	keyword string
	flag    string
}{
	{"limp", "possible injury (limping mentioned)"},
	{"blood", "possible injury (blood mentioned)"},
	{"wound", "possible injury (wound mentioned)"},
	{"thin", "possible malnutrition (thin mentioned)"},
	{"cough", "possible respiratory issue (cough mentioned)"},
	{"sneeze", "possible respiratory issue (sneezing mentioned)"},
	{"aggressive", "behavior risk (aggressive mentioned)"},
	{"hiss", "behavior risk (hissing mentioned)"},
}

// actionTemplates holds the fixed suggested-action set per mode.
var actionTemplates = map[string][]string{
	ModeCare: {
		"Approach slowly and keep distance; let the cat initiate contact.",
		"Avoid cornering; use calm voice and minimal movement.",
		"If you suspect injury/illness, document symptoms and contact a local rescue/TNR group.",
		"Leave food/water only if safe and allowed in the area.",
	},
	ModeRisk: {
		"Treat this as a suggestion, not a diagnosis.",
		"If repeated sightings show injury/illness, escalate to experienced volunteers.",
		"Capture clear notes and (if possible) a photo for better assessment.",
	},
	ModeUpdate: {
		"Post a short update with location guidance (without encouraging unsafe interactions).",
		"Ask the community for additional sightings at similar times/places.",
	},
	ModeProfile: {
		"Collect consistent notes about coat pattern, tail, ear marks, and behavior.",
		"Try to observe at similar times to learn routine.",
	},
}

// TemplateGenerator is the deterministic baseline Generator.
type TemplateGenerator struct {
	// Now supplies the generation timestamp; defaults to time.Now (UTC).
	Now func() time.Time
}

// NewTemplateGenerator returns a TemplateGenerator using wall-clock time.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{Now: func() time.Time { return time.Now().UTC() }}
}

// Generate builds an Insight via tag/sentiment heuristics over the
// concatenated sighting notes, mode-specific action templates, and a
// conservative confidence estimate.
func (g *TemplateGenerator) Generate(catID int64, mode string, sightings []domain.Entry, question string) Insight {
	now := time.Now().UTC()
	if g.Now != nil {
		now = g.Now()
	}

	var blob strings.Builder
	for _, s := range sightings {
		if s.Text == "" {
			continue
		}
		if blob.Len() > 0 {
			blob.WriteByte('\n')
		}
		blob.WriteString(s.Text)
	}
	notes := blob.String()

	tags := analyze.Tags(notes, tagCount)
	temperament := temperamentLabel(analyze.Sentiment(notes))

	flags := make([]string, 0, maxFlags)
	lower := strings.ToLower(notes)
	for _, rule := range flagRules {
		if strings.Contains(lower, rule.keyword) {
			flags = append(flags, rule.flag)
			if len(flags) == maxFlags {
				break
			}
		}
	}

	actions := actionTemplates[mode]
	if actions == nil {
		actions = actionTemplates[ModeProfile]
	}

	tagList := "none yet"
	if len(tags) > 0 {
		tagList = strings.Join(tags, ", ")
	}
	summary := fmt.Sprintf(
		"Based on %d sighting(s), this cat is currently described as '%s'. Common tags from notes: %s.",
		len(sightings), temperament, tagList,
	)
	if question != "" {
		summary += fmt.Sprintf(" Question noted: “%s”.", question)
	}

	citations := make([]Citation, 0, maxCitations)
	for _, s := range sightings {
		if len(citations) == maxCitations {
			break
		}
		citations = append(citations, Citation{
			EntryID:   s.ID,
			Quote:     analyze.Excerpt(s.Text),
			Location:  s.Location,
			CreatedAt: s.CreatedAt,
		})
	}

	return Insight{
		CatID:            catID,
		Mode:             mode,
		PromptVersion:    PromptVersion,
		Confidence:       confidence(len(sightings)),
		Headline:         fmt.Sprintf("Cat #%d — %s", catID, temperament),
		Summary:          summary,
		Flags:            flags,
		SuggestedActions: actions,
		Citations:        citations,
		GeneratedAt:      now,
	}
}

// temperamentLabel maps classifier sentiment onto domain wording.
func temperamentLabel(sentiment string) string {
	switch sentiment {
	case "positive":
		return "friendly"
	case "negative":
		return "defensive / cautious"
	default:
		return "unknown / neutral"
	}
}

// confidence grows with evidence but stays deliberately conservative:
// min(0.85, 0.35 + 0.08*n), floored at exactly 0.4 for sparse data (n < 2).
func confidence(sightingCount int) float64 {
	c := 0.35 + 0.08*float64(sightingCount)
	if c > 0.85 {
		c = 0.85
	}
	if sightingCount < 2 {
		c = 0.4
	}
	return math.Round(c*100) / 100
}
