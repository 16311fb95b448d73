package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ─── CONSTANTS ────────────────────────────────────────────────────────────────

// Component rule thresholds. Strictly greater-than on every boundary.
const (
	exhaustionHigh          = 15
	exhaustionMedium        = 10
	depersonalizationHigh   = 10
	depersonalizationMedium = 6
)

// Total rule thresholds.
const (
	totalHigh   = 50
	totalMedium = 30
)

// Sub-scale maxima for the fixed catalog.
const (
	MaxExhaustion        = 30
	MaxDepersonalization = 24
	MaxAccomplishment    = 30
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// RiskLevel is the three-tier classification. String values match the
// risk_level strings used in API responses.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevels lists every level from lowest to highest.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// Result holds the three sub-scale scores and their sum. Accomplishment is
// accumulated after reverse scoring, so a high value means low accomplishment.
type Result struct {
	EmotionalExhaustion    int `json:"emotional_exhaustion"`
	Depersonalization      int `json:"depersonalization"`
	PersonalAccomplishment int `json:"personal_accomplishment"`
	TotalScore             int `json:"total_score"`
}

// ValidationError reports a malformed answer set. Nothing is scored when it
// is returned.
type ValidationError struct {
	// Field is the offending position ("answers[3]"), question ID or
	// "answers" for whole-set problems.
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answers: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ─── SCORING ──────────────────────────────────────────────────────────────────

// Score validates a positional answer set against the embedded catalog and
// computes the sub-scale scores.
func Score(answers []int) (Result, error) {
	return defaultCatalog.Score(answers)
}

// ScoreByID scores answers keyed by stable question ID against the embedded
// catalog.
func ScoreByID(answers map[string]int) (Result, error) {
	return defaultCatalog.ScoreByID(answers)
}

// Score computes the sub-scale scores for a positional answer set. The whole
// set is validated before anything is accumulated.
func (c *Catalog) Score(answers []int) (Result, error) {
	if len(answers) != len(c.Questions) {
		return Result{}, invalid("answers", "got %d answers, want %d", len(answers), len(c.Questions))
	}
	for i, a := range answers {
		if a < MinAnswer || a > MaxAnswer {
			return Result{}, invalid(fmt.Sprintf("answers[%d]", i), "value %d out of range [%d,%d]", a, MinAnswer, MaxAnswer)
		}
	}

	var r Result
	for i, q := range c.Questions {
		v := answers[i]
		if q.ReverseScored {
			v = MaxAnswer - v
		}
		switch q.Category {
		case CategoryExhaustion:
			r.EmotionalExhaustion += v
		case CategoryDepersonalization:
			r.Depersonalization += v
		case CategoryAccomplishment:
			r.PersonalAccomplishment += v
		}
	}
	r.TotalScore = r.EmotionalExhaustion + r.Depersonalization + r.PersonalAccomplishment
	return r, nil
}

// ScoreByID maps ID-keyed answers onto catalog positions and scores them.
// Every catalog question must be answered and no unknown IDs are accepted.
func (c *Catalog) ScoreByID(answers map[string]int) (Result, error) {
	positional, err := c.Positional(answers)
	if err != nil {
		return Result{}, err
	}
	return c.Score(positional)
}

// Positional converts ID-keyed answers into a positional answer set.
func (c *Catalog) Positional(answers map[string]int) ([]int, error) {
	var unknown []string
	for id := range answers {
		if _, ok := c.index[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, invalid("answers", "unknown question ids: %s", strings.Join(unknown, ", "))
	}

	out := make([]int, len(c.Questions))
	for i, q := range c.Questions {
		v, ok := answers[q.ID]
		if !ok {
			return nil, invalid(q.ID, "missing answer")
		}
		out[i] = v
	}
	return out, nil
}

// AnswersFromFloats converts JSON-decoded numbers into an answer set,
// rejecting anything with a fractional part. Range checks are left to Score.
func AnswersFromFloats(values []float64) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, invalid(fmt.Sprintf("answers[%d]", i), "value %v is not an integer", v)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, invalid(fmt.Sprintf("answers[%d]", i), "value %v out of range [%d,%d]", v, MinAnswer, MaxAnswer)
		}
		out[i] = int(v)
	}
	return out, nil
}

// ─── CLASSIFICATION ───────────────────────────────────────────────────────────

// ClassifyByComponents grades an individual result from its exhaustion and
// depersonalization sub-scores. Used wherever a single employee's result is
// shown or acted on.
//
//	High:   ee > 15 or dp > 10
//	Medium: ee > 10 or dp > 6
//	Low:    otherwise
func ClassifyByComponents(ee, dp int) RiskLevel {
	switch {
	case ee > exhaustionHigh || dp > depersonalizationHigh:
		return RiskHigh
	case ee > exhaustionMedium || dp > depersonalizationMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClassifyByTotal grades a result from its total score alone. Used by the
// aggregate HR statistics.
func ClassifyByTotal(total int) RiskLevel {
	switch {
	case total > totalHigh:
		return RiskHigh
	case total > totalMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskByComponents applies ClassifyByComponents to r.
func (r Result) RiskByComponents() RiskLevel {
	return ClassifyByComponents(r.EmotionalExhaustion, r.Depersonalization)
}

// RiskByTotal applies ClassifyByTotal to r.
func (r Result) RiskByTotal() RiskLevel {
	return ClassifyByTotal(r.TotalScore)
}
