// Package stats computes the aggregate HR rollup over employee test
// histories. It is pure: the store loads the histories and the caller
// supplies the clock.
package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// Entry is one persisted test result as seen by the rollup.
type Entry struct {
	TestResultID           uuid.UUID
	EmotionalExhaustion    int
	Depersonalization      int
	PersonalAccomplishment int
	TotalScore             int
	CreatedAt              time.Time
}

// EmployeeHistory is every result of one employee in insertion order.
// Results may be empty.
type EmployeeHistory struct {
	EmployeeID string
	Department string
	Results    []Entry
}

// Options parameterises Compute.
type Options struct {
	// Now is the reference instant for the recent window.
	Now time.Time
	// RecentWindow is the look-back for RecentTestCount, e.g. 7 days.
	RecentWindow time.Duration
}

// Statistics is the rollup result.
type Statistics struct {
	TotalEmployees  int
	RecentTestCount int
	// RiskCounts always holds all three levels, classified by total score.
	RiskCounts map[scoring.RiskLevel]int
	// AverageTotal is the mean latest total score of employees with results.
	AverageTotal float64
	// Tested is the number of employees with at least one result.
	Tested int
}

// Latest returns the most recent entry: maximum CreatedAt, with ties going to
// the later insertion position. ok is false for an empty slice.
func Latest(results []Entry) (latest Entry, ok bool) {
	for i, e := range results {
		if i == 0 || !e.CreatedAt.Before(latest.CreatedAt) {
			latest = e
			ok = true
		}
	}
	return latest, ok
}

// Compute builds the rollup. Histories sharing an EmployeeID are merged
// first, so each employee counts once. Zero employees yield zero counts and a
// fully populated, zeroed RiskCounts map.
func Compute(employees []EmployeeHistory, opts Options) Statistics {
	employees = mergeByEmployee(employees)
	s := Statistics{
		TotalEmployees: len(employees),
		RiskCounts:     make(map[scoring.RiskLevel]int, len(scoring.RiskLevels)),
	}
	for _, lvl := range scoring.RiskLevels {
		s.RiskCounts[lvl] = 0
	}

	cutoff := opts.Now.Add(-opts.RecentWindow)
	sum := 0
	for _, emp := range employees {
		latest, ok := Latest(emp.Results)
		if !ok {
			continue
		}
		s.Tested++
		sum += latest.TotalScore
		s.RiskCounts[scoring.ClassifyByTotal(latest.TotalScore)]++

		if latest.CreatedAt.After(cutoff) && !latest.CreatedAt.After(opts.Now) {
			s.RecentTestCount++
		}
	}
	if s.Tested > 0 {
		s.AverageTotal = float64(sum) / float64(s.Tested)
	}
	return s
}

// Percentage returns count as a share of total in percent, or 0 when total
// is zero.
func Percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// Averages is the mean of each sub-scale over the latest results.
type Averages struct {
	EmotionalExhaustion    float64
	Depersonalization      float64
	PersonalAccomplishment float64
}

// LatestAverages averages the sub-scales of each employee's latest result.
func LatestAverages(employees []EmployeeHistory) Averages {
	employees = mergeByEmployee(employees)
	var a Averages
	n := 0
	for _, emp := range employees {
		latest, ok := Latest(emp.Results)
		if !ok {
			continue
		}
		n++
		a.EmotionalExhaustion += float64(latest.EmotionalExhaustion)
		a.Depersonalization += float64(latest.Depersonalization)
		a.PersonalAccomplishment += float64(latest.PersonalAccomplishment)
	}
	if n == 0 {
		return Averages{}
	}
	a.EmotionalExhaustion /= float64(n)
	a.Depersonalization /= float64(n)
	a.PersonalAccomplishment /= float64(n)
	return a
}

// mergeByEmployee folds histories with the same EmployeeID into the first
// one, appending results in input order. The first non-empty department
// wins. Input without duplicates is returned as is.
func mergeByEmployee(employees []EmployeeHistory) []EmployeeHistory {
	idx := make(map[string]int, len(employees))
	var out []EmployeeHistory
	for i, emp := range employees {
		j, seen := idx[emp.EmployeeID]
		if !seen {
			idx[emp.EmployeeID] = len(idx)
			if out != nil {
				out = append(out, emp)
			}
			continue
		}
		if out == nil {
			out = make([]EmployeeHistory, i, len(employees))
			copy(out, employees[:i])
		}
		merged := &out[j]
		merged.Results = append(append([]Entry(nil), merged.Results...), emp.Results...)
		if merged.Department == "" {
			merged.Department = emp.Department
		}
	}
	if out == nil {
		return employees
	}
	return out
}
