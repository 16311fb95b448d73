package stats

import (
	"sort"

	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
)

// UnassignedDepartment groups employees without a department.
const UnassignedDepartment = "unassigned"

// DepartmentStats is the per-department slice of the rollup. Only employees
// with at least one result contribute to AverageTotal and AtRisk.
type DepartmentStats struct {
	Name         string
	Employees    int
	Tested       int
	AverageTotal float64
	// AtRisk counts latest results graded high by the total rule.
	AtRisk int
}

// ByDepartment groups employees by department and summarises each group's
// latest results. Output is sorted by name.
func ByDepartment(employees []EmployeeHistory) []DepartmentStats {
	employees = mergeByEmployee(employees)
	groups := make(map[string]*DepartmentStats)
	sums := make(map[string]int)

	for _, emp := range employees {
		name := emp.Department
		if name == "" {
			name = UnassignedDepartment
		}
		d, ok := groups[name]
		if !ok {
			d = &DepartmentStats{Name: name}
			groups[name] = d
		}
		d.Employees++

		latest, ok := Latest(emp.Results)
		if !ok {
			continue
		}
		d.Tested++
		sums[name] += latest.TotalScore
		if scoring.ClassifyByTotal(latest.TotalScore) == scoring.RiskHigh {
			d.AtRisk++
		}
	}

	out := make([]DepartmentStats, 0, len(groups))
	for name, d := range groups {
		if d.Tested > 0 {
			d.AverageTotal = float64(sums[name]) / float64(d.Tested)
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
