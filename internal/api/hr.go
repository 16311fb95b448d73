package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/scoring"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
)

// Individual rows below use the component rule; every aggregate uses the
// total rule through stats.Compute.

// ─── GET /api/hr/employees ────────────────────────────────────────────────────

type employeeRow struct {
	EmployeeID   string        `json:"employee_id"`
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	Email        string        `json:"email,omitempty"`
	Department   string        `json:"department,omitempty"`
	IsAdmin      bool          `json:"is_admin"`
	CreatedAt    time.Time     `json:"created_at"`
	LastLogin    *time.Time    `json:"last_login"`
	TestCount    int64         `json:"test_count"`
	LastTestDate *time.Time    `json:"last_test_date"`
	LatestResult *latestScores `json:"latest_result"`
}

type latestScores struct {
	EmotionalExhaustion    int               `json:"emotional_exhaustion"`
	Depersonalization      int               `json:"depersonalization"`
	PersonalAccomplishment int               `json:"personal_accomplishment"`
	TotalScore             int               `json:"total_score"`
	RiskLevel              scoring.RiskLevel `json:"risk_level"`
}

func toEmployeeRow(u db.ListUsersWithStatsRow) employeeRow {
	row := employeeRow{
		EmployeeID:   u.EmployeeID,
		FirstName:    u.FirstName.String,
		LastName:     u.LastName.String,
		Email:        u.Email.String,
		Department:   u.Department.String,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
		LastLogin:    timePtr(u.LastLogin),
		TestCount:    u.TestCount,
		LastTestDate: timePtr(u.LastTestDate),
	}
	if u.LastTotalScore.Valid {
		ee := int(u.LastEmotionalExhaustion.Int32)
		dp := int(u.LastDepersonalization.Int32)
		row.LatestResult = &latestScores{
			EmotionalExhaustion:    ee,
			Depersonalization:      dp,
			PersonalAccomplishment: int(u.LastPersonalAccomplishment.Int32),
			TotalScore:             int(u.LastTotalScore.Int32),
			RiskLevel:              scoring.ClassifyByComponents(ee, dp),
		}
	}
	return row
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := s.q.ListUsersWithStats(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list employees: %w", err))
		return
	}
	out := make([]employeeRow, len(rows))
	for i, u := range rows {
		out[i] = toEmployeeRow(u)
	}
	respond(w, http.StatusOK, out)
}

// ─── ROLLUP ───────────────────────────────────────────────────────────────────

// rollup loads the histories snapshot and computes statistics over it.
func (s *Server) rollup(r *http.Request) ([]stats.EmployeeHistory, stats.Statistics, error) {
	histories, err := s.store.EmployeeHistories(r.Context())
	if err != nil {
		return nil, stats.Statistics{}, err
	}
	st := stats.Compute(histories, stats.Options{Now: s.now(), RecentWindow: s.cfg.RecentWindow})
	return histories, st, nil
}

// ─── GET /api/hr/risk-distribution ────────────────────────────────────────────

type riskDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

func distributionOf(st stats.Statistics) riskDistribution {
	return riskDistribution{
		High:   st.RiskCounts[scoring.RiskHigh],
		Medium: st.RiskCounts[scoring.RiskMedium],
		Low:    st.RiskCounts[scoring.RiskLow],
	}
}

func (s *Server) handleRiskDistribution(w http.ResponseWriter, r *http.Request) {
	_, st, err := s.rollup(r)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("risk distribution: %w", err))
		return
	}
	respond(w, http.StatusOK, distributionOf(st))
}

// ─── GET /api/hr/statistics ───────────────────────────────────────────────────

type statisticsResponse struct {
	TotalEmployees    int     `json:"total_employees"`
	TestedEmployees   int     `json:"tested_employees"`
	RecentTests       int     `json:"recent_tests"`
	RecentWindowDays  int     `json:"recent_window_days"`
	HighRiskCount     int     `json:"high_risk_count"`
	MediumRiskCount   int     `json:"medium_risk_count"`
	LowRiskCount      int     `json:"low_risk_count"`
	HighRiskPercent   float64 `json:"high_risk_percent"`
	MediumRiskPercent float64 `json:"medium_risk_percent"`
	LowRiskPercent    float64 `json:"low_risk_percent"`
	AverageTotal      float64 `json:"average_total_score"`
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	_, st, err := s.rollup(r)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("statistics: %w", err))
		return
	}

	d := distributionOf(st)
	respond(w, http.StatusOK, statisticsResponse{
		TotalEmployees:    st.TotalEmployees,
		TestedEmployees:   st.Tested,
		RecentTests:       st.RecentTestCount,
		RecentWindowDays:  int(s.cfg.RecentWindow / (24 * time.Hour)),
		HighRiskCount:     d.High,
		MediumRiskCount:   d.Medium,
		LowRiskCount:      d.Low,
		HighRiskPercent:   stats.Percentage(d.High, st.Tested),
		MediumRiskPercent: stats.Percentage(d.Medium, st.Tested),
		LowRiskPercent:    stats.Percentage(d.Low, st.Tested),
		AverageTotal:      st.AverageTotal,
	})
}

// ─── GET /api/hr/departments ──────────────────────────────────────────────────

type departmentRow struct {
	Name      string  `json:"name"`
	Employees int     `json:"employees"`
	Tested    int     `json:"tested"`
	AvgScore  float64 `json:"avg_score"`
	AtRisk    int     `json:"at_risk"`
}

func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	histories, err := s.store.EmployeeHistories(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("departments: %w", err))
		return
	}

	depts := stats.ByDepartment(histories)
	out := make([]departmentRow, len(depts))
	for i, d := range depts {
		out[i] = departmentRow{
			Name:      d.Name,
			Employees: d.Employees,
			Tested:    d.Tested,
			AvgScore:  d.AverageTotal,
			AtRisk:    d.AtRisk,
		}
	}
	respond(w, http.StatusOK, out)
}
