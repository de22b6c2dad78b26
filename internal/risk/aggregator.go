package risk

import "math"

// Level is the discretized risk category stored alongside the score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Lower bounds (inclusive) of the medium and high bands.
const (
	HighThreshold   = 0.70
	MediumThreshold = 0.40
)

// Category weights. They sum to 1.
const (
	WeightAttendance  = 0.25
	WeightAcademic    = 0.20
	WeightFinancial   = 0.15
	WeightBehavioral  = 0.15
	WeightEngagement  = 0.10
	WeightDemographic = 0.15
)

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Input holds the attributes the calculators read.
// FamilyIncome and DistanceFromHome are nil when unknown.
type Input struct {
	AttendancePercentage      float64
	CGPA                      float64
	SGPA                      float64
	Semester                  int
	FeeDefault                bool
	Scholarship               bool
	DisciplinaryActions       int
	ExtracurricularActivities int
	FamilyIncome              *float64
	DistanceFromHome          *float64
	HostelAccommodation       bool
	PreviousEducationGap      bool
}

// Factors is the reported per-category breakdown persisted as
// prediction_factors. Demographic risk feeds the score but is not reported.
type Factors struct {
	AttendanceImpact float64 `json:"attendance_impact"`
	AcademicImpact   float64 `json:"academic_impact"`
	FinancialImpact  float64 `json:"financial_impact"`
	BehavioralImpact float64 `json:"behavioral_impact"`
	EngagementImpact float64 `json:"engagement_impact"`
}

// Assessment is the aggregator output for one student.
type Assessment struct {
	Score   float64 `json:"risk_score"`
	Level   Level   `json:"risk_level"`
	Factors Factors `json:"prediction_factors"`
}

// Assess runs the six calculators and combines them into a weighted
// score rounded to two decimals, its level and the factor breakdown.
func Assess(in Input) Assessment {
	attendance := AttendanceRisk(in.AttendancePercentage)
	academic := AcademicRisk(in.CGPA, in.SGPA)
	financial := FinancialRisk(in.FeeDefault, in.Scholarship, in.FamilyIncome)
	behavioral := BehavioralRisk(in.DisciplinaryActions)
	engagement := EngagementRisk(in.ExtracurricularActivities)
	demographic := DemographicRisk(in.DistanceFromHome, in.HostelAccommodation, in.PreviousEducationGap, in.Semester)

	score := round2(clamp(
		attendance*WeightAttendance +
			academic*WeightAcademic +
			financial*WeightFinancial +
			behavioral*WeightBehavioral +
			engagement*WeightEngagement +
			demographic*WeightDemographic,
	))

	return Assessment{
		Score: score,
		Level: LevelFor(score),
		Factors: Factors{
			AttendanceImpact: round2(attendance),
			AcademicImpact:   round2(academic),
			FinancialImpact:  round2(financial),
			BehavioralImpact: round2(behavioral),
			EngagementImpact: round2(engagement),
		},
	}
}

// LevelFor discretizes a score. Each band includes its lower bound.
func LevelFor(score float64) Level {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// round2 rounds half away from zero on the 100-scaled value.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
