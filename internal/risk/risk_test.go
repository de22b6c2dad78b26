package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAttendanceRisk_Breakpoints(t *testing.T) {
	cases := []struct {
		attendance float64
		want       float64
	}{
		{100, 0.1}, {90, 0.1}, {89.99, 0.3}, {80, 0.3}, {79.9, 0.5},
		{70, 0.5}, {69.9, 0.7}, {60, 0.7}, {59.99, 0.9}, {0, 0.9},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AttendanceRisk(tc.attendance), "attendance=%v", tc.attendance)
	}
}

func TestAttendanceRisk_NonIncreasing(t *testing.T) {
	allowed := map[float64]bool{0.1: true, 0.3: true, 0.5: true, 0.7: true, 0.9: true}
	prev := AttendanceRisk(0)
	for a := 0.0; a <= 100.0; a += 0.25 {
		r := AttendanceRisk(a)
		require.True(t, allowed[r], "unexpected value %v at %v", r, a)
		require.LessOrEqual(t, r, prev, "risk increased at attendance=%v", a)
		prev = r
	}
}

func TestAcademicRisk_UsesMeanOfCGPAAndSGPA(t *testing.T) {
	assert.Equal(t, 0.1, AcademicRisk(8.0, 8.0))
	assert.Equal(t, 0.2, AcademicRisk(7.2, 7.8))
	assert.Equal(t, 0.4, AcademicRisk(5.9, 6.1))
	assert.Equal(t, 0.6, AcademicRisk(5.0, 5.5))
	assert.Equal(t, 0.8, AcademicRisk(4.0, 5.9))
	assert.Equal(t, 0.8, AcademicRisk(0, 0))
}

func TestFinancialRisk(t *testing.T) {
	assert.Equal(t, 0.0, FinancialRisk(false, true, nil))
	assert.Equal(t, 0.2, FinancialRisk(false, false, nil))
	assert.InDelta(t, 0.8, FinancialRisk(true, false, nil), 1e-9)
	assert.InDelta(t, 0.3, FinancialRisk(false, true, ptr(150000)), 1e-9)
	assert.InDelta(t, 0.1, FinancialRisk(false, true, ptr(200000)), 1e-9)
	assert.Equal(t, 0.0, FinancialRisk(false, true, ptr(500000)))

	// 0.6 + 0.2 + 0.3 would exceed the cap.
	assert.Equal(t, 1.0, FinancialRisk(true, false, ptr(1000)))
}

func TestBehavioralRisk(t *testing.T) {
	assert.Equal(t, 0.1, BehavioralRisk(0))
	assert.Equal(t, 0.4, BehavioralRisk(1))
	assert.Equal(t, 0.6, BehavioralRisk(2))
	assert.Equal(t, 0.8, BehavioralRisk(3))
	assert.Equal(t, 0.8, BehavioralRisk(12))
}

func TestEngagementRisk(t *testing.T) {
	assert.Equal(t, 0.5, EngagementRisk(0))
	assert.Equal(t, 0.3, EngagementRisk(1))
	assert.Equal(t, 0.2, EngagementRisk(2))
	assert.Equal(t, 0.1, EngagementRisk(3))
	assert.Equal(t, 0.1, EngagementRisk(9))
}

func TestDemographicRisk(t *testing.T) {
	assert.Equal(t, 0.0, DemographicRisk(nil, false, false, 5))
	assert.Equal(t, 0.0, DemographicRisk(ptr(500), false, false, 6))
	assert.InDelta(t, 0.2, DemographicRisk(ptr(501), false, false, 1), 1e-9)
	assert.InDelta(t, 0.1, DemographicRisk(nil, false, false, 7), 1e-9)
	assert.InDelta(t, 0.7, DemographicRisk(ptr(900), true, true, 8), 1e-9)
}

func TestAdditiveCalculators_StayInUnitInterval(t *testing.T) {
	incomes := []*float64{nil, ptr(0), ptr(199999), ptr(350000), ptr(10e6)}
	distances := []*float64{nil, ptr(0), ptr(500), ptr(501), ptr(5000)}
	bools := []bool{false, true}

	for _, income := range incomes {
		for _, fee := range bools {
			for _, sch := range bools {
				r := FinancialRisk(fee, sch, income)
				assert.GreaterOrEqual(t, r, 0.0)
				assert.LessOrEqual(t, r, 1.0)
			}
		}
	}
	for _, d := range distances {
		for _, hostel := range bools {
			for _, gap := range bools {
				for _, sem := range []int{1, 6, 7, 12} {
					r := DemographicRisk(d, hostel, gap, sem)
					assert.GreaterOrEqual(t, r, 0.0)
					assert.LessOrEqual(t, r, 1.0)
				}
			}
		}
	}
}

func TestAssess_LowRiskStudent(t *testing.T) {
	got := Assess(Input{
		AttendancePercentage:      85.5,
		CGPA:                      7.2,
		SGPA:                      7.8,
		Semester:                  5,
		FeeDefault:                false,
		Scholarship:               true,
		DisciplinaryActions:       0,
		ExtracurricularActivities: 3,
	})

	assert.Equal(t, 0.14, got.Score)
	assert.Equal(t, LevelLow, got.Level)
	assert.Equal(t, Factors{
		AttendanceImpact: 0.3,
		AcademicImpact:   0.2,
		FinancialImpact:  0,
		BehavioralImpact: 0.1,
		EngagementImpact: 0.1,
	}, got.Factors)
}

func TestAssess_MediumRiskStudent(t *testing.T) {
	got := Assess(Input{
		AttendancePercentage:      68.2,
		CGPA:                      5.9,
		SGPA:                      6.1,
		Semester:                  7,
		FeeDefault:                true,
		Scholarship:               false,
		DisciplinaryActions:       2,
		ExtracurricularActivities: 0,
	})

	// 0.7*0.25 + 0.4*0.20 + 0.8*0.15 + 0.6*0.15 + 0.5*0.10 + 0.1*0.15
	assert.Equal(t, 0.53, got.Score)
	assert.Equal(t, LevelMedium, got.Level)
	assert.Equal(t, Factors{
		AttendanceImpact: 0.7,
		AcademicImpact:   0.4,
		FinancialImpact:  0.8,
		BehavioralImpact: 0.6,
		EngagementImpact: 0.5,
	}, got.Factors)
}

func TestAssess_WorstCaseIsHighAndBounded(t *testing.T) {
	got := Assess(Input{
		AttendancePercentage:      10,
		CGPA:                      2,
		SGPA:                      3,
		Semester:                  10,
		FeeDefault:                true,
		Scholarship:               false,
		DisciplinaryActions:       5,
		FamilyIncome:              ptr(1000),
		DistanceFromHome:          ptr(1200),
		HostelAccommodation:       true,
		PreviousEducationGap:      true,
		ExtracurricularActivities: 0,
	})

	assert.Equal(t, LevelHigh, got.Level)
	assert.LessOrEqual(t, got.Score, 1.0)
	assert.GreaterOrEqual(t, got.Score, HighThreshold)
}

func TestAssess_Idempotent(t *testing.T) {
	in := Input{
		AttendancePercentage: 73.4, CGPA: 6.7, SGPA: 5.2, Semester: 3,
		Scholarship: true, DisciplinaryActions: 1, ExtracurricularActivities: 1,
		FamilyIncome: ptr(320000), DistanceFromHome: ptr(620),
	}
	assert.Equal(t, Assess(in), Assess(in))
}

func TestAssess_LevelMatchesScoreBands(t *testing.T) {
	for a := 0.0; a <= 100; a += 10 {
		for d := 0; d <= 3; d++ {
			for e := 0; e <= 3; e++ {
				got := Assess(Input{
					AttendancePercentage: a, CGPA: a / 10, SGPA: a / 12,
					Semester: d + 5, FeeDefault: d%2 == 0, DisciplinaryActions: d,
					ExtracurricularActivities: e,
				})
				require.GreaterOrEqual(t, got.Score, 0.0)
				require.LessOrEqual(t, got.Score, 1.0)
				switch {
				case got.Score >= 0.70:
					require.Equal(t, LevelHigh, got.Level)
				case got.Score >= 0.40:
					require.Equal(t, LevelMedium, got.Level)
				default:
					require.Equal(t, LevelLow, got.Level)
				}
			}
		}
	}
}

func TestLevelFor_Boundaries(t *testing.T) {
	assert.Equal(t, LevelLow, LevelFor(0))
	assert.Equal(t, LevelLow, LevelFor(0.39))
	assert.Equal(t, LevelMedium, LevelFor(0.40))
	assert.Equal(t, LevelMedium, LevelFor(0.69))
	assert.Equal(t, LevelHigh, LevelFor(0.70))
	assert.Equal(t, LevelHigh, LevelFor(1))
}

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightAttendance + WeightAcademic + WeightFinancial + WeightBehavioral + WeightEngagement + WeightDemographic
	assert.InDelta(t, 1.0, sum, 1e-12)
}
