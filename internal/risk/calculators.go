// Package risk converts a student's academic, financial and behavioral
// attributes into a dropout-risk score and level.
//
// The six calculators are pure step or additive functions. Their
// breakpoints and constants are fixed; changing any of them changes the
// scores stored for every student.
package risk

// AttendanceRisk maps an attendance percentage (0–100) to a risk
// contribution. The result never increases as attendance increases.
func AttendanceRisk(attendance float64) float64 {
	switch {
	case attendance >= 90:
		return 0.1
	case attendance >= 80:
		return 0.3
	case attendance >= 70:
		return 0.5
	case attendance >= 60:
		return 0.7
	default:
		return 0.9
	}
}

// AcademicRisk maps the mean of CGPA and SGPA (both 0–10) to a risk contribution.
func AcademicRisk(cgpa, sgpa float64) float64 {
	avg := (cgpa + sgpa) / 2
	switch {
	case avg >= 8.0:
		return 0.1
	case avg >= 7.0:
		return 0.2
	case avg >= 6.0:
		return 0.4
	case avg >= 5.0:
		return 0.6
	default:
		return 0.8
	}
}

// FinancialRisk sums fee default, missing scholarship and low family
// income contributions, capped at 1. An unknown income adds nothing.
func FinancialRisk(feeDefault, scholarship bool, familyIncome *float64) float64 {
	r := 0.0
	if feeDefault {
		r += 0.6
	}
	if !scholarship {
		r += 0.2
	}
	if familyIncome != nil {
		switch {
		case *familyIncome < 200000:
			r += 0.3
		case *familyIncome < 500000:
			r += 0.1
		}
	}
	return clamp(r)
}

// BehavioralRisk maps the number of disciplinary actions to a risk contribution.
func BehavioralRisk(disciplinaryActions int) float64 {
	switch {
	case disciplinaryActions <= 0:
		return 0.1
	case disciplinaryActions == 1:
		return 0.4
	case disciplinaryActions == 2:
		return 0.6
	default:
		return 0.8
	}
}

// EngagementRisk maps extracurricular participation to a risk
// contribution; fewer activities means higher risk.
func EngagementRisk(extracurriculars int) float64 {
	switch {
	case extracurriculars >= 3:
		return 0.1
	case extracurriculars >= 2:
		return 0.2
	case extracurriculars >= 1:
		return 0.3
	default:
		return 0.5
	}
}

// DemographicRisk sums distance, hostel, education gap and late-semester
// contributions, capped at 1. An unknown distance adds nothing.
func DemographicRisk(distanceFromHome *float64, hostel, educationGap bool, semester int) float64 {
	r := 0.0
	if distanceFromHome != nil && *distanceFromHome > 500 {
		r += 0.2
	}
	if hostel {
		r += 0.1
	}
	if educationGap {
		r += 0.3
	}
	if semester > 6 {
		r += 0.1
	}
	return clamp(r)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
