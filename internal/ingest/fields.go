package ingest

import (
	"fmt"
	"strings"
)

// Field is a canonical student attribute an upload column can map to.
type Field string

const (
	FieldStudentID            Field = "student_id"
	FieldName                 Field = "name"
	FieldEmail                Field = "email"
	FieldPhone                Field = "phone"
	FieldGender               Field = "gender"
	FieldDateOfBirth          Field = "date_of_birth"
	FieldDepartment           Field = "department"
	FieldSemester             Field = "semester"
	FieldAttendance           Field = "attendance_percentage"
	FieldCGPA                 Field = "cgpa"
	FieldSGPA                 Field = "sgpa"
	FieldFeeDefault           Field = "fee_default"
	FieldScholarship          Field = "scholarship"
	FieldDisciplinaryActions  Field = "disciplinary_actions"
	FieldExtracurriculars     Field = "extracurricular_activities"
	FieldFamilyIncome         Field = "family_income"
	FieldDistanceFromHome     Field = "distance_from_home"
	FieldHostelAccommodation  Field = "hostel_accommodation"
	FieldPreviousEducationGap Field = "previous_education_gap"
)

// headerSynonyms lists the two accepted spellings for every field.
var headerSynonyms = []struct {
	field     Field
	spellings [2]string
}{
	{FieldStudentID, [2]string{"student_id", "studentid"}},
	{FieldName, [2]string{"name", "full_name"}},
	{FieldEmail, [2]string{"email", "email_address"}},
	{FieldPhone, [2]string{"phone", "phone_number"}},
	{FieldGender, [2]string{"gender", "sex"}},
	{FieldDateOfBirth, [2]string{"date_of_birth", "dob"}},
	{FieldDepartment, [2]string{"department", "dept"}},
	{FieldSemester, [2]string{"semester", "current_semester"}},
	{FieldAttendance, [2]string{"attendance", "attendance_percentage"}},
	{FieldCGPA, [2]string{"cgpa", "cumulative_gpa"}},
	{FieldSGPA, [2]string{"sgpa", "semester_gpa"}},
	{FieldFeeDefault, [2]string{"fee_default", "fees_defaulted"}},
	{FieldScholarship, [2]string{"scholarship", "has_scholarship"}},
	{FieldDisciplinaryActions, [2]string{"disciplinary_actions", "disciplinary"}},
	{FieldExtracurriculars, [2]string{"extracurricular_activities", "extracurriculars"}},
	{FieldFamilyIncome, [2]string{"family_income", "income"}},
	{FieldDistanceFromHome, [2]string{"distance_from_home", "distance"}},
	{FieldHostelAccommodation, [2]string{"hostel_accommodation", "hostel"}},
	{FieldPreviousEducationGap, [2]string{"previous_education_gap", "education_gap"}},
}

// headerAliases maps a normalized header spelling to its field.
var headerAliases = mustBuildAliases()

func mustBuildAliases() map[string]Field {
	aliases, err := buildAliases()
	if err != nil {
		panic(err)
	}
	return aliases
}

// buildAliases rejects empty, non-normalized or duplicated spellings.
func buildAliases() (map[string]Field, error) {
	aliases := make(map[string]Field, len(headerSynonyms)*2)
	seen := make(map[Field]bool, len(headerSynonyms))
	for _, s := range headerSynonyms {
		if seen[s.field] {
			return nil, fmt.Errorf("ingest: field %q declared twice", s.field)
		}
		seen[s.field] = true
		for _, spelling := range s.spellings {
			if spelling == "" || spelling != normalizeHeader(spelling) {
				return nil, fmt.Errorf("ingest: spelling %q for %q is not normalized", spelling, s.field)
			}
			if other, dup := aliases[spelling]; dup {
				return nil, fmt.Errorf("ingest: spelling %q maps to both %q and %q", spelling, other, s.field)
			}
			aliases[spelling] = s.field
		}
	}
	return aliases, nil
}

// LookupHeader resolves a raw header cell. Matching ignores case and
// surrounding whitespace; inner spaces and dashes count as underscores.
func LookupHeader(raw string) (Field, bool) {
	f, ok := headerAliases[normalizeHeader(raw)]
	return f, ok
}

func normalizeHeader(raw string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}
