package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func collect(t *testing.T, r *Reader) []model.CreateStudentRequest {
	t.Helper()
	var out []model.CreateStudentRequest
	for _, rec := range r.Records() {
		out = append(out, rec)
	}
	require.NoError(t, r.Err())
	return out
}

func TestLookupHeader_BothSpellingsAnyCase(t *testing.T) {
	cases := map[string]Field{
		"Attendance":            FieldAttendance,
		"ATTENDANCE_PERCENTAGE": FieldAttendance,
		" attendance percentage": FieldAttendance,
		"Student-ID":            FieldStudentID,
		"StudentID":             FieldStudentID,
		"Dept":                  FieldDepartment,
		"Hostel":                FieldHostelAccommodation,
		"\ufeffname":            FieldName,
	}
	for raw, want := range cases {
		got, ok := LookupHeader(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := LookupHeader("favourite_colour")
	assert.False(t, ok)
}

func TestBuildAliases_EveryFieldHasTwoSpellings(t *testing.T) {
	aliases, err := buildAliases()
	require.NoError(t, err)
	assert.Len(t, aliases, len(headerSynonyms)*2)
}

func TestNewCSVReader_EmptyInput(t *testing.T) {
	_, err := NewCSVReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = NewCSVReader(strings.NewReader(" , ,\n"))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestRecords_MapsAliasedColumnsAndIgnoresUnknown(t *testing.T) {
	input := "Student_ID,Full_Name,Email,Dept,Semester,Attendance,CGPA,SGPA,Fee_Default,Scholarship,Disciplinary,Extracurriculars,Income,Distance,Hostel,Education_Gap,Gender,Notes\n" +
		"S-001,Asha Rao,ASHA@uni.edu,CSE,5,85.5,7.2,7.8,no,Yes,0,3,,,false,0,Female,likes chess\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.NotContains(t, r.Fields(), Field("notes"))

	rows := collect(t, r)
	require.Len(t, rows, 1)
	got := rows[0]

	assert.Equal(t, "S-001", got.StudentID)
	assert.Equal(t, "Asha Rao", got.Name)
	assert.Equal(t, "asha@uni.edu", got.Email)
	assert.Equal(t, "CSE", got.Department)
	assert.Equal(t, 5, got.Semester)
	assert.Equal(t, 85.5, got.AttendancePercentage)
	assert.Equal(t, 7.2, got.CGPA)
	assert.Equal(t, 7.8, got.SGPA)
	assert.False(t, got.FeeDefault)
	assert.True(t, got.Scholarship)
	assert.Equal(t, 0, got.DisciplinaryActions)
	assert.Equal(t, 3, got.ExtracurricularActivities)
	assert.Nil(t, got.FamilyIncome)
	assert.Nil(t, got.DistanceFromHome)
	assert.False(t, got.HostelAccommodation)
	assert.False(t, got.PreviousEducationGap)
	assert.Equal(t, model.GenderFemale, got.Gender)
	assert.Empty(t, r.Skipped())
}

func TestRecords_DropsRowsMissingRequiredFields(t *testing.T) {
	input := "name,email,student_id,department,attendance\n" +
		",ghost@uni.edu,S-1,CSE,99\n" +
		"Ravi,ravi@uni.edu,S-2,ECE,75\n" +
		"Meena,,S-3,ECE,80\n" +
		"Kiran,kiran@uni.edu,S-4,,80\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	rows := collect(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ravi", rows[0].Name)

	skipped := r.Skipped()
	require.Len(t, skipped, 3)
	assert.Equal(t, 2, skipped[0].Line)
	assert.Contains(t, skipped[0].Reason, "name")
	assert.Contains(t, skipped[1].Reason, "email")
	assert.Contains(t, skipped[2].Reason, "department")
}

func TestRecords_DropsShortRows(t *testing.T) {
	input := "name,email,student_id,department,semester\n" +
		"Short,short@uni.edu,S-1,CSE\n" +
		"Full,full@uni.edu,S-2,CSE,3\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	rows := collect(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "Full", rows[0].Name)
	require.Len(t, r.Skipped(), 1)
	assert.Contains(t, r.Skipped()[0].Reason, "4 fields")
}

func TestRecords_BooleanParsing(t *testing.T) {
	input := "name,email,student_id,department,fee_default,scholarship,hostel,education_gap\n" +
		"A,a@uni.edu,S-1,CSE,Yes,0,TRUE,y\n" +
		"B,b@uni.edu,S-2,CSE,1,no,true,YES\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)
	rows := collect(t, r)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].FeeDefault)
	assert.False(t, rows[0].Scholarship)
	assert.True(t, rows[0].HostelAccommodation)
	assert.False(t, rows[0].PreviousEducationGap)

	assert.True(t, rows[1].FeeDefault)
	assert.False(t, rows[1].Scholarship)
	assert.True(t, rows[1].HostelAccommodation)
	assert.True(t, rows[1].PreviousEducationGap)
}

func TestRecords_NumericFallbackAndGenderCoercion(t *testing.T) {
	input := "name,email,student_id,department,semester,cgpa,attendance,family_income,distance,gender\n" +
		"A,a@uni.edu,S-1,CSE,abc,n/a,90,lots,250,Nonbinary\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)
	rows := collect(t, r)
	require.Len(t, rows, 1)
	got := rows[0]

	assert.Equal(t, 1, got.Semester)
	assert.Equal(t, 0.0, got.CGPA)
	assert.Equal(t, 90.0, got.AttendancePercentage)
	require.NotNil(t, got.FamilyIncome)
	assert.Equal(t, 0.0, *got.FamilyIncome)
	require.NotNil(t, got.DistanceFromHome)
	assert.Equal(t, 250.0, *got.DistanceFromHome)
	assert.Equal(t, model.GenderOther, got.Gender)
}

func TestRecords_YieldsLineNumbers(t *testing.T) {
	input := "name,email,student_id,department\nA,a@uni.edu,S-1,CSE\n,x@uni.edu,S-2,CSE\nC,c@uni.edu,S-3,CSE\n"
	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	var lines []int
	for line := range r.Records() {
		lines = append(lines, line)
	}
	assert.Equal(t, []int{2, 4}, lines)
}

func TestRecords_DropsOutOfRangeRowsAndKeepsNeighbours(t *testing.T) {
	input := "student_id,name,email,department,attendance,cgpa,sgpa,disciplinary,extracurriculars,income,distance\n" +
		"S-1,Ann,ann@uni.edu,CSE,80,7,7,0,1,,\n" +
		"S-2,Bob,bob@uni.edu,CSE,150,85,7,-2,0,-5,\n" +
		"S-3,Cam,cam@uni.edu,CSE,75,6,11,0,-1,,\n" +
		"S-4,Dev,dev@uni.edu,CSE,75,6,6,0,0,,-3\n" +
		"S-5,Eve,eve@uni.edu,CSE,90,8,8,1,2,300000,12\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	rows := collect(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, "S-1", rows[0].StudentID)
	assert.Equal(t, "S-5", rows[1].StudentID)

	skipped := r.Skipped()
	require.Len(t, skipped, 3)
	assert.Equal(t, 3, skipped[0].Line)
	for _, field := range []string{"attendance_percentage", "cgpa", "disciplinary_actions", "family_income"} {
		assert.Contains(t, skipped[0].Reason, field)
	}
	assert.Contains(t, skipped[1].Reason, "sgpa")
	assert.Contains(t, skipped[1].Reason, "extracurricular_activities")
	assert.Contains(t, skipped[2].Reason, "distance_from_home")
}

func TestRecords_NonFiniteNumbersFallBackToZero(t *testing.T) {
	input := "student_id,name,email,department,attendance,cgpa,sgpa,income,disciplinary,semester\n" +
		"S-1,Ann,ann@uni.edu,CSE,NaN,Inf,-Inf,+Infinity,1e30,99999999999\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	rows := collect(t, r)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, 0.0, got.AttendancePercentage)
	assert.Equal(t, 0.0, got.CGPA)
	assert.Equal(t, 0.0, got.SGPA)
	require.NotNil(t, got.FamilyIncome)
	assert.Equal(t, 0.0, *got.FamilyIncome)
	assert.Equal(t, 0, got.DisciplinaryActions)
	assert.Equal(t, 1, got.Semester)
	assert.Empty(t, r.Skipped())
}

func TestRecords_DropsOverlongText(t *testing.T) {
	input := "student_id,name,email,department,phone\n" +
		"S-1," + strings.Repeat("n", 151) + ",a@uni.edu,CSE,\n" +
		strings.Repeat("9", 51) + ",Ok,b@uni.edu,CSE,\n" +
		"S-3,Ok,c@uni.edu," + strings.Repeat("d", 101) + ",\n" +
		"S-4,Ok,d@uni.edu,CSE," + strings.Repeat("5", 31) + "\n" +
		"S-5," + strings.Repeat("n", 150) + ",e@uni.edu,CSE,555-0100\n"

	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	rows := collect(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "S-5", rows[0].StudentID)

	skipped := r.Skipped()
	require.Len(t, skipped, 4)
	assert.Contains(t, skipped[0].Reason, "name (max 150)")
	assert.Contains(t, skipped[1].Reason, "student_id")
	assert.Contains(t, skipped[2].Reason, "department")
	assert.Contains(t, skipped[3].Reason, "phone")
}

func TestRecords_SinglePass(t *testing.T) {
	input := "name,email,student_id,department\nA,a@uni.edu,S-1,CSE\n"
	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Len(t, collect(t, r), 1)
	assert.Empty(t, collect(t, r))
}

func TestRecords_StopsWhenConsumerStops(t *testing.T) {
	input := "name,email,student_id,department\nA,a@uni.edu,S-1,CSE\nB,b@uni.edu,S-2,CSE\n"
	r, err := NewCSVReader(strings.NewReader(input))
	require.NoError(t, err)

	var seen []string
	for _, rec := range r.Records() {
		seen = append(seen, rec.Name)
		break
	}
	assert.Equal(t, []string{"A"}, seen)
}

func TestOpen_RejectsUnknownExtension(t *testing.T) {
	_, err := Open("students.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// Workbooks do not store trailing empty cells, so a short XLSX row is
// padded to the header width, while the same row in CSV is dropped.
func TestNewXLSXReader_PadsShortRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Student ID", "Name", "Email", "Department", "Semester", "CGPA"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"S-1", "Short", "short@uni.edu", "CSE"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	xr, err := NewXLSXReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer xr.Close()

	rows := collect(t, xr)
	require.Len(t, rows, 1)
	assert.Equal(t, "Short", rows[0].Name)
	assert.Equal(t, 1, rows[0].Semester)
	assert.Equal(t, 0.0, rows[0].CGPA)
	assert.Empty(t, xr.Skipped())

	cr, err := NewCSVReader(strings.NewReader("Student ID,Name,Email,Department,Semester,CGPA\nS-1,Short,short@uni.edu,CSE\n"))
	require.NoError(t, err)
	assert.Empty(t, collect(t, cr))
	require.Len(t, cr.Skipped(), 1)
	assert.Contains(t, cr.Skipped()[0].Reason, "4 fields")
}

func TestOpen_ReadsWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Name", "Email", "Student ID", "Department", "Attendance", "Income"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Lina", "lina@uni.edu", "S-9", "Math", 92.5}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"", "nobody@uni.edu", "S-10", "Math", 50, 1000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open("upload.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	rows := collect(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lina", rows[0].Name)
	assert.Equal(t, "S-9", rows[0].StudentID)
	assert.Equal(t, 92.5, rows[0].AttendancePercentage)
	assert.Nil(t, rows[0].FamilyIncome)
	require.Len(t, r.Skipped(), 1)
	assert.Equal(t, 3, r.Skipped()[0].Line)
}
