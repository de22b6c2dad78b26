// Package ingest turns tabular student uploads (CSV or XLSX) into
// validated create-student payloads.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyFile         = errors.New("upload has no header row")
	ErrNoValidRecords    = errors.New("upload has no valid student rows")
	ErrUnsupportedFormat = errors.New("unsupported upload format")
)

// rowValidator checks only the `ingest` rules of CreateStudentRequest.
var rowValidator = newRowValidator()

func newRowValidator() *govalidator.Validate {
	v := govalidator.New()
	v.SetTagName("ingest")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// rowSource yields raw rows with their 1-based line number; io.EOF ends it.
type rowSource interface {
	next() ([]string, int, error)
	close() error
}

type column struct {
	index int
	field Field
}

// Reader is a single-pass reader over an upload. Records may be ranged
// over once; rows dropped along the way are reported by Skipped.
type Reader struct {
	src      rowSource
	columns  []column
	width    int
	padShort bool
	consumed bool
	skipped  []model.ImportRowError
	err      error
}

// Open picks a source by file extension: .xlsx is read as a workbook,
// .csv, .txt or no extension as comma-separated text.
func Open(filename string, r io.Reader) (*Reader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return NewXLSXReader(r)
	case ".csv", ".txt", "":
		return NewCSVReader(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// NewCSVReader reads the header row of a comma-separated upload.
func NewCSVReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return newReader(&csvSource{r: cr}, false)
}

// NewXLSXReader reads the header row of the first sheet of a workbook.
// Trailing empty cells are not stored in XLSX rows, so short rows are
// padded to the header width instead of being dropped.
func NewXLSXReader(r io.Reader) (*Reader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrEmptyFile
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return newReader(&xlsxSource{file: f, rows: rows}, true)
}

func newReader(src rowSource, padShort bool) (*Reader, error) {
	header, _, err := src.next()
	if errors.Is(err, io.EOF) || (err == nil && blank(header)) {
		_ = src.close()
		return nil, ErrEmptyFile
	}
	if err != nil {
		_ = src.close()
		return nil, fmt.Errorf("read header: %w", err)
	}

	r := &Reader{src: src, width: len(header), padShort: padShort}
	for i, h := range header {
		if f, ok := LookupHeader(h); ok {
			r.columns = append(r.columns, column{index: i, field: f})
		}
	}
	return r, nil
}

// Fields returns the recognized columns in header order.
func (r *Reader) Fields() []Field {
	fields := make([]Field, len(r.columns))
	for i, c := range r.columns {
		fields[i] = c.field
	}
	return fields
}

// Records yields every valid row with its 1-based line number. It reads
// lazily and only once; a second range yields nothing.
func (r *Reader) Records() iter.Seq2[int, model.CreateStudentRequest] {
	return func(yield func(int, model.CreateStudentRequest) bool) {
		if r.consumed {
			return
		}
		r.consumed = true

		for {
			cells, line, err := r.src.next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					r.skip(pe.Line, "malformed row: "+pe.Err.Error())
					continue
				}
				r.err = err
				return
			}
			if blank(cells) {
				continue
			}
			if len(cells) < r.width {
				if !r.padShort {
					r.skip(line, fmt.Sprintf("row has %d fields, header has %d", len(cells), r.width))
					continue
				}
				cells = append(cells, make([]string, r.width-len(cells))...)
			}

			req := r.normalize(cells)
			if err := rowValidator.Struct(&req); err != nil {
				r.skip(line, describe(err))
				continue
			}
			if !yield(line, req) {
				return
			}
		}
	}
}

// Skipped returns the rows dropped so far.
func (r *Reader) Skipped() []model.ImportRowError {
	return r.skipped
}

// Err returns the read error that stopped iteration early, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying source.
func (r *Reader) Close() error {
	return r.src.close()
}

func (r *Reader) skip(line int, reason string) {
	r.skipped = append(r.skipped, model.ImportRowError{Line: line, Reason: reason})
}

func (r *Reader) normalize(cells []string) model.CreateStudentRequest {
	var req model.CreateStudentRequest
	for _, c := range r.columns {
		v := strings.TrimSpace(cells[c.index])
		switch c.field {
		case FieldStudentID:
			req.StudentID = v
		case FieldName:
			req.Name = v
		case FieldEmail:
			req.Email = strings.ToLower(v)
		case FieldPhone:
			req.Phone = optionalString(v)
		case FieldGender:
			req.Gender = parseGender(v)
		case FieldDateOfBirth:
			req.DateOfBirth = parseDate(v)
		case FieldDepartment:
			req.Department = v
		case FieldSemester:
			req.Semester = parseInt(v)
		case FieldAttendance:
			req.AttendancePercentage = parseFloat(v)
		case FieldCGPA:
			req.CGPA = parseFloat(v)
		case FieldSGPA:
			req.SGPA = parseFloat(v)
		case FieldFeeDefault:
			req.FeeDefault = parseBool(v)
		case FieldScholarship:
			req.Scholarship = parseBool(v)
		case FieldDisciplinaryActions:
			req.DisciplinaryActions = parseInt(v)
		case FieldExtracurriculars:
			req.ExtracurricularActivities = parseInt(v)
		case FieldFamilyIncome:
			req.FamilyIncome = optionalFloat(v)
		case FieldDistanceFromHome:
			req.DistanceFromHome = optionalFloat(v)
		case FieldHostelAccommodation:
			req.HostelAccommodation = parseBool(v)
		case FieldPreviousEducationGap:
			req.PreviousEducationGap = parseBool(v)
		}
	}
	if req.Gender == "" {
		req.Gender = model.GenderOther
	}
	// Semesters are 1-based; a missing or unparsable value lands in the first.
	if req.Semester < 1 {
		req.Semester = 1
	}
	return req
}

func describe(err error) string {
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var missing, invalid []string
	for _, fe := range ve {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s (%s %s)", fe.Field(), fe.Tag(), fe.Param()))
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required field(s): "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "out of range: "+strings.Join(invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ─── Cell parsers ─────────────────────────────────────────────────────
// Numeric parse failures fall back to 0. NaN and infinities count as
// failures, as do integers outside the INT column range.

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseInt(v string) int {
	if n, err := strconv.ParseInt(v, 10, 32); err == nil {
		return int(n)
	}
	f := math.Trunc(parseFloat(v))
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// optionalFloat returns nil for an empty cell.
func optionalFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f := parseFloat(v)
	return &f
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func parseGender(v string) model.Gender {
	switch g := model.Gender(strings.ToLower(v)); g {
	case model.GenderMale, model.GenderFemale, model.GenderOther:
		return g
	}
	return model.GenderOther
}

func parseDate(v string) *time.Time {
	for _, layout := range []string{time.DateOnly, "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// ─── Sources ──────────────────────────────────────────────────────────

type csvSource struct {
	r *csv.Reader
}

func (s *csvSource) next() ([]string, int, error) {
	rec, err := s.r.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := s.r.FieldPos(0)
	return rec, line, nil
}

func (s *csvSource) close() error { return nil }

type xlsxSource struct {
	file *excelize.File
	rows *excelize.Rows
	line int
}

func (s *xlsxSource) next() ([]string, int, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, 0, err
		}
		return nil, 0, io.EOF
	}
	s.line++
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, s.line, err
	}
	return cols, s.line, nil
}

func (s *xlsxSource) close() error {
	return errors.Join(s.rows.Close(), s.file.Close())
}
