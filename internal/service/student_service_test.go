package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStudentStore struct {
	byID        map[uuid.UUID]*model.Student
	lastFilter  model.StudentFilter
	lastLimit   int
	lastOffset  int
	clearedOnUp []bool
}

func newFakeStudentStore(students ...model.Student) *fakeStudentStore {
	f := &fakeStudentStore{byID: map[uuid.UUID]*model.Student{}}
	for i := range students {
		s := students[i]
		f.byID[s.ID] = &s
	}
	return f
}

func (f *fakeStudentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Student, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, assert.AnError
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStudentStore) ListPaginated(_ context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int, error) {
	f.lastFilter, f.lastLimit, f.lastOffset = filter, limit, offset
	return nil, 42, nil
}

func (f *fakeStudentStore) Create(_ context.Context, s *model.Student) error {
	s.ID = uuid.New()
	f.byID[s.ID] = s
	return nil
}

func (f *fakeStudentStore) Update(_ context.Context, s *model.Student, clear bool) error {
	f.clearedOnUp = append(f.clearedOnUp, clear)
	prev := f.byID[s.ID]
	if !clear {
		s.RiskScore, s.RiskLevel, s.PredictionFactors = prev.RiskScore, prev.RiskLevel, prev.PredictionFactors
	}
	f.byID[s.ID] = s
	return nil
}

func (f *fakeStudentStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func scoredStudent() model.Student {
	s := healthyStudent()
	a := risk.Assess(s.RiskInput())
	s.RiskScore, s.RiskLevel, s.PredictionFactors = &a.Score, &a.Level, &a.Factors
	return s
}

func updateFrom(s model.Student) *model.UpdateStudentRequest {
	return &model.UpdateStudentRequest{
		StudentID:                 "S-1",
		Name:                      "Asha",
		Email:                     "asha@uni.edu",
		Department:                "CSE",
		Semester:                  s.Semester,
		AttendancePercentage:      40,
		CGPA:                      s.CGPA,
		SGPA:                      s.SGPA,
		Scholarship:               s.Scholarship,
		ExtracurricularActivities: s.ExtracurricularActivities,
	}
}

func TestUpdate_KeepPolicyLeavesScore(t *testing.T) {
	st := scoredStudent()
	store := newFakeStudentStore(st)
	svc := NewStudentService(store, config.ScoreEditKeep, nil)

	got, err := svc.Update(context.Background(), st.ID, updateFrom(st))
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, store.clearedOnUp)
	require.NotNil(t, got.RiskScore)
	assert.Equal(t, 0.14, *got.RiskScore)
}

func TestUpdate_InvalidatePolicyClearsScore(t *testing.T) {
	st := scoredStudent()
	store := newFakeStudentStore(st)
	cache := &countingInvalidator{}
	svc := NewStudentService(store, config.ScoreEditInvalidate, cache)

	got, err := svc.Update(context.Background(), st.ID, updateFrom(st))
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, store.clearedOnUp)
	assert.Nil(t, got.RiskScore)
	assert.Nil(t, got.RiskLevel)
	assert.Equal(t, 1, cache.n)
}

func TestPreviewRisk_ReflectsCurrentAttributes(t *testing.T) {
	st := scoredStudent()
	store := newFakeStudentStore(st)
	svc := NewStudentService(store, config.ScoreEditKeep, nil)

	p, err := svc.PreviewRisk(context.Background(), st.ID)
	require.NoError(t, err)
	assert.True(t, p.Stored)
	assert.Equal(t, 0.14, p.Assessment.Score)

	// Edit under the keep policy: the stored score goes stale.
	_, err = svc.Update(context.Background(), st.ID, updateFrom(st))
	require.NoError(t, err)

	p, err = svc.PreviewRisk(context.Background(), st.ID)
	require.NoError(t, err)
	assert.False(t, p.Stored)
	assert.Greater(t, p.Assessment.Score, 0.14)
}

func TestListStudents_ClampsPaging(t *testing.T) {
	store := newFakeStudentStore()
	svc := NewStudentService(store, config.ScoreEditKeep, nil)

	students, page, err := svc.ListStudents(context.Background(), model.StudentFilter{Unscored: true}, 0, 500)
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Equal(t, 100, store.lastLimit)
	assert.Zero(t, store.lastOffset)
	assert.True(t, store.lastFilter.Unscored)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 42, page.TotalItems)
	assert.Equal(t, 1, page.TotalPages)

	_, page, err = svc.ListStudents(context.Background(), model.StudentFilter{}, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 20, store.lastOffset)
	assert.Equal(t, 5, page.TotalPages)
}

func TestCreate_StartsUnscored(t *testing.T) {
	store := newFakeStudentStore()
	svc := NewStudentService(store, config.ScoreEditKeep, nil)

	got, err := svc.Create(context.Background(), &model.CreateStudentRequest{
		StudentID: "S-9", Name: "Lina", Email: "lina@uni.edu", Department: "Math", Semester: 2,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.False(t, got.Scored())
	assert.Equal(t, model.GenderOther, got.Gender)
}
