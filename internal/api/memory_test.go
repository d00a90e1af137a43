package api

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/spf13/cast"
	"github.com/ukane-philemon/grades/internal/db"
	"github.com/ukane-philemon/grades/internal/grade"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryGrades is an in-memory grade.Repository used to exercise the HTTP
// layer without a database.
type memoryGrades struct {
	mtx    sync.Mutex
	grades []grade.Grade
	calls  int

	// err, when set, is returned by every call.
	err error
	// panicMsg, when set, makes every call panic.
	panicMsg string

	lastStatsClass *float64
}

var _ grade.Repository = (*memoryGrades)(nil)

func newMemoryGrades() *memoryGrades {
	return &memoryGrades{}
}

func (m *memoryGrades) begin() error {
	m.calls++
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.err != nil {
		return fmt.Errorf("gradeCollection error: %w", m.err)
	}
	return nil
}

func (m *memoryGrades) Calls() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.calls
}

func (m *memoryGrades) Create(_ context.Context, newGrade grade.NewGrade) (string, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return "", err
	}

	g := grade.Grade(newGrade.Record())
	if _, found := g["_id"]; !found {
		g["_id"] = primitive.NewObjectID()
	}
	m.grades = append(m.grades, g)
	return g.ID(), nil
}

func (m *memoryGrades) Grade(_ context.Context, gradeID string) (grade.Grade, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	g := m.byID(gradeID)
	if g == nil {
		return nil, db.ErrorNotFound
	}
	return g, nil
}

func (m *memoryGrades) Grades(_ context.Context) ([]grade.Grade, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}
	return m.filter(func(grade.Grade) bool { return true }), nil
}

func (m *memoryGrades) AddScore(_ context.Context, gradeID string, score grade.Score) (*grade.UpdateResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	g := m.byID(gradeID)
	if g == nil {
		return nil, db.ErrorNotFound
	}

	scores, err := scoresOf(g)
	if err != nil {
		return nil, err
	}

	g["scores"] = append(scores, map[string]any(score))
	return &grade.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

// RemoveScore pulls every entry that holds all the fields of score, the way a
// $pull with a document condition does.
func (m *memoryGrades) RemoveScore(_ context.Context, gradeID string, score grade.Score) (*grade.UpdateResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	g := m.byID(gradeID)
	if g == nil {
		return nil, db.ErrorNotFound
	}

	scores, err := scoresOf(g)
	if err != nil {
		return nil, err
	}

	kept := []any{}
	for _, entry := range scores {
		if !matchesScore(entry, score) {
			kept = append(kept, entry)
		}
	}

	var modified int64
	if len(kept) != len(scores) {
		modified = 1
		g["scores"] = kept
	}
	return &grade.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: modified}, nil
}

func (m *memoryGrades) Delete(_ context.Context, gradeID string) (*grade.DeleteResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	deleted := m.remove(func(g grade.Grade) bool { return g.ID() == gradeID }, 1)
	return deleteResult(deleted)
}

func (m *memoryGrades) LearnerGrades(_ context.Context, learnerID float64, classID *float64) ([]grade.Grade, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	return m.filter(func(g grade.Grade) bool {
		return numberField(g, "learner_id") == learnerID && (classID == nil || numberField(g, "class_id") == *classID)
	}), nil
}

func (m *memoryGrades) DeleteLearnerGrade(_ context.Context, learnerID float64) (*grade.DeleteResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	deleted := m.remove(func(g grade.Grade) bool { return numberField(g, "learner_id") == learnerID }, 1)
	return deleteResult(deleted)
}

func (m *memoryGrades) ClassGrades(_ context.Context, classID float64, learnerID *float64) ([]grade.Grade, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	return m.filter(func(g grade.Grade) bool {
		return numberField(g, "class_id") == classID && (learnerID == nil || numberField(g, "learner_id") == *learnerID)
	}), nil
}

func (m *memoryGrades) UpdateClassID(_ context.Context, classID float64, newClassID int) (*grade.UpdateResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	var matched int64
	for _, g := range m.grades {
		if numberField(g, "class_id") == classID {
			g["class_id"] = newClassID
			matched++
		}
	}

	if matched == 0 {
		return nil, db.ErrorNotFound
	}
	return &grade.UpdateResult{Acknowledged: true, MatchedCount: matched, ModifiedCount: matched}, nil
}

func (m *memoryGrades) DeleteClass(_ context.Context, classID float64) (*grade.DeleteResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	deleted := m.remove(func(g grade.Grade) bool { return numberField(g, "class_id") == classID }, -1)
	return deleteResult(deleted)
}

func (m *memoryGrades) LearnerClassAverages(_ context.Context, learnerID float64) ([]*grade.ClassAverage, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	averages := []*grade.ClassAverage{}
	for _, g := range m.grades {
		if numberField(g, "learner_id") == learnerID {
			averages = append(averages, &grade.ClassAverage{ClassID: g["class_id"]})
		}
	}
	return averages, nil
}

func (m *memoryGrades) Stats(_ context.Context, classID *float64) (*grade.Stats, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if err := m.begin(); err != nil {
		return nil, err
	}

	m.lastStatsClass = classID
	learners := make(map[float64]bool)
	for _, g := range m.grades {
		if classID == nil || numberField(g, "class_id") == *classID {
			learners[numberField(g, "learner_id")] = true
		}
	}
	return &grade.Stats{TotalLearners: len(learners)}, nil
}

func (m *memoryGrades) byID(gradeID string) grade.Grade {
	for _, g := range m.grades {
		if g.ID() == gradeID {
			return g
		}
	}
	return nil
}

func (m *memoryGrades) filter(match func(grade.Grade) bool) []grade.Grade {
	grades := []grade.Grade{}
	for _, g := range m.grades {
		if match(g) {
			grades = append(grades, g)
		}
	}
	return grades
}

// remove deletes up to limit matching grade records, or all of them when
// limit is negative.
func (m *memoryGrades) remove(match func(grade.Grade) bool, limit int) int64 {
	var deleted int64
	kept := m.grades[:0]
	for _, g := range m.grades {
		if match(g) && (limit < 0 || deleted < int64(limit)) {
			deleted++
			continue
		}
		kept = append(kept, g)
	}
	m.grades = kept
	return deleted
}

func deleteResult(deleted int64) (*grade.DeleteResult, error) {
	if deleted == 0 {
		return nil, db.ErrorNotFound
	}
	return &grade.DeleteResult{Acknowledged: true, DeletedCount: deleted}, nil
}

// numberField returns the numeric value of a record field, or NaN when the
// field is missing or not a number so it never matches.
func numberField(g grade.Grade, key string) float64 {
	switch g[key].(type) {
	case nil, string, bool:
		return math.NaN()
	}
	n, err := cast.ToFloat64E(g[key])
	if err != nil {
		return math.NaN()
	}
	return n
}

func scoresOf(g grade.Grade) ([]any, error) {
	switch scores := g["scores"].(type) {
	case nil:
		return []any{}, nil
	case []any:
		return scores, nil
	default:
		return nil, fmt.Errorf("scores of %s is a %T, not an array", g.ID(), scores)
	}
}

func matchesScore(entry any, score grade.Score) bool {
	fields, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	for key, value := range score {
		if !reflect.DeepEqual(fields[key], value) {
			return false
		}
	}
	return true
}
