package grade

import "context"

// Repository is the grade record store. Numeric learner and class IDs are
// float64 because they come straight from loosely coerced request parameters
// and may be NaN, which simply matches nothing.
type Repository interface {
	// Create inserts a new grade record with exactly the fields of newGrade
	// and returns its ID. A legacy student_id is stored as learner_id.
	Create(ctx context.Context, newGrade NewGrade) (string, error)
	// Grade returns the grade record that match gradeID. Returns
	// db.ErrorNotFound if there is none.
	Grade(ctx context.Context, gradeID string) (Grade, error)
	// Grades returns every grade record in the database.
	Grades(ctx context.Context) ([]Grade, error)
	// AddScore appends score to the scores of the grade record that match
	// gradeID. Returns db.ErrorNotFound if no record matched.
	AddScore(ctx context.Context, gradeID string, score Score) (*UpdateResult, error)
	// RemoveScore removes every score matching score from the grade record
	// that match gradeID. Returns db.ErrorNotFound if no record matched.
	RemoveScore(ctx context.Context, gradeID string, score Score) (*UpdateResult, error)
	// Delete removes the grade record that match gradeID. Returns
	// db.ErrorNotFound if nothing was deleted.
	Delete(ctx context.Context, gradeID string) (*DeleteResult, error)
	// LearnerGrades returns the grade records of a learner, optionally
	// limited to a single class.
	LearnerGrades(ctx context.Context, learnerID float64, classID *float64) ([]Grade, error)
	// DeleteLearnerGrade removes the first grade record of a learner.
	// Returns db.ErrorNotFound if nothing was deleted.
	DeleteLearnerGrade(ctx context.Context, learnerID float64) (*DeleteResult, error)
	// ClassGrades returns the grade records of a class, optionally limited to
	// a single learner.
	ClassGrades(ctx context.Context, classID float64, learnerID *float64) ([]Grade, error)
	// UpdateClassID moves every grade record of classID to newClassID.
	// Returns db.ErrorNotFound if no record matched.
	UpdateClassID(ctx context.Context, classID float64, newClassID int) (*UpdateResult, error)
	// DeleteClass removes every grade record of a class. Returns
	// db.ErrorNotFound if nothing was deleted.
	DeleteClass(ctx context.Context, classID float64) (*DeleteResult, error)
	// LearnerClassAverages returns the learner's weighted average per class.
	LearnerClassAverages(ctx context.Context, learnerID float64) ([]*ClassAverage, error)
	// Stats counts learners and how many of them have a weighted average
	// above PassingAverage, optionally for a single class.
	Stats(ctx context.Context, classID *float64) (*Stats, error)
}
