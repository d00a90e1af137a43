package grade

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/spf13/cast"
	"github.com/ukane-philemon/grades/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "grades"

	// Keys
	idKey        = "_id"
	learnerIDKey = "learner_id"
	classIDKey   = "class_id"
	scoresKey    = "scores"
	studentIDKey = "student_id"

	// Actions
	actionPush = "$push"
	actionPull = "$pull"
	actionSet  = "$set"
)

var objectIDPattern = regexp.MustCompile(`(?i)^[a-f\d]{24}$`)

// ValidID reports whether id has the shape of a grade ID.
func ValidID(id string) bool {
	return objectIDPattern.MatchString(id)
}

// Grade is a stored grade record. Records keep every field they were created
// with, so they are handled as documents rather than a fixed schema.
type Grade bson.M

// ID returns the hex form of the record's _id, or its string form when the
// record was stored with a non ObjectID _id.
func (g Grade) ID() string {
	switch id := g[idKey].(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	default:
		return fmt.Sprint(id)
	}
}

// Score is a single entry of a grade record's scores, stored exactly as
// received. Entries usually look like {"type": "exam", "score": 90}.
type Score bson.M

// NewGrade is the request body of a new grade record.
type NewGrade bson.M

// Record returns the document stored for a new grade record: a copy of its
// fields where a legacy student_id is renamed to learner_id.
func (ng NewGrade) Record() bson.M {
	record := make(bson.M, len(ng))
	for key, value := range ng {
		record[key] = value
	}

	// Rename fields for backwards compatibility.
	if studentID, found := record[studentIDKey]; found && isSet(studentID) {
		record[learnerIDKey] = studentID
		delete(record, studentIDKey)
	}

	return record
}

// isSet reports whether a legacy ID value is usable: not null, false, zero,
// NaN or an empty string.
func isSet(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64, float32, int, int32, int64:
		n := cast.ToFloat64(v)
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

type UpdateResult struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// GradeRepository implements Repository.
type GradeRepository struct {
	gradeCollection *mongo.Collection
}

// NewRepository creates a new instance of *GradeRepository and makes sure the
// learner and class lookup indexes exist.
func NewRepository(ctx context.Context, database *mongo.Database) (Repository, error) {
	gradeCollectionIndexes := []mongo.IndexModel{{
		Keys: bson.D{{Key: learnerIDKey, Value: 1}},
	}, {
		Keys: bson.D{{Key: classIDKey, Value: 1}},
	}, {
		Keys: bson.D{{
			Key:   learnerIDKey,
			Value: 1,
		}, {
			Key:   classIDKey,
			Value: 1,
		}},
	}}

	gradeCollection := database.Collection(collectionName)
	_, err := gradeCollection.Indexes().CreateMany(ctx, gradeCollectionIndexes)
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.Indexes().CreateMany error: %w", err)
	}

	return newGradeRepository(gradeCollection), nil
}

func newGradeRepository(gradeCollection *mongo.Collection) *GradeRepository {
	return &GradeRepository{gradeCollection: gradeCollection}
}

// Create inserts a new grade record.
// Implements Repository.
func (gr *GradeRepository) Create(ctx context.Context, newGrade NewGrade) (string, error) {
	if newGrade == nil {
		return "", fmt.Errorf("%w: missing grade record", db.ErrorInvalidRequest)
	}

	res, err := gr.gradeCollection.InsertOne(ctx, newGrade.Record())
	if err != nil {
		return "", fmt.Errorf("gradeCollection.InsertOne error: %w", err)
	}

	return Grade{idKey: res.InsertedID}.ID(), nil
}

// Grade returns the grade record that match gradeID.
// Implements Repository.
func (gr *GradeRepository) Grade(ctx context.Context, gradeID string) (Grade, error) {
	filter, err := gradeFilter(gradeID)
	if err != nil {
		return nil, err
	}

	var grade Grade
	err = gr.gradeCollection.FindOne(ctx, filter).Decode(&grade)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: no grade record with ID %s", db.ErrorNotFound, gradeID)
		}
		return nil, fmt.Errorf("gradeCollection.FindOne error: %w", err)
	}

	return grade, nil
}

// Grades returns every grade record.
// Implements Repository.
func (gr *GradeRepository) Grades(ctx context.Context) ([]Grade, error) {
	return gr.find(ctx, bson.M{})
}

// AddScore pushes score onto the grade record's scores.
// Implements Repository.
func (gr *GradeRepository) AddScore(ctx context.Context, gradeID string, score Score) (*UpdateResult, error) {
	return gr.updateScores(ctx, gradeID, actionPush, score)
}

// RemoveScore pulls every score matching score from the grade record.
// Implements Repository.
func (gr *GradeRepository) RemoveScore(ctx context.Context, gradeID string, score Score) (*UpdateResult, error) {
	return gr.updateScores(ctx, gradeID, actionPull, score)
}

func (gr *GradeRepository) updateScores(ctx context.Context, gradeID, action string, score Score) (*UpdateResult, error) {
	if score == nil {
		return nil, fmt.Errorf("%w: missing score", db.ErrorInvalidRequest)
	}

	filter, err := gradeFilter(gradeID)
	if err != nil {
		return nil, err
	}

	res, err := gr.gradeCollection.UpdateOne(ctx, filter, bson.M{action: bson.M{scoresKey: bson.M(score)}})
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.UpdateOne error: %w", err)
	}

	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: no grade record with ID %s", db.ErrorNotFound, gradeID)
	}

	return updateResult(res), nil
}

// Delete removes the grade record that match gradeID.
// Implements Repository.
func (gr *GradeRepository) Delete(ctx context.Context, gradeID string) (*DeleteResult, error) {
	filter, err := gradeFilter(gradeID)
	if err != nil {
		return nil, err
	}

	res, err := gr.gradeCollection.DeleteOne(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.DeleteOne error: %w", err)
	}

	return deleteResult(res, "no grade record with ID "+gradeID)
}

// LearnerGrades returns the grade records of a learner.
// Implements Repository.
func (gr *GradeRepository) LearnerGrades(ctx context.Context, learnerID float64, classID *float64) ([]Grade, error) {
	filter := bson.M{learnerIDKey: learnerID}
	if classID != nil {
		filter[classIDKey] = *classID
	}
	return gr.find(ctx, filter)
}

// DeleteLearnerGrade removes the first grade record of a learner.
// Implements Repository.
func (gr *GradeRepository) DeleteLearnerGrade(ctx context.Context, learnerID float64) (*DeleteResult, error) {
	res, err := gr.gradeCollection.DeleteOne(ctx, bson.M{learnerIDKey: learnerID})
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.DeleteOne error: %w", err)
	}

	return deleteResult(res, fmt.Sprintf("no grade record for learner %v", learnerID))
}

// ClassGrades returns the grade records of a class.
// Implements Repository.
func (gr *GradeRepository) ClassGrades(ctx context.Context, classID float64, learnerID *float64) ([]Grade, error) {
	filter := bson.M{classIDKey: classID}
	if learnerID != nil {
		filter[learnerIDKey] = *learnerID
	}
	return gr.find(ctx, filter)
}

// UpdateClassID sets class_id to newClassID on every grade record of
// classID.
// Implements Repository.
func (gr *GradeRepository) UpdateClassID(ctx context.Context, classID float64, newClassID int) (*UpdateResult, error) {
	update := bson.M{actionSet: bson.M{classIDKey: newClassID}}
	res, err := gr.gradeCollection.UpdateMany(ctx, bson.M{classIDKey: classID}, update, options.Update().SetUpsert(false))
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.UpdateMany error: %w", err)
	}

	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: no grade record for class %v", db.ErrorNotFound, classID)
	}

	return updateResult(res), nil
}

// DeleteClass removes every grade record of a class.
// Implements Repository.
func (gr *GradeRepository) DeleteClass(ctx context.Context, classID float64) (*DeleteResult, error) {
	res, err := gr.gradeCollection.DeleteMany(ctx, bson.M{classIDKey: classID})
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.DeleteMany error: %w", err)
	}

	return deleteResult(res, fmt.Sprintf("no grade record for class %v", classID))
}

func (gr *GradeRepository) find(ctx context.Context, filter bson.M) ([]Grade, error) {
	cur, err := gr.gradeCollection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.Find error: %w", err)
	}

	grades := []Grade{}
	err = cur.All(ctx, &grades)
	if err != nil {
		return nil, fmt.Errorf("failed to decode grade records: %w", err)
	}

	return grades, nil
}

func gradeFilter(gradeID string) (bson.M, error) {
	if !ValidID(gradeID) {
		return nil, fmt.Errorf("%w: invalid grade ID %q", db.ErrorInvalidRequest, gradeID)
	}

	dbGradeID, err := primitive.ObjectIDFromHex(gradeID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid grade ID %q", db.ErrorInvalidRequest, gradeID)
	}

	return bson.M{idKey: dbGradeID}, nil
}

func updateResult(res *mongo.UpdateResult) *UpdateResult {
	return &UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

func deleteResult(res *mongo.DeleteResult, notFoundMsg string) (*DeleteResult, error) {
	if res.DeletedCount == 0 {
		return nil, fmt.Errorf("%w: %s", db.ErrorNotFound, notFoundMsg)
	}

	return &DeleteResult{
		Acknowledged: true,
		DeletedCount: res.DeletedCount,
	}, nil
}
