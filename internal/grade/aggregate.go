package grade

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Score types and their weight in a learner's average.
const (
	ScoreTypeExam     = "exam"
	ScoreTypeQuiz     = "quiz"
	ScoreTypeHomework = "homework"

	examWeight     = 0.5
	quizWeight     = 0.25
	homeworkWeight = 0.25
)

// PassingAverage is the weighted average a learner must exceed to be counted
// in Stats.LearnersAbove.
const PassingAverage = 70

// ClassAverage is a learner's weighted average in a class. ClassID is kept as
// stored.
type ClassAverage struct {
	ClassID interface{} `json:"class_id" bson:"class_id"`
	Average float64     `json:"avg" bson:"avg"`
}

type Stats struct {
	TotalLearners int     `json:"totalLearners" bson:"totalLearners"`
	LearnersAbove int     `json:"learnersAbove70" bson:"learnersAbove70"`
	PercentAbove  float64 `json:"percentAbove70" bson:"percentAbove70"`
}

// LearnerClassAverages returns the learner's weighted average per class.
// Implements Repository.
func (gr *GradeRepository) LearnerClassAverages(ctx context.Context, learnerID float64) ([]*ClassAverage, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{learnerIDKey: learnerID}}},
		{{Key: "$unwind", Value: bson.M{"path": "$" + scoresKey}}},
		{{Key: "$group", Value: scoresByTypeGroup("$" + classIDKey)}},
		{{Key: "$project", Value: bson.M{
			idKey:      0,
			classIDKey: "$" + idKey,
			"avg":      weightedAverage(),
		}}},
	}

	cur, err := gr.gradeCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.Aggregate error: %w", err)
	}

	averages := []*ClassAverage{}
	err = cur.All(ctx, &averages)
	if err != nil {
		return nil, fmt.Errorf("failed to decode class averages: %w", err)
	}

	return averages, nil
}

// Stats counts learners with a weighted average above PassingAverage. When
// classID is set only grade records of that class are considered.
// Implements Repository.
func (gr *GradeRepository) Stats(ctx context.Context, classID *float64) (*Stats, error) {
	var pipeline mongo.Pipeline
	if classID != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{classIDKey: *classID}}})
	}

	countAbove := bson.M{"$cond": bson.A{bson.M{"$gt": bson.A{"$avg", PassingAverage}}, 1, 0}}
	percentAbove := bson.M{"$multiply": bson.A{
		bson.M{"$divide": bson.A{"$learnersAbove70", "$totalLearners"}},
		100,
	}}

	pipeline = append(pipeline,
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$" + scoresKey}}},
		bson.D{{Key: "$group", Value: scoresByTypeGroup("$" + learnerIDKey)}},
		bson.D{{Key: "$project", Value: bson.M{idKey: 0, "avg": weightedAverage()}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: idKey, Value: nil},
			{Key: "totalLearners", Value: bson.M{"$sum": 1}},
			{Key: "learnersAbove70", Value: bson.M{"$sum": countAbove}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: idKey, Value: 0},
			{Key: "totalLearners", Value: 1},
			{Key: "learnersAbove70", Value: 1},
			{Key: "percentAbove70", Value: percentAbove},
		}}},
	)

	cur, err := gr.gradeCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("gradeCollection.Aggregate error: %w", err)
	}

	var stats []*Stats
	err = cur.All(ctx, &stats)
	if err != nil {
		return nil, fmt.Errorf("failed to decode grade stats: %w", err)
	}

	if len(stats) == 0 {
		return &Stats{}, nil
	}

	return stats[0], nil
}

// scoresByTypeGroup groups unwound scores by groupKey, collecting the score
// values of each score type into their own array.
func scoresByTypeGroup(groupKey string) bson.M {
	return bson.M{
		idKey:             groupKey,
		ScoreTypeQuiz:     pushScoresOfType(ScoreTypeQuiz),
		ScoreTypeExam:     pushScoresOfType(ScoreTypeExam),
		ScoreTypeHomework: pushScoresOfType(ScoreTypeHomework),
	}
}

func pushScoresOfType(scoreType string) bson.M {
	return bson.M{"$push": bson.M{"$cond": bson.M{
		"if":   bson.M{"$eq": bson.A{"$" + scoresKey + ".type", scoreType}},
		"then": "$" + scoresKey + ".score",
		"else": "$$REMOVE",
	}}}
}

// weightedAverage expects the per type arrays built by scoresByTypeGroup. A
// score type with no entries contributes nothing.
func weightedAverage() bson.M {
	return bson.M{"$sum": bson.A{
		bson.M{"$multiply": bson.A{bson.M{"$avg": "$" + ScoreTypeExam}, examWeight}},
		bson.M{"$multiply": bson.A{bson.M{"$avg": "$" + ScoreTypeQuiz}, quizWeight}},
		bson.M{"$multiply": bson.A{bson.M{"$avg": "$" + ScoreTypeHomework}, homeworkWeight}},
	}}
}
