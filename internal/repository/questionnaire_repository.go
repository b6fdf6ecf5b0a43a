package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adellanno/imob-api/internal/model"
)

var ErrQuestionnaireNotFound = errors.New("questionnaire not found")

// QuestionnaireRepo wraps the `questionnaires` collection. Removal is a
// soft delete; default listings exclude deleted documents.
type QuestionnaireRepo struct {
	col *mongo.Collection
}

func NewQuestionnaireRepo(db *mongo.Database) *QuestionnaireRepo {
	return &QuestionnaireRepo{col: db.Collection("questionnaires")}
}

func (r *QuestionnaireRepo) Create(ctx context.Context, q *model.Questionnaire) error {
	res, err := r.col.InsertOne(ctx, q)
	if err != nil {
		return err
	}
	q.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *QuestionnaireRepo) FindAll(ctx context.Context) ([]model.Questionnaire, error) {
	cur, err := r.col.Find(ctx, bson.M{"isDeleted": false})
	if err != nil {
		return nil, err
	}
	items := []model.Questionnaire{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *QuestionnaireRepo) FindByID(ctx context.Context, id string) (model.Questionnaire, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Questionnaire{}, ErrQuestionnaireNotFound
	}
	var q model.Questionnaire
	err := r.col.FindOne(ctx, bson.M{"_id": objID, "isDeleted": false}).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Questionnaire{}, ErrQuestionnaireNotFound
	}
	return q, err
}

func (r *QuestionnaireRepo) Update(ctx context.Context, id string, question string) (model.Questionnaire, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Questionnaire{}, ErrQuestionnaireNotFound
	}
	var q model.Questionnaire
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "isDeleted": false},
		bson.M{"$set": bson.M{"question": question}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&q)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Questionnaire{}, ErrQuestionnaireNotFound
	}
	return q, err
}

// SoftDelete marks a questionnaire deleted. A second delete of the same
// id reports not found, matching the response semantics.
func (r *QuestionnaireRepo) SoftDelete(ctx context.Context, id string) error {
	objID, ok := oid(id)
	if !ok {
		return ErrQuestionnaireNotFound
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": objID, "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrQuestionnaireNotFound
	}
	return nil
}
