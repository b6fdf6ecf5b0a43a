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

var ErrResponseNotFound = errors.New("response not found")

// ResponseRepo wraps the `responses` collection and joins each response
// to its parent questionnaire when listing. The reference is non-owning:
// the questionnaire document is attached by lookup, never duplicated.
type ResponseRepo struct {
	col       *mongo.Collection
	questions *mongo.Collection
}

func NewResponseRepo(db *mongo.Database) *ResponseRepo {
	return &ResponseRepo{
		col:       db.Collection("responses"),
		questions: db.Collection("questionnaires"),
	}
}

func (r *ResponseRepo) Create(ctx context.Context, resp *model.Response) error {
	res, err := r.col.InsertOne(ctx, resp)
	if err != nil {
		return err
	}
	resp.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindAll lists non-deleted responses with their questionnaires attached.
func (r *ResponseRepo) FindAll(ctx context.Context) ([]model.ResponseWithQuestion, error) {
	return r.findJoined(ctx, bson.M{"isDeleted": false})
}

// FindByQuestionnaire lists non-deleted responses referencing one
// questionnaire. A malformed id is ErrInvalidID; a well-formed id with
// no responses is simply an empty list.
func (r *ResponseRepo) FindByQuestionnaire(ctx context.Context, questionID string) ([]model.ResponseWithQuestion, error) {
	objID, ok := oid(questionID)
	if !ok {
		return nil, ErrInvalidID
	}
	return r.findJoined(ctx, bson.M{"isDeleted": false, "idQuestion": objID})
}

// findJoined fetches responses matching the filter, then resolves all
// referenced questionnaires in a single $in query. A soft-deleted
// questionnaire is still attached so callers can see its state; a
// dangling reference leaves Question nil.
func (r *ResponseRepo) findJoined(ctx context.Context, filter bson.M) ([]model.ResponseWithQuestion, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := []model.Response{}
	if err := cur.All(ctx, &responses); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(responses))
	seen := make(map[primitive.ObjectID]bool, len(responses))
	for _, resp := range responses {
		if !resp.IDQuestion.IsZero() && !seen[resp.IDQuestion] {
			seen[resp.IDQuestion] = true
			ids = append(ids, resp.IDQuestion)
		}
	}

	byID := make(map[primitive.ObjectID]model.Questionnaire, len(ids))
	if len(ids) > 0 {
		qcur, err := r.questions.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		questions := []model.Questionnaire{}
		if err := qcur.All(ctx, &questions); err != nil {
			return nil, err
		}
		for _, q := range questions {
			byID[q.ID] = q
		}
	}

	joined := make([]model.ResponseWithQuestion, 0, len(responses))
	for _, resp := range responses {
		item := model.ResponseWithQuestion{Response: resp}
		if q, ok := byID[resp.IDQuestion]; ok {
			item.Question = &q
		}
		joined = append(joined, item)
	}
	return joined, nil
}

func (r *ResponseRepo) FindByID(ctx context.Context, id string) (model.Response, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Response{}, ErrResponseNotFound
	}
	var resp model.Response
	err := r.col.FindOne(ctx, bson.M{"_id": objID, "isDeleted": false}).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Response{}, ErrResponseNotFound
	}
	return resp, err
}

func (r *ResponseRepo) Update(ctx context.Context, id string, text string) (model.Response, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Response{}, ErrResponseNotFound
	}
	var resp model.Response
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "isDeleted": false},
		bson.M{"$set": bson.M{"questionResponse": text}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Response{}, ErrResponseNotFound
	}
	return resp, err
}

// SoftDelete marks a response deleted. Deleting an absent or already
// deleted response reports not found.
func (r *ResponseRepo) SoftDelete(ctx context.Context, id string) error {
	objID, ok := oid(id)
	if !ok {
		return ErrResponseNotFound
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": objID, "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrResponseNotFound
	}
	return nil
}
