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

var ErrCollaboratorNotFound = errors.New("collaborator not found")

// CollaboratorRepo is a plain CRUD wrapper over the `collaborators`
// collection.
type CollaboratorRepo struct {
	col *mongo.Collection
}

func NewCollaboratorRepo(db *mongo.Database) *CollaboratorRepo {
	return &CollaboratorRepo{col: db.Collection("collaborators")}
}

func (r *CollaboratorRepo) Create(ctx context.Context, c *model.Collaborator) error {
	res, err := r.col.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *CollaboratorRepo) FindAll(ctx context.Context) ([]model.Collaborator, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	items := []model.Collaborator{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CollaboratorRepo) FindByID(ctx context.Context, id string) (model.Collaborator, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Collaborator{}, ErrCollaboratorNotFound
	}
	var c model.Collaborator
	err := r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Collaborator{}, ErrCollaboratorNotFound
	}
	return c, err
}

func (r *CollaboratorRepo) Update(ctx context.Context, id string, c model.Collaborator) (model.Collaborator, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Collaborator{}, ErrCollaboratorNotFound
	}
	var out model.Collaborator
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"name": c.Name, "email": c.Email, "phone": c.Phone}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Collaborator{}, ErrCollaboratorNotFound
	}
	return out, err
}

func (r *CollaboratorRepo) Delete(ctx context.Context, id string) error {
	objID, ok := oid(id)
	if !ok {
		return ErrCollaboratorNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCollaboratorNotFound
	}
	return nil
}
