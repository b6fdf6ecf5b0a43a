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

var ErrPropertyNotFound = errors.New("property not found")

// PropertyRepo encapsulates all queries against the `imobs` collection.
type PropertyRepo struct {
	col *mongo.Collection
}

func NewPropertyRepo(db *mongo.Database) *PropertyRepo {
	return &PropertyRepo{col: db.Collection("imobs")}
}

// Create inserts a property and populates its ID.
func (r *PropertyRepo) Create(ctx context.Context, p *model.Property) error {
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindAll lists properties; the default listing excludes disabled ones.
func (r *PropertyRepo) FindAll(ctx context.Context, includeDisabled bool) ([]model.Property, error) {
	filter := bson.M{}
	if !includeDisabled {
		filter["isDisabled"] = false
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	props := []model.Property{}
	if err := cur.All(ctx, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// FindByID fetches a property by id regardless of lifecycle state.
func (r *PropertyRepo) FindByID(ctx context.Context, id string) (model.Property, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Property{}, ErrPropertyNotFound
	}
	var p model.Property
	err := r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Property{}, ErrPropertyNotFound
	}
	return p, err
}

// FindByNaturalKey looks a property up by the (tipo, rua, numero)
// triple used to match spreadsheet rows against stored records.
func (r *PropertyRepo) FindByNaturalKey(ctx context.Context, tipo, rua, numero string) (model.Property, error) {
	var p model.Property
	err := r.col.FindOne(ctx, bson.M{"tipo": tipo, "rua": rua, "numero": numero}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Property{}, ErrPropertyNotFound
	}
	return p, err
}

// Update overwrites the mutable fields of a property and returns the
// new document. The lifecycle flag is not touched here; activation has
// its own operation.
func (r *PropertyRepo) Update(ctx context.Context, id string, p model.Property) (model.Property, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Property{}, ErrPropertyNotFound
	}
	set := bson.M{
		"tipo":        p.Tipo,
		"rua":         p.Rua,
		"numero":      p.Numero,
		"complemento": p.Complemento,
		"cep":         p.CEP,
		"cidade":      p.Cidade,
		"uf":          p.UF,
		"obs":         p.Obs,
		"copasa":      p.Copasa,
		"cemig":       p.Cemig,
		"idUser":      p.IDUser,
	}
	var out model.Property
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Property{}, ErrPropertyNotFound
	}
	return out, err
}

// ImportUpdate overwrites the spreadsheet-backed fields and
// re-activates the record.
func (r *PropertyRepo) ImportUpdate(ctx context.Context, id primitive.ObjectID, p model.Property) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"tipo":        p.Tipo,
			"rua":         p.Rua,
			"numero":      p.Numero,
			"complemento": p.Complemento,
			"cep":         p.CEP,
			"cidade":      p.Cidade,
			"uf":          p.UF,
			"obs":         p.Obs,
			"copasa":      p.Copasa,
			"cemig":       p.Cemig,
			"isDisabled":  false,
		}},
	)
	return err
}

// Delete removes a property permanently.
func (r *PropertyRepo) Delete(ctx context.Context, id string) error {
	objID, ok := oid(id)
	if !ok {
		return ErrPropertyNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

// SetDisabled flips the lifecycle flag, idempotently.
func (r *PropertyRepo) SetDisabled(ctx context.Context, id string, disabled bool) (model.Property, error) {
	objID, ok := oid(id)
	if !ok {
		return model.Property{}, ErrPropertyNotFound
	}
	var p model.Property
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"isDisabled": disabled}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Property{}, ErrPropertyNotFound
	}
	return p, err
}

// DisableAll marks every property disabled. There is no protected
// identity for properties; the bulk import re-activates the rows it
// finds in the spreadsheet afterwards.
func (r *PropertyRepo) DisableAll(ctx context.Context) (int64, error) {
	res, err := r.col.UpdateMany(ctx, bson.M{}, bson.M{"$set": bson.M{"isDisabled": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
