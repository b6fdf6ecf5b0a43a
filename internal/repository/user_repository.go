package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adellanno/imob-api/internal/model"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrResetCodeInvalid = errors.New("reset code invalid or expired")
)

// UserRepo encapsulates all queries against the `users` collection.
type UserRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection("users")}
}

// Create inserts a user and populates its ID. Email is normalized to
// lowercase; a duplicate email maps to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return err
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindAll lists users. The default listing excludes disabled records;
// includeDisabled is the administrator variant.
func (r *UserRepo) FindAll(ctx context.Context, includeDisabled bool) ([]model.User, error) {
	filter := bson.M{}
	if !includeDisabled {
		filter["isDisabled"] = false
	}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByID fetches a user by id regardless of lifecycle state.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	objID, ok := oid(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	var u model.User
	err := r.col.FindOne(ctx, bson.M{"_id": objID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// FindByRole lists users carrying the given role label.
func (r *UserRepo) FindByRole(ctx context.Context, role string) ([]model.User, error) {
	cur, err := r.col.Find(ctx, bson.M{"roles": role})
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UserUpdate carries the optional profile fields of a PUT /users/:id.
// Nil pointers leave the stored value untouched.
type UserUpdate struct {
	Name  *string
	Email *string
	CPF   *string
	Phone *string
	Cargo *string
	Roles []string
}

// Update applies a partial profile update and returns the new document.
func (r *UserRepo) Update(ctx context.Context, id string, upd UserUpdate) (model.User, error) {
	objID, ok := oid(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.CPF != nil {
		set["cpf"] = *upd.CPF
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.Cargo != nil {
		set["cargo"] = *upd.Cargo
	}
	if upd.Roles != nil {
		set["roles"] = upd.Roles
	}
	var u model.User
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrUserNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return model.User{}, ErrEmailExists
	}
	return u, err
}

// UpdatePassword stores a new password digest for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user permanently. Soft disable is the normal path;
// this backs the explicit DELETE /users/:id operation.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	objID, ok := oid(id)
	if !ok {
		return ErrUserNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetDisabled flips the lifecycle flag. Idempotent: re-disabling a
// disabled user succeeds and leaves the record unchanged.
func (r *UserRepo) SetDisabled(ctx context.Context, id string, disabled bool) (model.User, error) {
	objID, ok := oid(id)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	var u model.User
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"isDisabled": disabled, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// DisableAllExcept marks every user disabled except the protected
// identity. The bulk import runs this pre-pass before re-activating the
// rows present in the spreadsheet.
func (r *UserRepo) DisableAllExcept(ctx context.Context, protectedEmail string) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"email": bson.M{"$ne": strings.ToLower(protectedEmail)}},
		bson.M{"$set": bson.M{"isDisabled": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ImportUpdate overwrites the mutable profile fields from a spreadsheet
// row and re-activates the record. The stored password is untouched.
func (r *UserRepo) ImportUpdate(ctx context.Context, id primitive.ObjectID, u model.User) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":       u.Name,
			"email":      strings.ToLower(u.Email),
			"cpf":        u.CPF,
			"phone":      u.Phone,
			"cargo":      u.Cargo,
			"roles":      u.Roles,
			"isDisabled": false,
			"updatedAt":  time.Now().UTC(),
		}},
	)
	return err
}

// SetResetCode stores a pending password reset code with its expiry.
func (r *UserRepo) SetResetCode(ctx context.Context, id primitive.ObjectID, code string, expires time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"passwordResetCode": code, "resetPasswordExpires": expires}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByResetCode resolves the user holding the given pending code,
// provided it has not expired. Expiry is only ever checked here; stale
// codes just sit on the document until overwritten.
func (r *UserRepo) FindByResetCode(ctx context.Context, email, code string, now time.Time) (model.User, error) {
	var u model.User
	err := r.col.FindOne(ctx, bson.M{
		"email":                strings.ToLower(strings.TrimSpace(email)),
		"passwordResetCode":    code,
		"resetPasswordExpires": bson.M{"$gt": now},
	}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, ErrResetCodeInvalid
	}
	return u, err
}

// ResetPassword stores the new digest and clears the pending code so it
// cannot be replayed.
func (r *UserRepo) ResetPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"password": hash, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"passwordResetCode": "", "resetPasswordExpires": ""},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
