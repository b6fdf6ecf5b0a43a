package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role labels assigned to users. Tokens carry one or more of these and
// the role gate middleware checks them against each route's allowed set.
const (
	RoleAdmin     = "ADMIN"
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
)

// ValidRole reports whether the given label is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}

// AdminEmail is the seeded administrator identity. The bulk user import
// never deactivates this account.
const AdminEmail = "admin@admin.com"

// User is a document in the `users` collection. Email is unique across
// the whole collection, disabled users included, and is always stored
// lowercased. Password holds a bcrypt digest; the reset fields are only
// set while a password reset is pending.
type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	Email                string             `bson:"email" json:"email"`
	Password             string             `bson:"password" json:"-"`
	Roles                []string           `bson:"roles" json:"roles"`
	CPF                  string             `bson:"cpf" json:"cpf"`
	Phone                string             `bson:"phone" json:"phone"`
	Cargo                string             `bson:"cargo" json:"cargo"`
	PasswordResetCode    string             `bson:"passwordResetCode,omitempty" json:"-"`
	ResetPasswordExpires *time.Time         `bson:"resetPasswordExpires,omitempty" json:"-"`
	IsDisabled           bool               `bson:"isDisabled" json:"isDisabled"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}
