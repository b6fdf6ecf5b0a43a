package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Collaborator is a document in the `collaborators` collection. Plain
// CRUD entity, no lifecycle flag.
type Collaborator struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email" json:"email"`
	Phone string             `bson:"phone" json:"phone"`
}
