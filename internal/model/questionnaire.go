package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Questionnaire is a document in the `questionnaires` collection.
// Removal is a soft delete via IsDeleted.
type Questionnaire struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question  string             `bson:"question" json:"question"`
	IsDeleted bool               `bson:"isDeleted" json:"isDeleted"`
}
