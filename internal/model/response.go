package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Response is a document in the `responses` collection. IDQuestion is a
// non-owning reference to the parent questionnaire, resolved by lookup
// when listing. Removal is a soft delete via IsDeleted.
type Response struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	QuestionResponse string             `bson:"questionResponse" json:"questionResponse"`
	IDQuestion       primitive.ObjectID `bson:"idQuestion" json:"idQuestion"`
	IsDeleted        bool               `bson:"isDeleted" json:"isDeleted"`
}

// ResponseWithQuestion is a Response joined to its parent questionnaire.
// Question is nil when the referenced questionnaire no longer resolves.
// A soft-deleted questionnaire is still attached; its IsDeleted flag
// tells the caller the parent is gone.
type ResponseWithQuestion struct {
	Response `bson:",inline"`
	Question *Questionnaire `bson:"question,omitempty" json:"question,omitempty"`
}
