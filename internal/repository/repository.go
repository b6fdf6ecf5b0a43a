// Package repository contains data access logic separated from HTTP
// handlers. Each entity family owns one collection; every method issues
// single-document or single-bulk Mongo operations, so atomicity is
// whatever the storage engine provides per operation. Sentinel errors
// let handlers map failures to HTTP statuses without inspecting driver
// internals.
package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID marks a path or reference parameter that is not a valid
// object id hex string. Most operations fold this case into their
// not-found sentinel; list filters surface it so handlers can answer
// 400 instead of an empty 200.
var ErrInvalidID = errors.New("invalid id")

// oid parses a hex string into an ObjectID. Callers treat a malformed
// id the same as an id that does not resolve.
func oid(id string) (primitive.ObjectID, bool) {
	parsed, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return parsed, true
}
