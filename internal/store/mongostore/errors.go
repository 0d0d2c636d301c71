// Package mongostore implements the repositories on MongoDB, one collection
// per entity.
package mongostore

import (
	"errors"

	"github.com/happythoughts/apiserver/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	thoughtsCollection = "thoughts"
	usersCollection    = "users"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateKey
	}
	return err
}
