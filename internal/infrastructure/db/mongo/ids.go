package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/accessctl/identity-api/internal/core/domain"
)

// objectID validates id shape before any query is sent.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.IDNotValid("ID %s is not valid", id)
	}
	return oid, nil
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

// notFoundOr maps ErrNoDocuments to a tagged NotFound and wraps anything else.
func notFoundOr(err error, id, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NotFound("ID %s not found", id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
