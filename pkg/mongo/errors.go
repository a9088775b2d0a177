package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
)

// IsDuplicateKeyError detects unique index violations, e.g. a tenant slug
// registered twice.
func IsDuplicateKeyError(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// IsNotFoundError detects mongo.ErrNoDocuments for uniform "not found"
// handling.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, mongo.ErrNoDocuments)
}

// VendorCode extracts the server error code for attaching to the boundary
// error shape as metadata. Returns 0 for non-server errors.
func VendorCode(err error) int {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return int(cmdErr.Code)
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		return writeErr.WriteErrors[0].Code
	}
	return 0
}
