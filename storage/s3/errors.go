package s3

import (
	"errors"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/memeforanyone/storage"
)

// classify maps SDK errors onto storage kinds. Missing keys, missing buckets
// and bare 404 responses (HeadObject has no error body) are not-found.
func classify(op, key string, err error) error {
	if isNotFound(err) {
		return storage.NotFound(op, key, err)
	}
	return storage.Other(op, key, err)
}

func isNotFound(err error) bool {
	var (
		nf       *types.NotFound
		noKey    *types.NoSuchKey
		noBucket *types.NoSuchBucket
		respErr  *awshttp.ResponseError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &noKey), errors.As(err, &noBucket):
		return true
	case errors.As(err, &respErr):
		return respErr.HTTPStatusCode() == http.StatusNotFound
	default:
		return false
	}
}
