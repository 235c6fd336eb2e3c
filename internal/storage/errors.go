package storage

import (
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/autumnsgrove/cdnup/internal/model"
)

func mapStorageErr(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return model.ErrObjectNotFound
	case "NoSuchBucket":
		return model.ErrBucketNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %v", model.ErrAuth, err)
	case "QuotaExceeded", "TooManyBuckets":
		return fmt.Errorf("%w: %v", model.ErrQuotaExceeded, err)
	default:
		// timeouts, 5xx and anything unclassified are treated as transient
		return fmt.Errorf("%w: %v", model.ErrTransient, err)
	}
}
