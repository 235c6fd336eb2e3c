package upload

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/logger"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/retry"
)

// maxDisambiguation caps the numeric suffix search before a collision is
// surfaced as an error.
const maxDisambiguation = 100

// resolveDuplicate checks the category/day partition for an object holding
// the same bytes. Matching names are verified by full-digest comparison,
// never trusted alone: a name match with differing bytes is a truncated-
// identity collision and is reported through the collisions set so the
// caller picks a disambiguated key.
func (s *batchUploaderSrv) resolveDuplicate(ctx context.Context, id address.Identity, fullDigest, category string, day time.Time) (*model.UploadResult, map[string]bool, error) {
	prefix := address.PartitionPrefix(category, day)

	objs, err := retry.DoWithResult(ctx, s.cfg.Retry, func() ([]storedObject, error) {
		return s.listPartition(ctx, prefix)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("duplicate check under %q failed: %w", prefix, err)
	}

	collisions := map[string]bool{}
	for _, obj := range objs {
		if !strings.Contains(obj.Key, string(id)) {
			continue
		}

		data, err := retry.DoWithResult(ctx, s.cfg.Retry, func() ([]byte, error) {
			return s.getObject(ctx, obj.Key)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("fetching candidate %q failed: %w", obj.Key, err)
		}

		if address.FullDigest(data) == fullDigest {
			return &model.UploadResult{
				URL:       s.cdnURL(obj.Key),
				Key:       obj.Key,
				Identity:  string(id),
				SizeBytes: int64(len(data)),
				Duplicate: true,
			}, nil, nil
		}

		logger.Warnf(ctx, "identity prefix collision on %q: same prefix, different payload", obj.Key)
		collisions[obj.Key] = true
	}

	return nil, collisions, nil
}

// disambiguatedKey returns key itself when free, otherwise the first
// numbered variant not taken by a colliding object.
func disambiguatedKey(key string, collisions map[string]bool) (string, error) {
	if !collisions[key] {
		return key, nil
	}
	for n := 1; n <= maxDisambiguation; n++ {
		candidate := address.Disambiguate(key, n)
		if !collisions[candidate] {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("disambiguation exhausted for %q", key)
}
