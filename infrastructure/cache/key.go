// Package cache provides the response cache backends and canonical key
// derivation for upstream payloads.
package cache

import (
	"crypto/md5"
	"fmt"
	"sort"

	"github.com/google/go-querystring/query"

	"tubepulse/domain/model"
)

// Key derives the canonical cache key for an operation and its parameters.
// Params is a struct with `url` tags; encoding sorts keys and values, so
// semantically identical requests always map to the same key regardless of
// parameter order.
func Key(op model.OperationKind, params interface{}) string {
	values, err := query.Values(params)
	if err != nil {
		return fmt.Sprintf("yt:%s:%x", op, md5.Sum([]byte(fmt.Sprintf("%+v", params))))
	}
	for k := range values {
		sort.Strings(values[k])
	}
	return fmt.Sprintf("yt:%s:%x", op, md5.Sum([]byte(values.Encode())))
}
