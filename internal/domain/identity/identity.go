// Package identity derives stable keys for episode and show records coming
// from heterogeneous sources.
package identity

import (
	"fmt"
	"strings"
)

// Source carries the fields of a raw fetched item that can anchor an
// identity. Adapters populate it at the source boundary before any record is
// admitted into the pipeline.
type Source struct {
	// NativeID is the platform-native unique id (RSS guid, Spotify show id,
	// YouTube video id).
	NativeID string

	// Link is the canonical URL of the item, used when no native id exists.
	Link string
}

// Resolve returns the stable key for a record: the native id when present,
// otherwise the canonical link. Records with neither must be dropped by the
// caller; merging them under an empty key would silently collapse unrelated
// items into one.
func Resolve(src Source) (string, error) {
	if id := strings.TrimSpace(src.NativeID); id != "" {
		return id, nil
	}
	if link := strings.TrimSpace(src.Link); link != "" {
		return link, nil
	}
	return "", fmt.Errorf("resolve identity: %w", ErrMissingIdentity)
}
