package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const namespace = "go-pagekit"

// UUID derives a deterministic UUID from key. Keys should carry a type
// prefix so different entity kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID is the storage id of the page document with slug.
func PageUUID(slug string) uuid.UUID {
	return UUID(namespace + ":page:" + strings.ToLower(strings.TrimSpace(slug)))
}

// BlockUUID is the stable id of a catalog block.
func BlockUUID(id string) uuid.UUID {
	return UUID(namespace + ":block:" + strings.ToLower(strings.TrimSpace(id)))
}
