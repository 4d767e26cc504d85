package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	return derive(key, true)
}

// ExactUUID is UUID without key normalisation, for case-sensitive keys.
func ExactUUID(key string) uuid.UUID {
	return derive(key, false)
}

func derive(key string, normalize bool) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(normalize))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageID is the id an offline directory assigns to the page titled title
// under parentID in space. Titles are case-sensitive on the wiki, so they are
// only trimmed.
func PageID(space, parentID, title string) string {
	return ExactUUID("wikisync:page:" + strings.TrimSpace(space) + ":" + strings.TrimSpace(parentID) + ":" + strings.TrimSpace(title)).String()
}

// AttachmentID identifies the attachment named fileName on a page.
func AttachmentID(pageID, fileName string) string {
	return ExactUUID("wikisync:attachment:" + strings.TrimSpace(pageID) + ":" + strings.TrimSpace(fileName)).String()
}

// SpaceID is the offline stand-in for the numeric id the wiki assigns a space.
func SpaceID(key string) string {
	return UUID("wikisync:space:" + strings.ToUpper(strings.TrimSpace(key))).String()
}

// RunID returns a random id for one synchronization run.
func RunID() uuid.UUID {
	return uuid.New()
}
