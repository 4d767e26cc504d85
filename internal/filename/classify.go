// Package filename derives wiki page titles and permission tiers from local
// document file names.
package filename

import (
	"path/filepath"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// Reserved markers; each must sit immediately before the file extension.
const (
	MarkerInternal   = "[INT]"
	MarkerPublic     = "[PUB]"
	MarkerRestricted = "[RES]"
)

var markers = []struct {
	marker string
	tier   interfaces.PermissionTier
}{
	{MarkerInternal, interfaces.TierInternal},
	{MarkerPublic, interfaces.TierPublic},
	{MarkerRestricted, interfaces.TierRestricted},
}

// Classification is the result of inspecting one file name.
type Classification struct {
	Title string
	Tier  interfaces.PermissionTier
	// Group is only set for the internal tier, and only when configured.
	Group string
}

// Classifier maps file names to classifications. It is immutable once built.
type Classifier struct {
	internalGroup string
}

// NewClassifier builds a classifier that reports internalGroup for [INT] files.
func NewClassifier(internalGroup string) *Classifier {
	return &Classifier{internalGroup: strings.TrimSpace(internalGroup)}
}

// Classify uses the name without its extension as the title and detects a
// trailing tier marker. Markers are case-sensitive and only match as a suffix.
func (c *Classifier) Classify(name string) Classification {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	for _, m := range markers {
		if !strings.HasSuffix(stem, m.marker) {
			continue
		}
		out := Classification{Title: stem, Tier: m.tier}
		if m.tier == interfaces.TierInternal {
			out.Group = c.internalGroup
		}
		return out
	}

	return Classification{Title: stem, Tier: interfaces.TierNone}
}
