// Package method canonicalizes special training method identifiers and their
// configuration payloads. Persisted data arrives in several inconsistent
// shapes (legacy names, mixed case, singular vs list-shaped drop-set configs);
// everything is normalized here so the rest of the engine only ever sees one
// canonical form per variant.
package method

import (
	"strings"
)

// Tag is the canonical identifier of a special training method. The zero
// value means standard straight sets (no special method).
type Tag string

const (
	Standard      Tag = ""
	DropSet       Tag = "drop_set"
	MyorepMatch   Tag = "myorep_match"
	MyorepNoMatch Tag = "myorep_no_match"
	GiantSet      Tag = "giant_set"
	Superset      Tag = "superset"
	RestPause     Tag = "rest_pause"
	ClusterSet    Tag = "cluster_set"
)

// Normalize maps a raw persisted method identifier to its canonical tag.
// Matching ignores case, underscores, hyphens, and spaces, so "DropSet",
// "drop_set", and "dropset" all normalize to DropSet. Unrecognized values
// normalize to Standard rather than erroring: an unknown persisted method
// must never block workout execution.
func Normalize(raw string) Tag {
	key := strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(raw))

	switch key {
	case "dropset":
		return DropSet
	case "myorepmatch", "myorep":
		return MyorepMatch
	case "myorepnomatch":
		return MyorepNoMatch
	case "giantset":
		return GiantSet
	case "superset":
		return Superset
	case "restpause":
		return RestPause
	case "clusterset":
		return ClusterSet
	}
	return Standard
}
