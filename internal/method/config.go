package method

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Variant defaults. These back-fill any field missing from a persisted
// config so downstream code never has to zero-check.
const (
	DefaultDropCount       = 3
	DefaultDropReduction   = 15.0 // percent per drop
	DefaultDropTargetReps  = 8
	DefaultDropRestSec     = 10
	DefaultActivationReps  = 15
	DefaultMiniSets        = 3
	DefaultMyorepRestSec   = 20
	DefaultGiantTotalReps  = 40
	DefaultGiantMiniReps   = 5
	DefaultGiantRestSec    = 10
	DefaultSupersetRestSec = 60
)

// DropSetConfig holds per-drop weight reductions (percent of the working
// weight) and matching target reps. The two slices are kept the same length.
type DropSetConfig struct {
	WeightReductions []float64 `json:"weightReductions"`
	TargetReps       []int     `json:"targetReps"`
	RestSec          int       `json:"restSec"`
}

// MyorepConfig is shared by myorep match/no-match and the legacy rest-pause
// and cluster-set variants, which have the same mini-set structure.
type MyorepConfig struct {
	ActivationReps int  `json:"activationReps"`
	MiniSets       int  `json:"miniSets"`
	RestSec        int  `json:"restSec"`
	ActivationSet  bool `json:"activationSet"`
}

// GiantSetConfig accumulates a rep total across short mini-sets.
type GiantSetConfig struct {
	TotalReps   int `json:"totalReps"`
	MiniSetReps int `json:"miniSetReps"`
	RestSec     int `json:"restSec"`
}

// SupersetConfig pairs this exercise with another by catalog exercise ID.
// Only the ID is stored; the live entry is resolved at transition time.
type SupersetConfig struct {
	PairedExerciseID uuid.UUID `json:"pairedExerciseId"`
	RestSec          int       `json:"restSec"`
}

// Config is a tagged union: exactly the field matching Tag is non-nil
// (all nil for Standard). Marshals to the variant-shaped JSON used by the
// save contract, not to a wrapper object.
type Config struct {
	Tag      Tag
	DropSet  *DropSetConfig
	Myorep   *MyorepConfig
	GiantSet *GiantSetConfig
	Superset *SupersetConfig
}

// MarshalJSON emits the variant shape directly; the tag travels separately
// as the specialMethod string.
func (c Config) MarshalJSON() ([]byte, error) {
	switch c.Tag {
	case DropSet:
		return json.Marshal(c.DropSet)
	case MyorepMatch, MyorepNoMatch, RestPause, ClusterSet:
		return json.Marshal(c.Myorep)
	case GiantSet:
		return json.Marshal(c.GiantSet)
	case Superset:
		return json.Marshal(c.Superset)
	}
	return []byte("null"), nil
}

// Default returns the fully-defaulted config for a tag.
func Default(tag Tag) Config {
	return NormalizeConfig(tag, nil)
}

// rawConfig accepts every persisted shape at once: the canonical list-shaped
// drop-set fields, the legacy singular {drops, weightReduction} shape, and
// the shared myorep/giant/superset fields. Pointers distinguish absent from
// zero so defaults only fill genuinely missing fields.
type rawConfig struct {
	// drop set, list shape
	WeightReductions []float64 `json:"weightReductions"`
	TargetRepsList   []int     `json:"targetReps"`
	// drop set, legacy singular shape
	Drops           *int     `json:"drops"`
	DropSets        *int     `json:"dropSets"`
	WeightReduction *float64 `json:"weightReduction"`

	RestSec *int `json:"restSec"`

	// myorep family
	ActivationReps *int  `json:"activationReps"`
	MiniSets       *int  `json:"miniSets"`
	ActivationSet  *bool `json:"activationSet"`

	// giant set; miniSetReps arrives numeric or textual ("5")
	TotalReps   *int            `json:"totalReps"`
	MiniSetReps json.RawMessage `json:"miniSetReps"`

	// superset
	PairedExerciseID *uuid.UUID `json:"pairedExerciseId"`
}

// NormalizeConfig parses a raw persisted config for the given tag, migrates
// legacy shapes, and fills variant defaults for missing fields. It is pure
// and fail-open: malformed input yields the variant defaults, and a Standard
// tag always yields an empty Config.
func NormalizeConfig(tag Tag, raw json.RawMessage) Config {
	var rc rawConfig
	if len(raw) > 0 {
		// Parse errors are deliberately ignored; rc stays zero and the
		// variant defaults apply.
		_ = json.Unmarshal(raw, &rc)
	}

	switch tag {
	case DropSet:
		return Config{Tag: tag, DropSet: normalizeDropSet(rc)}
	case MyorepMatch, MyorepNoMatch, RestPause, ClusterSet:
		return Config{Tag: tag, Myorep: normalizeMyorep(rc)}
	case GiantSet:
		return Config{Tag: tag, GiantSet: normalizeGiantSet(rc)}
	case Superset:
		return Config{Tag: tag, Superset: normalizeSuperset(rc)}
	}
	return Config{}
}

func normalizeDropSet(rc rawConfig) *DropSetConfig {
	cfg := &DropSetConfig{
		WeightReductions: rc.WeightReductions,
		TargetReps:       rc.TargetRepsList,
		RestSec:          DefaultDropRestSec,
	}
	if rc.RestSec != nil {
		cfg.RestSec = *rc.RestSec
	}

	if len(cfg.WeightReductions) == 0 {
		// Legacy singular shape: a drop count plus one uniform reduction,
		// expanded into the list shape. "drops" and "dropSets" are the two
		// field names seen in old payloads.
		count := DefaultDropCount
		if rc.Drops != nil && *rc.Drops > 0 {
			count = *rc.Drops
		} else if rc.DropSets != nil && *rc.DropSets > 0 {
			count = *rc.DropSets
		}
		reduction := DefaultDropReduction
		if rc.WeightReduction != nil && *rc.WeightReduction > 0 {
			reduction = *rc.WeightReduction
		}
		cfg.WeightReductions = make([]float64, count)
		for i := range cfg.WeightReductions {
			cfg.WeightReductions[i] = reduction
		}
	}

	// Pad or trim target reps to match the drop count.
	for len(cfg.TargetReps) < len(cfg.WeightReductions) {
		cfg.TargetReps = append(cfg.TargetReps, DefaultDropTargetReps)
	}
	cfg.TargetReps = cfg.TargetReps[:len(cfg.WeightReductions)]

	return cfg
}

func normalizeMyorep(rc rawConfig) *MyorepConfig {
	cfg := &MyorepConfig{
		ActivationReps: DefaultActivationReps,
		MiniSets:       DefaultMiniSets,
		RestSec:        DefaultMyorepRestSec,
		ActivationSet:  true,
	}
	if rc.ActivationReps != nil {
		cfg.ActivationReps = *rc.ActivationReps
	}
	if rc.MiniSets != nil {
		cfg.MiniSets = *rc.MiniSets
	}
	if rc.RestSec != nil {
		cfg.RestSec = *rc.RestSec
	}
	if rc.ActivationSet != nil {
		cfg.ActivationSet = *rc.ActivationSet
	}
	return cfg
}

func normalizeGiantSet(rc rawConfig) *GiantSetConfig {
	cfg := &GiantSetConfig{
		TotalReps:   DefaultGiantTotalReps,
		MiniSetReps: DefaultGiantMiniReps,
		RestSec:     DefaultGiantRestSec,
	}
	if rc.TotalReps != nil {
		cfg.TotalReps = *rc.TotalReps
	}
	if rc.RestSec != nil {
		cfg.RestSec = *rc.RestSec
	}
	if n, ok := parseFlexInt(rc.MiniSetReps); ok && n > 0 {
		cfg.MiniSetReps = n
	}
	return cfg
}

func normalizeSuperset(rc rawConfig) *SupersetConfig {
	cfg := &SupersetConfig{RestSec: DefaultSupersetRestSec}
	if rc.PairedExerciseID != nil {
		cfg.PairedExerciseID = *rc.PairedExerciseID
	}
	if rc.RestSec != nil {
		cfg.RestSec = *rc.RestSec
	}
	return cfg
}

// parseFlexInt reads an int from raw JSON that may be a number or a quoted
// string ("5"). Returns false if absent or unparseable.
func parseFlexInt(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	// Tolerate "5 reps" style text by taking the leading digits.
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
