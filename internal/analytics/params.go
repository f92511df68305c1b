package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// Params bundles every engine tunable.
type Params struct {
	// MinSessions gates the load ratio view.
	MinSessions  int                `json:"minSessions"`
	Fitness      FitnessConfig      `json:"fitness"`
	Hierarchical HierarchicalConfig `json:"hierarchical"`
	SFR          SFRConfig          `json:"sfr"`
}

// DefaultParams returns the documented engine defaults.
func DefaultParams() Params {
	return Params{
		MinSessions:  3,
		Fitness:      DefaultFitnessConfig(),
		Hierarchical: DefaultHierarchicalConfig(),
		SFR:          DefaultSFRConfig(),
	}
}

// Include selects which snapshot views to compute.
type Include uint8

const (
	IncludeACWR Include = 1 << iota
	IncludeFitnessFatigue
	IncludeHierarchical
	IncludePersonalStats
	IncludeExerciseRates
	IncludeRecovery
	IncludeSFR

	IncludeAll = IncludeACWR | IncludeFitnessFatigue | IncludeHierarchical |
		IncludePersonalStats | IncludeExerciseRates | IncludeRecovery | IncludeSFR
)

// ErrUnknownInclude is returned by ParseInclude for an unrecognised view.
var ErrUnknownInclude = errors.New("unknown analytics view")

var includeNames = map[string]Include{
	"acwr":            IncludeACWR,
	"fitness_fatigue": IncludeFitnessFatigue,
	"hierarchical":    IncludeHierarchical,
	"personal_stats":  IncludePersonalStats,
	"exercise_rates":  IncludeExerciseRates,
	"recovery":        IncludeRecovery,
	"sfr":             IncludeSFR,
	"all":             IncludeAll,
}

// ParseInclude parses a comma-separated view list. Empty means all.
func ParseInclude(s string) (Include, error) {
	var inc Include
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		v, ok := includeNames[part]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownInclude, part)
		}
		inc |= v
	}
	if inc == 0 {
		inc = IncludeAll
	}
	return inc, nil
}

// Has reports whether any of the given views is selected.
func (i Include) Has(v Include) bool {
	return i&v != 0
}
