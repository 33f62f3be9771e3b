package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys are the valid dotted keys in the config file.
var knownKeys = map[string]bool{
	"server_url":                 true,
	"storage.backend":            true,
	"storage.path":               true,
	"session.renew_before":       true,
	"session.keepalive_interval": true,
	"logging.log_level":          true,
	"logging.log_format":         true,
	"network.connect_timeout":    true,
	"network.data_timeout":       true,
	"network.max_retries":        true,
	"network.user_agent":         true,
}

// knownKeysList is the sorted slice form of knownKeys. Sorted for
// deterministic suggestions when two candidates have the same edit distance.
var knownKeysList = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		errs = append(errs, unknownKeyError(key.String()))
	}

	return errors.Join(errs...)
}

// unknownKeyError builds a descriptive error for an unknown key. Suggestions
// are searched among keys in the same section first so that a typo inside
// [network] is not matched against a [session] key.
func unknownKeyError(keyStr string) error {
	candidates := knownKeysList

	if section, _, ok := strings.Cut(keyStr, "."); ok {
		candidates = sectionKeys(section)
	}

	if suggestion := closestMatch(keyStr, candidates); suggestion != "" {
		return fmt.Errorf("unknown config key %q (did you mean %q?)", keyStr, suggestion)
	}

	return fmt.Errorf("unknown config key %q", keyStr)
}

// sectionKeys returns the known keys belonging to section. Falls back to all
// keys when the section itself is unknown.
func sectionKeys(section string) []string {
	var keys []string

	for _, k := range knownKeysList {
		if strings.HasPrefix(k, section+".") {
			keys = append(keys, k)
		}
	}

	if len(keys) == 0 {
		return knownKeysList
	}

	return keys
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
