package driver

import "strings"

// Detector matches observed text against the configured block vocabulary.
// The vocabulary is data, not logic: adding a phrase never requires touching
// the executor state machine.
type Detector struct {
	phrases []string
}

// NewDetector builds a detector over the configured phrase list.
func NewDetector(phrases []string) *Detector {
	return &Detector{phrases: phrases}
}

// Match reports the first configured phrase present in the observed set.
// Comparison is case-insensitive.
func (d *Detector) Match(observed []string) (string, bool) {
	for _, o := range observed {
		lower := strings.ToLower(o)
		for _, p := range d.phrases {
			if strings.Contains(lower, strings.ToLower(p)) {
				return p, true
			}
		}
	}
	return "", false
}

// Scan reports the first configured phrase contained in a blob of page text.
func (d *Detector) Scan(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}
