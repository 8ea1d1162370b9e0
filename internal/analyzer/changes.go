package analyzer

import "github.com/repolens/repolens/internal/model"

// ChangeSet is the result of diffing a scan against the prior snapshot's
// fingerprints.
type ChangeSet struct {
	Added    []string // Paths new in this scan
	Modified []string // Paths whose fingerprint differs
	Removed  []string // Paths present before, absent now
}

// Empty reports whether nothing changed, which enables the fast path: the
// prior snapshot can be returned without parsing or assembling anything.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// ChangedSet returns the paths that must be re-parsed.
func (c *ChangeSet) ChangedSet() map[string]bool {
	set := make(map[string]bool, len(c.Added)+len(c.Modified))
	for _, p := range c.Added {
		set[p] = true
	}
	for _, p := range c.Modified {
		set[p] = true
	}
	return set
}

// diffFingerprints compares the current scan to the prior path→fingerprint
// map. Record order is already deterministic, so the change lists are too.
func diffFingerprints(current []model.FileRecord, prior map[string]string) *ChangeSet {
	changes := &ChangeSet{}

	seen := make(map[string]bool, len(current))
	for _, rec := range current {
		seen[rec.Path] = true
		prev, ok := prior[rec.Path]
		switch {
		case !ok:
			changes.Added = append(changes.Added, rec.Path)
		case prev != rec.Fingerprint:
			changes.Modified = append(changes.Modified, rec.Path)
		}
	}

	// Removed paths are collected from the prior map; order does not feed
	// into any output, only into symbol retention decisions.
	for path := range prior {
		if !seen[path] {
			changes.Removed = append(changes.Removed, path)
		}
	}

	return changes
}
