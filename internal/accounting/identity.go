package accounting

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"tally/internal/ident"
)

// ResolveRawIdentities derives the canonical (day, session) identity for every
// convention-valid raw unit of one participant and interview type. A unit
// whose timestamp collides with an earlier sibling is logged and left out of
// the result rather than silently sharing a session number; nonconforming
// names are ignored here because the SOP check accounts for them.
func (r *Runner) ResolveRawIdentities(participant, interviewType string, consentDate time.Time) (map[string]ident.Identity, error) {
	rawDir := r.tree.RawDir(participant, interviewType)
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list raw interviews: %w", err)
	}

	names := make([]string, 0, len(entries))
	dirs := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
		dirs[entry.Name()] = entry.IsDir()
	}
	isDir := func(name string) bool { return dirs[name] }

	identities := make(map[string]ident.Identity)
	for _, name := range names {
		if !ident.ValidRawName(name, interviewType, dirs[name]) {
			continue
		}
		identity, err := ident.Resolve(name, names, interviewType, isDir, consentDate)
		if err != nil {
			if errors.Is(err, ident.ErrDuplicateTimestamp) {
				r.logger.Warn("raw unit collides with a sibling timestamp, skipping",
					"participant", participant, "interview_type", interviewType, "name", name, "error", err)
				continue
			}
			r.logger.Warn("raw unit identity unresolvable, skipping",
				"participant", participant, "interview_type", interviewType, "name", name, "error", err)
			continue
		}
		identities[name] = identity
	}
	return identities, nil
}
