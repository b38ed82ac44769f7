package reconcile

import (
	"sort"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Member is one tagged entry as seen by canonicalization.
type Member struct {
	ID        string
	Tag       string
	State     worklog.TaskState
	UpdatedAt time.Time
}

// Change moves one entry to its group's canonical state.
type Change struct {
	ID   string
	Tag  string
	From worklog.TaskState
	To   worklog.TaskState
}

// Canonicalize groups members by tag and returns the changes that bring every
// member of a group to the state of its most recently updated member with a
// state (greatest ID on ties). Groups of one, and groups where no member has
// a state, produce no changes.
func Canonicalize(members []Member) []Change {
	groups := make(map[string][]Member)
	for _, m := range members {
		if m.Tag == "" {
			continue
		}
		groups[m.Tag] = append(groups[m.Tag], m)
	}

	tags := make([]string, 0, len(groups))
	for tag := range groups {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	var changes []Change
	for _, tag := range tags {
		group := groups[tag]
		if len(group) < 2 {
			continue
		}
		canonical, ok := canonicalState(group)
		if !ok {
			continue
		}
		for _, m := range group {
			if m.State != canonical {
				changes = append(changes, Change{ID: m.ID, Tag: tag, From: m.State, To: canonical})
			}
		}
	}
	return changes
}

func canonicalState(group []Member) (worklog.TaskState, bool) {
	var (
		best  Member
		found bool
	)
	for _, m := range group {
		if m.State == worklog.StateNone || !m.State.Valid() {
			continue
		}
		if !found || m.UpdatedAt.After(best.UpdatedAt) || (m.UpdatedAt.Equal(best.UpdatedAt) && m.ID > best.ID) {
			best = m
			found = true
		}
	}
	return best.State, found
}
