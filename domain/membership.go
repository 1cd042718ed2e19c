package domain

import (
	"fmt"
	"strings"
)

// MembershipPolicy decides which columns a note is placed in when it carries
// zero or several column tags.
type MembershipPolicy string

const (
	// MembershipDuplicate places a note in every column matching any of its tags.
	MembershipDuplicate MembershipPolicy = "duplicate"
	// MembershipFirst places a note only in the column of its first column tag.
	MembershipFirst MembershipPolicy = "first"
	// MembershipRejectMultiple leaves notes with more than one column tag off the board.
	MembershipRejectMultiple MembershipPolicy = "reject-multiple"
)

// ParseMembershipPolicy converts a configuration value into a policy. An empty
// value selects MembershipDuplicate.
func ParseMembershipPolicy(s string) (MembershipPolicy, error) {
	switch p := MembershipPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MembershipDuplicate, nil
	case MembershipDuplicate, MembershipFirst, MembershipRejectMultiple:
		return p, nil
	default:
		return "", fmt.Errorf("unknown membership policy %q", s)
	}
}

// Belongs reports whether the note should be rendered in the column.
func (p MembershipPolicy) Belongs(n Note, columnID string) bool {
	switch p {
	case MembershipFirst:
		tags := n.ColumnTags()
		return len(tags) > 0 && tags[0].Title == columnID
	case MembershipRejectMultiple:
		tags := n.ColumnTags()
		return len(tags) == 1 && tags[0].Title == columnID
	default:
		return n.HasTag(columnID)
	}
}
