package dice

import (
	"fmt"
	"strings"
)

// Face is the value shown by a single die, in [0,5]. Face 5 is the wild
// ("star") face which counts towards every non-wild bet.
type Face uint8

const (
	// Wild matches any non-wild bet face when dice are counted.
	Wild Face = 5
	// NumFaces is the number of distinct faces on a die.
	NumFaces = 6
)

// Valid reports whether f is a face a die can show.
func (f Face) Valid() bool {
	return f < NumFaces
}

// IsWild reports whether f is the wild face.
func (f Face) IsWild() bool {
	return f == Wild
}

// Matches reports whether a die showing f counts towards a bet on target.
func (f Face) Matches(target Face) bool {
	if f == target {
		return true
	}
	return !target.IsWild() && f.IsWild()
}

func (f Face) String() string {
	if f.IsWild() {
		return "*"
	}
	if !f.Valid() {
		return "?"
	}
	return string(rune('0' + f))
}

// ParseFace parses a face as produced by Face.String. "5" is accepted as an
// alias for the wild face.
func ParseFace(s string) (Face, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "*", "w", "W", "5":
		return Wild, nil
	}
	if len(s) != 1 || s[0] < '0' || s[0] > '4' {
		return 0, fmt.Errorf("%w: invalid face %q", ErrOutOfRange, s)
	}
	return Face(s[0] - '0'), nil
}

// FormatFaces formats a hand such as [0 3 *].
func FormatFaces(faces []Face) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// CountMatching counts the dice across all hands that count towards a bet on
// face: dice equal to face, plus wild dice when face is not wild.
func CountMatching(hands [][]Face, face Face) int {
	count := 0
	for _, hand := range hands {
		for _, f := range hand {
			if f.Matches(face) {
				count++
			}
		}
	}
	return count
}
