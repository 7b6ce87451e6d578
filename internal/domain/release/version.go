package release

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Outcome tells how a Version was obtained.
type Outcome int

const (
	// Fallback means history could not describe the revision.
	Fallback Outcome = iota
	// Described means the long version came from git describe.
	Described
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Described:
		return "described"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

const (
	// separator joins the long version components.
	separator = "-"
	// hashPrefix precedes the abbreviated commit hash in describe output.
	hashPrefix = "g"
	// unknownMarker replaces the commit distance component in a fallback.
	unknownMarker = "unknown"
)

var errMalformedDescription = errors.New("malformed describe output")

// Version is the resolved version of the working tree.
type Version struct {
	// Short is the hand-maintained major.minor.patch version.
	Short string
	// Long is the full version written to the generated file.
	Long string
	// Outcome records whether Long was described or synthesized.
	Outcome Outcome
	// Distance is the number of commits since the tag. Always zero for a fallback.
	Distance int
	// Hash is the abbreviated commit hash without the "g" prefix. May be empty for a fallback.
	Hash string
}

// NewDescribed builds a Version from a tag description.
func NewDescribed(short string, distance int, hash string) Version {
	return Version{
		Short:    short,
		Long:     short + separator + strconv.Itoa(distance) + separator + hashPrefix + hash,
		Outcome:  Described,
		Distance: distance,
		Hash:     hash,
	}
}

// NewFallback builds the version used when history cannot describe the revision.
// An empty hash is valid.
func NewFallback(short, hash string) Version {
	return Version{
		Short:   short,
		Long:    short + separator + "0" + separator + unknownMarker + separator + hashPrefix + hash,
		Outcome: Fallback,
		Hash:    hash,
	}
}

// Major returns the package major version component, which is the short version.
func (v Version) Major() string {
	return v.Short
}

// Minor returns the long version without the short version prefix, hyphens turned into dots.
func (v Version) Minor() string {
	rest := strings.TrimPrefix(v.Long, v.Short+separator)

	return strings.ReplaceAll(rest, separator, ".")
}

// Line renders the generated file content.
func (v Version) Line() string {
	return fmt.Sprintf("__version__ = '%s'\n", v.Long)
}

// String implements fmt.Stringer.
func (v Version) String() string {
	return v.Long
}

// Description is a parsed "git describe --long" result.
type Description struct {
	// Tag is the nearest reachable tag.
	Tag string
	// Distance is the number of commits on top of Tag.
	Distance int
	// Hash is the abbreviated commit hash without the "g" prefix.
	Hash string
}

// ParseDescription parses "<tag>-<distance>-g<hash>". The tag itself may contain hyphens.
func ParseDescription(output string) (Description, error) {
	output = strings.TrimSpace(output)

	// Dirty markers are not part of the version.
	output = strings.TrimSuffix(output, "-dirty")

	hashAt := strings.LastIndex(output, separator)
	if hashAt <= 0 {
		return Description{}, fmt.Errorf("%q: %w", output, errMalformedDescription)
	}

	distanceAt := strings.LastIndex(output[:hashAt], separator)
	if distanceAt <= 0 {
		return Description{}, fmt.Errorf("%q: %w", output, errMalformedDescription)
	}

	distance, err := strconv.Atoi(output[distanceAt+1 : hashAt])
	if err != nil || distance < 0 {
		return Description{}, fmt.Errorf("%q: distance: %w", output, errMalformedDescription)
	}

	hash, ok := strings.CutPrefix(output[hashAt+1:], hashPrefix)
	if !ok || hash == "" || !isHex(hash) {
		return Description{}, fmt.Errorf("%q: hash: %w", output, errMalformedDescription)
	}

	return Description{
		Tag:      output[:distanceAt],
		Distance: distance,
		Hash:     hash,
	}, nil
}

// MatchesShort reports whether the tag names the given short version, ignoring a leading "v".
func (d Description) MatchesShort(short string) bool {
	return strings.TrimPrefix(d.Tag, "v") == short
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}

	return true
}
