// Package urn parses and formats SDMX artefact references.
//
// Two grammars are accepted: the full URN form
// (urn:sdmx:org.sdmx.infomodel.<package>.<Class>=<agency>:<id>(<version>)
// optionally followed by .<itemID>) and the short form
// (<Class>=<agency>:<id>(<version>) optionally followed by :<itemID>).
// Formatting a parsed reference always yields the short form, and parsing
// it back yields an equal reference.
package urn

import (
	"fmt"
	"regexp"

	"github.com/openstats/sdmx/sdmxerrors"
)

// Reference identifies a maintainable artefact, or an item within one.
type Reference struct {
	SdmxType string
	Agency   string
	ID       string
	Version  string
	ItemID   string
}

var (
	fullURNPattern = regexp.MustCompile(
		`^urn:sdmx:org\.sdmx\.infomodel\.[a-zA-Z]+\.` +
			`([A-Za-z]+)=([A-Za-z0-9_.$-]+):([A-Za-z0-9_$-]+)\(([0-9._+*~-]+)\)(?:\.(.+))?$`)
	shortURNPattern = regexp.MustCompile(
		`^([A-Za-z]+)=([A-Za-z0-9_.$-]+):([A-Za-z0-9_$-]+)\(([0-9._+*~-]+)\)(?::(.+))?$`)
)

// Parse extracts a Reference from a full or short URN string.
func Parse(s string) (Reference, error) {
	m := fullURNPattern.FindStringSubmatch(s)
	if m == nil {
		m = shortURNPattern.FindStringSubmatch(s)
	}
	if m == nil {
		return Reference{}, sdmxerrors.Parsef("invalid reference %q: matches neither URN nor short form", s)
	}
	ref := Reference{
		SdmxType: m[1],
		Agency:   m[2],
		ID:       m[3],
		Version:  m[4],
		ItemID:   m[5],
	}
	if ref.Agency == "" || ref.ID == "" || ref.Version == "" {
		return Reference{}, sdmxerrors.Parsef("invalid reference %q: empty agency, id or version", s)
	}
	return ref, nil
}

// ShortURN renders the reference in compact form.
func (r Reference) ShortURN() string {
	out := fmt.Sprintf("%s=%s:%s(%s)", r.SdmxType, r.Agency, r.ID, r.Version)
	if r.ItemID != "" {
		out += ":" + r.ItemID
	}
	return out
}

func (r Reference) String() string {
	return r.ShortURN()
}

// ShortURN is a convenience formatter for callers holding the identity
// fields directly rather than a Reference value.
func ShortURN(sdmxType, agency, id, version string) string {
	return Reference{SdmxType: sdmxType, Agency: agency, ID: id, Version: version}.ShortURN()
}
