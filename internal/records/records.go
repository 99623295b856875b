// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records loads address/contact records and composes popup
// descriptions from them. Everything here is a pure function over its
// inputs except Load, which reads the records file.
package records

import (
	"errors"
	"strings"

	"github.com/pdiddy/popup-generator/pkg/types"
)

var (
	// ErrDataUnavailable reports that the records file is missing,
	// unreadable, or not a JSON array.
	ErrDataUnavailable = errors.New("records data unavailable")

	// ErrNoMatch reports that no record carries the requested name.
	ErrNoMatch = errors.New("no matching record")
)

// trimCutset matches PHP's trim() default character list.
const trimCutset = " \t\n\r\x00\x0B"

// Lookup returns the first record whose name equals name exactly. Later
// records with the same name are ignored.
func Lookup(records []types.Record, name string) (types.Record, error) {
	for _, r := range records {
		if r.Unnamed {
			continue
		}
		if r.Name == name {
			return r, nil
		}
	}
	return types.Record{}, ErrNoMatch
}

// Compose renders the four-line popup description for r: street, postal
// code and city, email, phone. Leading and trailing whitespace of the
// whole text is trimmed, so a record with no fields yields "".
func Compose(r types.Record) string {
	var b strings.Builder
	b.WriteString(r.Address.Street)
	b.WriteByte('\n')
	b.WriteString(r.Address.PostalCode)
	b.WriteByte(' ')
	b.WriteString(r.Address.City)
	b.WriteByte('\n')
	b.WriteString(r.Contact.Email)
	b.WriteByte('\n')
	b.WriteString(r.Contact.Phone)
	return strings.Trim(b.String(), trimCutset)
}

// Describe looks up name and composes its description. found is false
// when no record matches, in which case the description is "".
func Describe(records []types.Record, name string) (desc string, found bool) {
	r, err := Lookup(records, name)
	if err != nil {
		return "", false
	}
	return Compose(r), true
}

// Duplicates returns the names carried by more than one record together
// with their occurrence counts.
func Duplicates(records []types.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Unnamed {
			continue
		}
		counts[r.Name]++
	}
	dups := make(map[string]int)
	for name, n := range counts {
		if n > 1 {
			dups[name] = n
		}
	}
	return dups
}
