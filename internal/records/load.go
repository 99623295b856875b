// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/popup-generator/pkg/types"
)

// Load reads and decodes the records file at path. The file is read in
// full on every call; nothing is cached. Any failure to read the file or
// to decode a top-level JSON array wraps ErrDataUnavailable.
//
// Entries are decoded leniently: an entry that is not an object, or whose
// name is not a string, is kept but marked Unnamed. Sub-field scalars are
// rendered as text (integers verbatim, other numbers as a 14-digit float,
// true as "1", false and null as "").
func Load(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrDataUnavailable, path, err)
	}
	recs, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, path, err)
	}
	return recs, nil
}

// Decode parses a JSON array of records. See Load for the decoding rules.
func Decode(data []byte) ([]types.Record, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("parsing JSON: invalid UTF-8")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if entries == nil {
		return nil, fmt.Errorf("parsing JSON: top-level value is null")
	}

	recs := make([]types.Record, 0, len(entries))
	for _, raw := range entries {
		recs = append(recs, decodeRecord(raw))
	}
	return recs, nil
}

func decodeRecord(raw json.RawMessage) types.Record {
	obj, ok := object(raw)
	if !ok {
		return types.Record{Unnamed: true}
	}

	var r types.Record
	if err := json.Unmarshal(obj["name"], &r.Name); err != nil || isNull(obj["name"]) {
		r.Unnamed = true
		r.Name = ""
	}

	if addr, ok := object(obj["address"]); ok {
		r.Address.Street = text(addr["street"])
		r.Address.City = text(addr["city"])
		r.Address.PostalCode = text(addr["postal_code"])
	}
	if contact, ok := object(obj["contact"]); ok {
		r.Contact.Email = text(contact["email"])
		r.Contact.Phone = text(contact["phone"])
	}
	return r
}

// object decodes raw as a JSON object. It reports false for any other
// JSON type, including null and absent values.
func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, false
	}
	return m, true
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// text renders a JSON scalar the way string interpolation would.
func text(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	case 't':
		return "1"
	case 'f', 'n', '{', '[':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return ""
		}
		return number(n.String())
	}
}

// number renders a JSON number literal. Literals that fit an int64 stay as
// written; anything else is a float printed with 14 significant digits and
// a mantissa that always carries a decimal point in exponent form.
func number(lit string) string {
	if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	s := strconv.FormatFloat(f, 'G', 14, 64)
	mant, exp, ok := strings.Cut(s, "E")
	if !ok {
		return s
	}
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if sign == "+" {
		return mant + "E+" + digits
	}
	return mant + "E-" + digits
}
