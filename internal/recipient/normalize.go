package recipient

import (
	"strings"

	"github.com/stratomail/blast/internal/email"
)

// RejectReason classifies why a record was dropped during normalization.
type RejectReason string

const (
	ReasonNoEmailField       RejectReason = "no_email_field"
	ReasonInvalidEmailSyntax RejectReason = "invalid_email_syntax"
	ReasonDuplicateAddress   RejectReason = "duplicate_address"
)

// emailAliases are the recognized names for the address field, compared
// case-insensitively against record field names.
var emailAliases = map[string]bool{
	"email":  true,
	"e-mail": true,
	"mail":   true,
}

// Rejection records one dropped record with its position in the source
// list and, when an address was resolved, the offending address.
type Rejection struct {
	Index   int
	Reason  RejectReason
	Address string
}

// Normalize resolves each record's email address, validates its syntax
// and drops duplicates, keeping the first occurrence. Output order equals
// input order minus rejections. Normalize never fails: every record
// independently resolves to kept or rejected.
func Normalize(recs []Record) ([]Recipient, []Rejection) {
	var (
		kept     []Recipient
		rejected []Rejection
		seen     = make(map[string]bool)
	)

	for i, rec := range recs {
		addr, found := resolveAddress(rec)
		if !found {
			rejected = append(rejected, Rejection{Index: i, Reason: ReasonNoEmailField})
			continue
		}
		if !email.ValidSyntax(addr) {
			rejected = append(rejected, Rejection{Index: i, Reason: ReasonInvalidEmailSyntax, Address: addr})
			continue
		}

		key := email.Canonical(addr)
		if seen[key] {
			rejected = append(rejected, Rejection{Index: i, Reason: ReasonDuplicateAddress, Address: addr})
			continue
		}
		seen[key] = true

		kept = append(kept, Recipient{Address: addr, Record: rec})
	}

	return kept, rejected
}

// resolveAddress scans the record's fields in order for the first one
// whose name matches a recognized alias and whose value is a non-empty
// string.
func resolveAddress(rec Record) (string, bool) {
	for _, f := range rec.fields {
		if !emailAliases[strings.ToLower(f.Name)] {
			continue
		}
		s, ok := f.Value.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		return s, true
	}
	return "", false
}
