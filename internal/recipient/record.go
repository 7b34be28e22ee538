// Package recipient loads and normalizes campaign recipient lists.
package recipient

// Field is one named value of a recipient record. Values are the JSON
// scalars (string, json.Number, bool, nil) plus nested maps and slices,
// passed through to template rendering unmodified.
type Field struct {
	Name  string
	Value any
}

// Record is one contact's field set in source order. Records are built by
// the loader and never mutated afterwards.
type Record struct {
	fields []Field
}

// Fields returns the record's fields in source order.
func (r Record) Fields() []Field {
	return r.fields
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.fields)
}

// Context exposes the record as template bindings keyed by exact field
// name. Later duplicates of a field name win, matching JSON object
// semantics.
func (r Record) Context() map[string]any {
	ctx := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		ctx[f.Name] = f.Value
	}
	return ctx
}

// Recipient is a record with its resolved delivery address.
type Recipient struct {
	// Address is the resolved email address, surrounding whitespace
	// trimmed, original case preserved.
	Address string
	Record  Record
}

// Single builds a one-off recipient carrying only the email field. Used
// for test sends, which bypass the loader and normalizer.
func Single(addr string) Recipient {
	return Recipient{
		Address: addr,
		Record:  Record{fields: []Field{{Name: "email", Value: addr}}},
	}
}
