package fixedwidth

// DateMarker is the declared type that marks a field as a calendar date.
const DateMarker = "DATE"

// ClassifyOptions control which schema columns drive date classification.
type ClassifyOptions struct {
	// NameColumn holds the field names. Defaults to "Name".
	NameColumn string
	// TypeColumn holds the declared types. Defaults to "Type".
	TypeColumn string
	// Marker is the declared type that denotes a date. Defaults to
	// DateMarker. Matching is exact and case-sensitive.
	Marker string
}

// DateFields returns the subset of fields whose declared type equals the
// marker, as a map of field name to declared type. Unknown configured
// column names fail with *UnknownColumnError.
func (s *Schema) DateFields(opts *ClassifyOptions) (map[string]string, error) {
	nameCol, typeCol, marker := "Name", "Type", DateMarker
	if opts != nil {
		if opts.NameColumn != "" {
			nameCol = opts.NameColumn
		}
		if opts.TypeColumn != "" {
			typeCol = opts.TypeColumn
		}
		if opts.Marker != "" {
			marker = opts.Marker
		}
	}

	names, err := s.Column(nameCol)
	if err != nil {
		return nil, err
	}
	types, err := s.Column(typeCol)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for i, name := range names {
		if types[i] == marker {
			out[name] = types[i]
		}
	}
	return out, nil
}
