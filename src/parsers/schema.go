package parsers

// schema maps each resolved logical field to its column index in the header.
type schema map[field]int

// resolveSchema matches the template's configured column names against the
// tokenized header row. A missing required column is a structural failure for
// the whole parse, so the missing header names are returned for the error
// message; optional columns are resolved when present and skipped otherwise.
func resolveSchema(headers []string, cfg templateConfig) (schema, []string) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	sch := make(schema)
	var missing []string
	for _, f := range cfg.required {
		name := cfg.columns[f]
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		sch[f] = i
	}
	for _, f := range cfg.optional {
		if i, ok := index[cfg.columns[f]]; ok {
			sch[f] = i
		}
	}
	return sch, missing
}
