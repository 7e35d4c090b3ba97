package parsers

import "strings"

// splitLines trims the input and splits it into raw lines on \r?\n.
func splitLines(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// detectDelimiter picks tab when the header line contains one, else comma.
// Tab wins even when commas also appear inside fields.
func detectDelimiter(header string) string {
	if strings.Contains(header, "\t") {
		return "\t"
	}
	return ","
}

// splitFields splits one line on the detected delimiter, trimming whitespace
// and surrounding double quotes from every field.
func splitFields(line, delimiter string) []string {
	fields := strings.Split(line, delimiter)
	for i, f := range fields {
		fields[i] = strings.Trim(strings.TrimSpace(f), `"`)
	}
	return fields
}
