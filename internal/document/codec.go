package document

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter is the line that opens and closes the metadata block.
const Delimiter = "---"

// Parse parses raw document text. It never fails: a missing closing
// delimiter or undecodable metadata yields empty metadata, and an empty
// table yields the minimal one-column, one-row document.
func Parse(raw string) *Document {
	d := &Document{}

	body := raw
	if block, rest, ok := splitFrontmatter(raw); ok {
		body = strings.TrimLeft(rest, "\r\n")
		if m, ok := decodeMetadata(block); ok {
			d.Metadata = m
		}
	}

	d.Columns, d.Rows = parseTable(body)
	d.EnsureMinimal()
	return d
}

// splitFrontmatter splits raw into the metadata block and the remaining text.
// ok is false unless the first line and a later line are both Delimiter.
func splitFrontmatter(raw string) (block, rest string, ok bool) {
	first, after, found := strings.Cut(raw, "\n")
	if !found || strings.TrimSuffix(first, "\r") != Delimiter {
		return "", raw, false
	}

	offset := 0
	for {
		line, next, more := strings.Cut(after[offset:], "\n")
		if strings.TrimSuffix(line, "\r") == Delimiter {
			return after[:offset], next, true
		}
		if !more {
			return "", raw, false
		}
		offset += len(line) + 1
	}
}

// decodeMetadata decodes a YAML metadata block.
func decodeMetadata(block string) (Metadata, bool) {
	var m Metadata
	if err := yaml.Unmarshal([]byte(block), &m); err != nil {
		return Metadata{}, false
	}
	if len(m.Extra) == 0 {
		m.Extra = nil
	}
	return m, true
}

// parseTable reads the data block. Blank lines are skipped, short records
// are padded and extra fields dropped.
func parseTable(body string) ([]string, []Row) {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				continue
			}
			break
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, nil
	}

	columns := uniqueColumns(records[0])
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(columns))
		for i, c := range columns {
			if i < len(rec) {
				row[c] = rec[i]
			} else {
				row[c] = ""
			}
		}
		rows = append(rows, row)
	}
	return columns, rows
}

// uniqueColumns suffixes repeated header names with _1, _2, ...
func uniqueColumns(header []string) []string {
	columns := make([]string, 0, len(header))
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		unique := name
		for n := 1; seen[unique]; n++ {
			unique = name + "_" + strconv.Itoa(n)
		}
		seen[unique] = true
		columns = append(columns, unique)
	}
	return columns
}

// Serialize renders d as document text. Parse(Serialize(d)) equals d for any
// document produced by Parse.
func Serialize(d *Document) string {
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	b.WriteString(encodeMetadata(d.Metadata))
	b.WriteString(Delimiter + "\n")
	writeTable(&b, d.Columns, d.Rows)
	return b.String()
}

// encodeMetadata renders m as YAML with two-space indentation.
func encodeMetadata(m Metadata) string {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return "{}\n"
	}
	if err := enc.Close(); err != nil {
		return "{}\n"
	}
	return buf.String()
}

// writeTable writes the header and rows as CSV. A record consisting of one
// empty field is written as "" so the reader does not skip it as blank.
func writeTable(b *strings.Builder, columns []string, rows []Row) {
	w := csv.NewWriter(b)
	write := func(rec []string) {
		if len(rec) == 1 && rec[0] == "" {
			w.Flush()
			b.WriteString(`""` + "\n")
			return
		}
		_ = w.Write(rec)
	}

	write(columns)
	rec := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			rec[i] = row[c]
		}
		write(rec)
	}
	w.Flush()
}
