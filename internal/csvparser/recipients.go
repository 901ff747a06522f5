package csvparser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// Recipient is one row of a bulk-send CSV. Email comes from the
// "Email" column (case-insensitive); every other column ends up in
// Fields as template data.
type Recipient struct {
	Email  string
	Fields map[string]string
}

const DefaultMaxRows = 1000

var (
	ErrNoEmailColumn = errors.New("csv must contain an Email column")
	ErrNoRecipients  = errors.New("csv must contain at least one recipient row")
)

// ParseRecipients reads a CSV with a header row and returns up to
// maxRows recipients. Malformed rows and rows without an email address
// are skipped.
func ParseRecipients(r io.Reader, maxRows int) ([]Recipient, error) {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // malformed rows are skipped, not fatal

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.New("csv header row is missing")
	}

	emailIdx := -1
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
		if strings.EqualFold(headers[i], "email") {
			emailIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, ErrNoEmailColumn
	}

	var recipients []Recipient
	for len(recipients) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) != len(headers) {
			continue // skip malformed row
		}

		email := strings.TrimSpace(record[emailIdx])
		if email == "" {
			continue
		}

		fields := make(map[string]string, len(headers)-1)
		for i, v := range record {
			if i == emailIdx || headers[i] == "" {
				continue
			}
			fields[headers[i]] = strings.TrimSpace(v)
		}

		recipients = append(recipients, Recipient{Email: email, Fields: fields})
	}

	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	return recipients, nil
}
