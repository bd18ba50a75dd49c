package repos

import (
	"encoding/json"
	"fmt"
	"strings"

	"medicart/internal/domain"
)

// DecodeError reports a stored record that does not have the expected shape.
type DecodeError struct {
	Table string
	ID    string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %s: field %s: %v", e.Table, e.ID, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func encodeLines(lines []domain.LineItem) (string, error) {
	if lines == nil {
		lines = []domain.LineItem{}
	}
	b, err := json.Marshal(lines)
	return string(b), err
}

// decodeLines parses and checks a stored line-item list.
func decodeLines(table, id, field, raw string) ([]domain.LineItem, error) {
	var lines []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, &DecodeError{Table: table, ID: id, Field: field, Err: err}
	}
	for i, l := range lines {
		at := fmt.Sprintf("%s[%d]", field, i)
		switch {
		case strings.TrimSpace(l.ProductName) == "":
			return nil, &DecodeError{Table: table, ID: id, Field: at + ".product_name", Err: fmt.Errorf("empty")}
		case l.Quantity < 0:
			return nil, &DecodeError{Table: table, ID: id, Field: at + ".quantity", Err: fmt.Errorf("negative: %d", l.Quantity)}
		case l.Price.IsNegative():
			return nil, &DecodeError{Table: table, ID: id, Field: at + ".price", Err: fmt.Errorf("negative: %s", l.Price)}
		}
	}
	return lines, nil
}
