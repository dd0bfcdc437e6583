package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/itchyny/gojq"

	"github.com/helalist/hela/pkg/api"
)

const (
	FormatJSON  = "json"
	FormatTable = "table"
)

// Printer writes API results to Out as indented JSON or as a table, optionally filtered through
// a jq query first.
type Printer struct {
	Out    io.Writer
	Format string
	Theme  *Theme

	query *gojq.Code
}

func NewPrinter(out io.Writer, format, query string) (*Printer, error) {
	switch format {
	case "", FormatJSON:
		format = FormatJSON
	case FormatTable:
	default:
		return nil, fmt.Errorf("unknown output format %q, expected %s or %s", format, FormatJSON, FormatTable)
	}
	p := &Printer{Out: out, Format: format, Theme: DefaultTheme()}
	if strings.TrimSpace(query) != "" {
		parsed, err := gojq.Parse(query)
		if err != nil {
			return nil, fmt.Errorf("parse query %q: %w", query, err)
		}
		code, err := gojq.Compile(parsed)
		if err != nil {
			return nil, fmt.Errorf("compile query %q: %w", query, err)
		}
		p.query = code
	}
	return p, nil
}

// HasQuery reports whether output is filtered through a jq query.
func (p *Printer) HasQuery() bool {
	return p.query != nil
}

// Print renders a dispatcher result. Text replies are written verbatim unless a query is set.
func (p *Printer) Print(res *api.Result) error {
	if res == nil {
		return nil
	}
	if res.Kind == api.KindText {
		if p.query == nil {
			return p.writeLine(res.Text)
		}
		v, err := decodeJSON([]byte(res.Text))
		if err != nil {
			return p.writeLine(res.Text)
		}
		return p.render(v)
	}
	v, err := decodeJSON(res.Raw)
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return p.render(v)
}

// Value renders any JSON-serializable value the same way Print renders a result.
func (p *Printer) Value(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	generic, err := decodeJSON(data)
	if err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return p.render(generic)
}

// Table writes a table with the given headers, ignoring the output format.
func (p *Printer) Table(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.Theme.Dim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.Theme.Bold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return p.writeLine(t.String())
}

// Success writes a styled confirmation line.
func (p *Printer) Success(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return p.writeLine(p.Theme.Styled(p.Theme.Green, p.Theme.Check) + " " + msg)
}

func (p *Printer) render(v any) error {
	values := []any{v}
	if p.query != nil {
		var err error
		values, err = p.run(v)
		if err != nil {
			return err
		}
	}
	for _, value := range values {
		if err := p.renderOne(value); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) run(v any) ([]any, error) {
	var out []any
	iter := p.query.Run(v)
	for {
		res, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := res.(error); ok {
			return nil, fmt.Errorf("run query: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (p *Printer) renderOne(v any) error {
	if s, ok := v.(string); ok {
		return p.writeLine(s)
	}
	if p.Format == FormatTable {
		if headers, rows, ok := tabulate(v); ok {
			return p.Table(headers, rows)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return p.writeLine(string(data))
}

// decodeJSON decodes a single JSON value, keeping numbers as json.Number so large IDs survive.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func (p *Printer) writeLine(s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(p.Out, s)
	return err
}

// tabulate lays out arrays of objects as one row per element, objects as key/value rows and
// arrays of scalars as a single column. Anything else is not tabular.
func tabulate(v any) ([]string, [][]string, bool) {
	switch value := v.(type) {
	case []any:
		if len(value) == 0 {
			return nil, nil, false
		}
		if headers, ok := objectColumns(value); ok {
			rows := make([][]string, 0, len(value))
			for _, item := range value {
				obj := item.(map[string]any)
				row := make([]string, len(headers))
				for i, h := range headers {
					row[i] = cell(obj[h])
				}
				rows = append(rows, row)
			}
			return headers, rows, true
		}
		rows := make([][]string, 0, len(value))
		for _, item := range value {
			rows = append(rows, []string{cell(item)})
		}
		return []string{"value"}, rows, true
	case map[string]any:
		keys := sortedKeys(value)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, cell(value[k])})
		}
		return []string{"key", "value"}, rows, true
	default:
		return nil, nil, false
	}
}

func objectColumns(items []any) ([]string, bool) {
	seen := map[string]struct{}{}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		for k := range obj {
			seen[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(seen))
	for k := range seen {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(data)
	}
}
