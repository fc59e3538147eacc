package store

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kavir10/lead-scoring/internal/model"
)

// column binds a CSV header to a Lead struct field.
type column struct {
	name  string
	index int
}

var leadColumns = buildColumns()

func buildColumns() []column {
	t := reflect.TypeOf(model.Lead{})
	cols := make([]column, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("csv")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, column{name: tag, index: i})
	}
	return cols
}

// Columns returns the snapshot header in write order.
func Columns() []string {
	out := make([]string, len(leadColumns))
	for i, c := range leadColumns {
		out[i] = c.name
	}
	return out
}

// requiredColumns must be present in any snapshot that is read back.
var requiredColumns = []string{"name", "address", "website"}

// WriteCSV writes leads as a full snapshot with every column.
func WriteCSV(path string, leads []model.Lead) error {
	return WriteColumnsCSV(path, leads, Columns())
}

func selectColumns(names []string) ([]column, error) {
	byName := make(map[string]column, len(leadColumns))
	for _, c := range leadColumns {
		byName[c.name] = c
	}
	selected := make([]column, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, eris.Errorf("snapshot: unknown column %q", name)
		}
		selected = append(selected, c)
	}
	return selected, nil
}

// Table returns leads restricted to the named columns as typed cell values:
// string, int64, float64, bool, or nil for an absent optional field.
func Table(leads []model.Lead, columns []string) ([][]any, error) {
	selected, err := selectColumns(columns)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, len(leads))
	for i := range leads {
		v := reflect.ValueOf(&leads[i]).Elem()
		row := make([]any, len(selected))
		for j, c := range selected {
			row[j] = fieldValue(v.Field(c.index))
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteColumnsCSV writes leads restricted to the named columns, in that order.
func WriteColumnsCSV(path string, leads []model.Lead, columns []string) error {
	selected, err := selectColumns(columns)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "snapshot: create dir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "snapshot: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := encode(f, leads, selected); err != nil {
		return eris.Wrapf(err, "snapshot: write %s", path)
	}
	return f.Close()
}

func encode(w io.Writer, leads []model.Lead, cols []column) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(cols))
	for i := range leads {
		v := reflect.ValueOf(&leads[i]).Elem()
		for j, c := range cols {
			row[j] = formatField(v.Field(c.index))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func fieldValue(f reflect.Value) any {
	switch f.Kind() {
	case reflect.String:
		return f.String()
	case reflect.Int:
		return f.Int()
	case reflect.Float64:
		return f.Float()
	case reflect.Bool:
		return f.Bool()
	case reflect.Pointer:
		if f.IsNil() {
			return nil
		}
		return fieldValue(f.Elem())
	default:
		return nil
	}
}

func formatField(f reflect.Value) string {
	switch f.Kind() {
	case reflect.String:
		return f.String()
	case reflect.Int:
		return strconv.FormatInt(f.Int(), 10)
	case reflect.Float64:
		return strconv.FormatFloat(f.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(f.Bool())
	case reflect.Pointer:
		if f.IsNil() {
			return ""
		}
		return formatField(f.Elem())
	default:
		return ""
	}
}

// ReadCSV loads a snapshot. Columns absent from the file keep their neutral
// defaults, so an early-phase snapshot can be resumed by a later phase.
func ReadCSV(path string) ([]model.Lead, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	leads, err := decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", path)
	}
	return leads, nil
}

func decode(r io.Reader) ([]model.Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, req := range requiredColumns {
		if _, ok := pos[req]; !ok {
			return nil, eris.Errorf("missing required column %q", req)
		}
	}

	var leads []model.Lead
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}

		l := model.NewLead()
		v := reflect.ValueOf(&l).Elem()
		for _, c := range leadColumns {
			i, ok := pos[c.name]
			if !ok || i >= len(rec) {
				continue
			}
			if err := parseField(v.Field(c.index), rec[i]); err != nil {
				return nil, eris.Wrapf(err, "line %d column %s", line, c.name)
			}
		}
		if strings.TrimSpace(l.Name) == "" {
			return nil, eris.Errorf("line %d: lead has no name", line)
		}
		leads = append(leads, l)
	}
	return leads, nil
}

// isBlank treats the empty string and spreadsheet NaN markers as missing.
func isBlank(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

func parseField(f reflect.Value, raw string) error {
	s := strings.TrimSpace(raw)
	switch f.Kind() {
	case reflect.String:
		if strings.EqualFold(s, "nan") {
			s = ""
		}
		f.SetString(s)
	case reflect.Int:
		if isBlank(s) {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Float-typed integer columns ("120.0") are common in spreadsheet exports.
			fv, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || math.IsNaN(fv) {
				return eris.Wrapf(err, "parse int %q", s)
			}
			n = int64(fv)
		}
		f.SetInt(n)
	case reflect.Float64:
		if isBlank(s) {
			return nil
		}
		fv, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return eris.Wrapf(err, "parse float %q", s)
		}
		f.SetFloat(fv)
	case reflect.Bool:
		if isBlank(s) {
			f.SetBool(false)
			return nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return eris.Wrapf(err, "parse bool %q", s)
		}
		f.SetBool(b)
	case reflect.Pointer:
		if isBlank(s) {
			f.SetZero()
			return nil
		}
		elem := reflect.New(f.Type().Elem())
		if err := parseField(elem.Elem(), s); err != nil {
			return err
		}
		f.Set(elem)
	}
	return nil
}
