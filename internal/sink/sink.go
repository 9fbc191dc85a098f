// Package sink delivers decoded records to their destinations: an
// io.Writer in JSON-lines, CSV or key/value form, and an MQTT broker.
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

const timeFormat = "2006-01-02 15:04:05"

// Record is one decoded transmission, with its reception time and the
// column order its decoder registered.
type Record struct {
	Time    time.Time
	Decoder string
	Fields  map[string]any
	Order   []string
}

// Sink consumes decoded records.
type Sink interface {
	Publish(rec Record) error
	Close() error
}

// Marshal renders a record as a single JSON object with the reception
// time alongside the decoded fields.
func Marshal(rec Record) ([]byte, error) {
	obj := make(map[string]any, len(rec.Fields)+1)
	obj["time"] = rec.Time.Format(timeFormat)
	for k, v := range rec.Fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}

// JSONWriter emits one JSON object per line.
type JSONWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{out: out}
}

func (w *JSONWriter) Publish(rec Record) error {
	payload, err := Marshal(rec)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintf(w.out, "%s\n", payload)
	return err
}

func (w *JSONWriter) Close() error {
	return nil
}

// CSVWriter emits records as CSV rows in the registered column order,
// with a time column first. Fields a record omits leave empty cells.
type CSVWriter struct {
	mu          sync.Mutex
	w           *csv.Writer
	columns     []string
	wroteHeader bool
}

func NewCSVWriter(out io.Writer, columns []string) *CSVWriter {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, "time")
	cols = append(cols, columns...)
	return &CSVWriter{w: csv.NewWriter(out), columns: cols}
}

func (w *CSVWriter) Publish(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.wroteHeader {
		if err := w.w.Write(w.columns); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	row := make([]string, len(w.columns))
	row[0] = rec.Time.Format(timeFormat)
	for i, col := range w.columns[1:] {
		if v, ok := rec.Fields[col]; ok {
			row[i+1] = formatValue(v)
		}
	}
	if err := w.w.Write(row); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

func (w *CSVWriter) Close() error {
	w.w.Flush()
	return w.w.Error()
}

// KVWriter emits records as aligned key/value lines for terminals, one
// blank line between records.
type KVWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func NewKVWriter(out io.Writer) *KVWriter {
	return &KVWriter{out: out}
}

func (w *KVWriter) Publish(rec Record) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-13s: %s\n", "time", rec.Time.Format(timeFormat))
	for _, key := range rec.Order {
		v, ok := rec.Fields[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%-13s: %s\n", key, formatValue(v))
	}
	sb.WriteByte('\n')
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.out, sb.String())
	return err
}

func (w *KVWriter) Close() error {
	return nil
}

// formatValue renders scaled quantities with an explicit decimal point,
// so a text consumer can tell "21.0" from the integer fields.
func formatValue(v any) string {
	switch n := v.(type) {
	case float64:
		s := strconv.FormatFloat(n, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case int:
		return strconv.Itoa(n)
	case string:
		return n
	default:
		return fmt.Sprintf("%v", v)
	}
}
