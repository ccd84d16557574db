package evaluation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadQueries reads a CSV with header columns query_id and query.
func LoadQueries(path string) ([]Query, error) {
	rows, err := readCSV(path, "query_id", "query")
	if err != nil {
		return nil, err
	}
	out := make([]Query, len(rows))
	for i, r := range rows {
		out[i] = Query{ID: r[0], Text: r[1]}
	}
	return out, nil
}

// LoadQrels reads a CSV with header columns query_id and doc_id, one judgment per row.
func LoadQrels(path string) (Qrels, error) {
	rows, err := readCSV(path, "query_id", "doc_id")
	if err != nil {
		return nil, err
	}
	q := make(Qrels)
	for _, r := range rows {
		q[r[0]] = append(q[r[0]], r[1])
	}
	return q, nil
}

// readCSV returns the requested columns of every data row, in the order given.
func readCSV(path string, cols ...string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return parseCSV(f, cols...)
}

func parseCSV(r io.Reader, cols ...string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	pos := make([]int, len(cols))
	for i, c := range cols {
		pos[i] = -1
		for j, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == c {
				pos[i] = j
				break
			}
		}
		if pos[i] < 0 {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make([]string, len(cols))
		for i, p := range pos {
			if p >= len(rec) {
				return nil, fmt.Errorf("line %d: missing column %q", line, cols[i])
			}
			row[i] = strings.TrimSpace(rec[p])
		}
		out = append(out, row)
	}
	return out, nil
}
