package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// Row returns a view of row i.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// LoadNPY reads a 2-D float array saved with numpy.save.
func LoadNPY(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := ReadNPY(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return m, nil
}

// ReadNPY parses .npy format versions 1-3. Supported dtypes: <f4, <f8 (narrowed to float32).
// Fortran order is rejected.
func ReadNPY(r io.Reader) (*Matrix, error) {
	pre := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}
	if !bytes.Equal(pre[:len(npyMagic)], npyMagic) {
		return nil, errors.New("not a .npy file")
	}

	var hlen int
	switch major := pre[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("read header length: %w", err)
		}
		hlen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, fmt.Errorf("read header length: %w", err)
		}
		hlen = int(n)
	default:
		return nil, fmt.Errorf("unsupported .npy version %d", major)
	}

	header := make([]byte, hlen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, err
	}
	if h.fortran {
		return nil, errors.New("fortran-ordered arrays are not supported")
	}
	if len(h.shape) != 2 {
		return nil, fmt.Errorf("expected a 2-D array, got shape %v", h.shape)
	}

	rows, cols := h.shape[0], h.shape[1]
	m := &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}

	switch h.descr {
	case "<f4":
		if err := binary.Read(r, binary.LittleEndian, m.Data); err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
	case "<f8":
		buf := make([]byte, 8)
		for i := range m.Data {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("read data: %w", err)
			}
			m.Data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf)))
		}
	default:
		return nil, fmt.Errorf("unsupported dtype %q", h.descr)
	}
	return m, nil
}

type npyHeader struct {
	descr   string
	fortran bool
	shape   []int
}

// parseNPYHeader reads the python dict literal numpy writes, e.g.
// {'descr': '<f4', 'fortran_order': False, 'shape': (3, 384), }
func parseNPYHeader(s string) (npyHeader, error) {
	var h npyHeader

	descr, err := dictValue(s, "descr")
	if err != nil {
		return h, err
	}
	h.descr = strings.Trim(descr, `'"`)

	fo, err := dictValue(s, "fortran_order")
	if err != nil {
		return h, err
	}
	h.fortran = fo == "True"

	open := strings.Index(s, "(")
	closing := strings.Index(s, ")")
	if open < 0 || closing < open {
		return h, errors.New("header has no shape tuple")
	}
	for _, part := range strings.Split(s[open+1:closing], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return h, fmt.Errorf("bad shape dimension %q", part)
		}
		h.shape = append(h.shape, n)
	}
	return h, nil
}

func dictValue(s, key string) (string, error) {
	i := strings.Index(s, "'"+key+"'")
	if i < 0 {
		return "", fmt.Errorf("header missing %q", key)
	}
	rest := s[i+len(key)+2:]
	colon := strings.Index(rest, ":")
	if colon < 0 {
		return "", fmt.Errorf("header malformed near %q", key)
	}
	rest = rest[colon+1:]
	end := strings.Index(rest, ",")
	if end < 0 {
		end = strings.Index(rest, "}")
	}
	if end < 0 {
		return "", fmt.Errorf("header malformed near %q", key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

// WriteNPY writes m as a version 1.0 <f4 array. Used by tests and tooling.
func WriteNPY(w io.Writer, m *Matrix) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", m.Rows, m.Cols)
	// preamble (10 bytes) + header + newline must be a multiple of 64
	total := len(npyMagic) + 4 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	if _, err := w.Write(npyMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{1, 0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Data)
}
