package source

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"unicode/utf8"

	"golang.org/x/text/transform"

	"github.com/kbukum/crashstream/collision"
	"github.com/kbukum/crashstream/errors"
	"github.com/kbukum/crashstream/pipeline"
)

// Entry is one data row with its position in the file.
type Entry struct {
	// Line is the 1-based line on which the row starts.
	Line int
	Row  collision.Row
}

// Reader yields the data rows of one source file in file order.
// It is single-pass and not safe for concurrent use.
type Reader struct {
	path      string
	file      *os.File
	csv       *csv.Reader
	header    []string
	checkUTF8 bool
	closed    bool
}

var _ pipeline.Iterator[Entry] = (*Reader)(nil)

// Open opens path and reads its header row.
//
// A missing file fails with SOURCE_NOT_FOUND. A header lacking any of the
// recognized columns fails with INVALID_HEADER; extra columns are ignored.
// Other I/O and parse failures are SOURCE_READ_FAILED. The file is closed
// again on every error path.
func Open(path string, opts Options) (*Reader, error) {
	dec, checkUTF8, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.SourceNotFound(path).WithCause(err)
		}
		return nil, errors.SourceRead(path, err)
	}

	cr := csv.NewReader(transform.NewReader(f, dec))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = opts.LazyQuotes
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	r := &Reader{path: path, file: f, csv: cr, checkUTF8: checkUTF8}
	if err := r.readHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	fields, err := r.csv.Read()
	if err == io.EOF {
		return errors.InvalidHeader(r.path, collision.Columns).WithCause(io.ErrUnexpectedEOF)
	}
	if err != nil {
		return errors.SourceRead(r.path, err)
	}
	if err := r.validUTF8(fields, 1); err != nil {
		return err
	}

	// ReuseRecord shares the backing array across reads.
	r.header = append([]string(nil), fields...)

	present := make(map[string]bool, len(r.header))
	for _, col := range r.header {
		present[col] = true
	}
	var missing []string
	for _, col := range collision.Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return errors.InvalidHeader(r.path, missing)
	}
	return nil
}

// Next returns the next data row. Fields missing from the end of a short row
// read as "". It returns (Entry{}, false, nil) once the file is exhausted.
func (r *Reader) Next(ctx context.Context) (Entry, bool, error) {
	if r.closed {
		return Entry{}, false, nil
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	fields, err := r.csv.Read()
	if err == io.EOF {
		return Entry{}, false, nil
	}
	if err != nil {
		appErr := errors.SourceRead(r.path, err)
		var pe *csv.ParseError
		if stderrors.As(err, &pe) {
			appErr = appErr.WithDetail("line", pe.StartLine)
		}
		return Entry{}, false, appErr
	}

	line, _ := r.csv.FieldPos(0)
	if err := r.validUTF8(fields, line); err != nil {
		return Entry{}, false, err
	}

	row := make(collision.Row, len(r.header))
	for i, col := range r.header {
		if i < len(fields) {
			row[col] = fields[i]
		} else {
			row[col] = ""
		}
	}
	return Entry{Line: line, Row: row}, true, nil
}

// Close releases the file handle. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

var errInvalidUTF8 = stderrors.New("invalid UTF-8")

func (r *Reader) validUTF8(fields []string, line int) error {
	if !r.checkUTF8 {
		return nil
	}
	for i, f := range fields {
		if !utf8.ValidString(f) {
			return errors.SourceRead(r.path, fmt.Errorf("line %d, field %d: %w", line, i+1, errInvalidUTF8)).
				WithDetail("line", line)
		}
	}
	return nil
}
