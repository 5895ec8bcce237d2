package collision

import (
	stderrors "errors"
	"strconv"
	"strings"

	apperrors "github.com/kbukum/crashstream/errors"
	"github.com/kbukum/crashstream/validation"
)

// ErrMissingColumn is the cause of a decode failure for a mandatory column
// that is not present in the row at all.
var ErrMissingColumn = stderrors.New("column not present")

// Decode converts a row into a Record.
//
// Text columns are copied verbatim and read as "" when absent. LATITUDE and
// LONGITUDE decode to 0 when empty and fail when set to anything that is not
// a number. The eight casualty counters must hold non-negative integers and
// COLLISION_ID must be present and non-empty.
//
// On failure the returned error is an *errors.AppError with code
// ROW_DECODE_FAILED naming the first offending column; see InvalidField.
func Decode(row Row) (Record, error) {
	d := decoder{row: row}
	rec := Record{
		CrashDate:       row.Get(ColCrashDate),
		CrashTime:       row.Get(ColCrashTime),
		Borough:         row.Get(ColBorough),
		ZipCode:         row.Get(ColZipCode),
		Latitude:        d.coordinate(ColLatitude),
		Longitude:       d.coordinate(ColLongitude),
		Location:        row.Get(ColLocation),
		OnStreetName:    row.Get(ColOnStreetName),
		CrossStreetName: row.Get(ColCrossStreetName),
		OffStreetName:   row.Get(ColOffStreetName),

		PersonsInjured:     d.counter(ColPersonsInjured),
		PersonsKilled:      d.counter(ColPersonsKilled),
		PedestriansInjured: d.counter(ColPedestriansInjured),
		PedestriansKilled:  d.counter(ColPedestriansKilled),
		CyclistInjured:     d.counter(ColCyclistInjured),
		CyclistKilled:      d.counter(ColCyclistKilled),
		MotoristInjured:    d.counter(ColMotoristInjured),
		MotoristKilled:     d.counter(ColMotoristKilled),

		CollisionID: d.required(ColCollisionID),
	}
	if d.err != nil {
		return Record{}, d.err
	}

	if err := validation.Validate(rec); err != nil {
		field := ""
		if fields := validation.FieldErrors(err); len(fields) > 0 {
			field = fields[0].Field
		}
		return Record{}, apperrors.RowDecode(field, row.Get(field)).WithCause(err)
	}
	return rec, nil
}

// InvalidField returns the column and raw value named by a decode failure.
func InvalidField(err error) (field, value string, ok bool) {
	appErr, isApp := apperrors.AsAppError(err)
	if !isApp || appErr.Code != apperrors.ErrCodeRowDecode {
		return "", "", false
	}
	field, _ = appErr.Details["field"].(string)
	value, _ = appErr.Details["value"].(string)
	return field, value, true
}

// decoder keeps the first conversion failure; later conversions are skipped.
type decoder struct {
	row Row
	err error
}

func (d *decoder) fail(col, raw string, cause error) {
	d.err = apperrors.RowDecode(col, raw).WithCause(cause)
}

func (d *decoder) coordinate(col string) float64 {
	if d.err != nil {
		return 0
	}
	raw := d.row.Get(col)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		d.fail(col, raw, err)
		return 0
	}
	return f
}

func (d *decoder) counter(col string) int32 {
	if d.err != nil {
		return 0
	}
	raw, ok := d.row.Lookup(col)
	if !ok {
		d.fail(col, raw, ErrMissingColumn)
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		d.fail(col, raw, err)
		return 0
	}
	return int32(n)
}

func (d *decoder) required(col string) string {
	if d.err != nil {
		return ""
	}
	raw, ok := d.row.Lookup(col)
	if !ok {
		d.fail(col, raw, ErrMissingColumn)
	}
	return raw
}
