// Package collision decodes motor vehicle collision rows into typed records
// and maps them onto the mini2.CollisionData wire message.
//
// A Row is one source line keyed by header column. Decode turns a Row into a
// Record or reports the first field that could not be converted:
//
//	rec, err := collision.Decode(row)
//	if err != nil {
//	    field, value, _ := collision.InvalidField(err)
//	    // report and skip the row
//	}
//	msg := collision.Message(rec)
//
// Decode is pure. The same Row always yields the same Record or the same
// failure.
package collision
