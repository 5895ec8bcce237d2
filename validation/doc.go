// Package validation provides struct tag validation for decoded records and
// programmatic validation with error collection for configuration sections.
//
// # Struct Tag Validation
//
// Field names in errors come from the `csv` tag, so a failure points at the
// source column:
//
//	type Record struct {
//	    Killed      int32  `csv:"NUMBER OF PERSONS KILLED" validate:"gte=0"`
//	    CollisionID string `csv:"COLLISION_ID" validate:"required"`
//	}
//	err := validation.Validate(rec)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("source", cfg.Source).OneOf("format", cfg.Format, formats)
//	return v.Err()
package validation
