// Package source reads collision rows lazily from a delimited text file.
//
// Open reads and checks the header, then Next yields one row per call. Only
// the current row is held in memory, so files of any size stream in constant
// space. A Reader is a pipeline.Iterator and plugs straight into a pipeline:
//
//	r, err := source.Open(path, source.Options{})
//	if err != nil {
//	    return err // SOURCE_NOT_FOUND, SOURCE_READ_FAILED or INVALID_HEADER
//	}
//	rows := pipeline.From[source.Entry](r)
package source
