// Package zip1970 rewrites the timestamps of entries in zip archives.
//
// A [Transformer] copies every entry of a source archive into a new one.
// Entry content is copied in its stored form, never recompressed, so it is
// preserved exactly. Entries whose names pass a [Filter] get the creation,
// modification and access times configured in [Overrides]. Other entries
// keep their original timestamps.
//
// # Quick Start
//
// Reset the modification time of every class file to the Unix epoch:
//
//	a, err := zip1970.Open("app.jar")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	filter, err := zip1970.NewFilter(`.*\.class`, "")
//	if err != nil {
//	    return err
//	}
//	epoch, _ := zip1970.ParseTime("1970-01-01T00:00:00")
//	t := zip1970.NewTransformer(
//	    zip1970.WithFilter(filter),
//	    zip1970.WithOverrides(zip1970.Overrides{Modified: &epoch}),
//	)
//	_, err = t.Process(a.Reader(), out)
//
// [Open] also accepts "-" for standard input and http or https URLs, which
// are read with range requests where the server supports them.
//
// # Timestamps
//
// The modification time is stored in the MS-DOS fields of the header. Those
// fields cannot represent times before 1980, so they are clamped, and the
// exact value goes into an extended timestamp or NTFS extra field. Creation
// and access times exist only in extra fields. See [ReadTimes].
//
// Patterns match whole entry names: "a\..*" matches "a.txt" but not "b/a.txt".
package zip1970
