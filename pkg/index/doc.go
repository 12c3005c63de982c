// Package index loads a registry index directory into an in-memory,
// read-only collection of packages.
//
// [Build] walks the index with [registry.Files], parses package files on a
// worker pool and inserts them through a single writer, which is where all
// integrity checks live:
//
//	idx, report, err := index.Build(ctx, root, index.Options{Workers: 8})
//	if err != nil {
//		return err // *IntegrityError, *registry.ParseError (strict) or IO
//	}
//	for _, s := range report.Skipped {
//		log.Warn("skipped", "path", s.Path, "err", s.Err)
//	}
//
// An index is never partially valid: two declarations of the same
// (name, version), two files for the same package, or a file mixing package
// names all fail the build with an [*IntegrityError] naming both sources.
package index
