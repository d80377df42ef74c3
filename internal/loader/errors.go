package loader

import "fmt"

// NotFoundError reports a data directory that is missing or holds no
// matching files, or a single file that does not exist.
type NotFoundError struct {
	Path    string
	Pattern string
	Err     error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data not found at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("no files matching %q in %s", e.Pattern, e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError reports a file whose content could not be read as a table.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FileFailure pairs a skipped file with the reason it was skipped.
type FileFailure struct {
	Filename string
	Err      error
}
