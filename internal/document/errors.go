package document

import "errors"

// Sentinel errors for the fatal failure modes of the engine. Fatal paths
// wrap these with %w; callers discriminate with errors.Is. Everything else
// the parsers encounter (unresolved spine references, missing images,
// cover misses, unresolvable outline destinations) is absorbed and at most
// logged.
var (
	// ErrUnsupportedFormat indicates no parser applied to the file and
	// the plain-text fallback did not apply either.
	ErrUnsupportedFormat = errors.New("bookparse: unsupported or corrupt document")

	// ErrInvalidArchive indicates a structurally broken EPUB: missing
	// container pointer, missing package path, or missing/unreadable
	// package descriptor.
	ErrInvalidArchive = errors.New("bookparse: invalid epub archive structure")

	// ErrPDFParse indicates the PDF could not be opened or parsed.
	ErrPDFParse = errors.New("bookparse: cannot parse pdf")
)
