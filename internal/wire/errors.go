package wire

import "errors"

var (
	// ErrFieldTooLarge is returned when a value exceeds the declared size
	// of its field (e.g. a 20 character string in a FixedString(16)).
	ErrFieldTooLarge = errors.New("value exceeds the field's declared size")

	// ErrTruncatedInput is returned by the field codec when there are not
	// enough bytes left to satisfy a fixed-width field.
	ErrTruncatedInput = errors.New("not enough bytes to decode field")

	// ErrInsufficientData is returned when a message's raw bytes are shorter
	// than the combined width of its layout's fixed fields.
	ErrInsufficientData = errors.New("data shorter than layout's fixed portion")

	// ErrDuplicateIdentifier is returned when two layouts are registered
	// under the same (direction, identifier) pair.
	ErrDuplicateIdentifier = errors.New("message identifier already registered")
)
