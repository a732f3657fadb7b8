package x

// Validater is an interface implemented by anything that can
// check its own state for consistency.
//
// This is beyond the scope of basic parsing, and validates
// business logic assumptions (eg. value in a range).
type Validater interface {
	Validate() error
}
