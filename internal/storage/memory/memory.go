package memory

import "github.com/go-faster/errors"

// errDuplicate reports a uniqueness violation, mirroring what a relational
// store would surface as a unique-constraint error.
func errDuplicate(what, value string) error {
	return errors.Errorf("%s %q already exists", what, value)
}
