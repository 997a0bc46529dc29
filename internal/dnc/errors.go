package dnc

import "fmt"

// errPanicf wraps a recovered panic value as an error attributed to
// the named worker, mirroring SPEC_FULL.md §7's "internal invariant
// violation... aborts the worker; sibling workers continue."
func errPanicf(worker string, recovered any) error {
	return fmt.Errorf("plsolve: worker %s panicked: %v", worker, recovered)
}
