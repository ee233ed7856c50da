package file

import (
	"errors"
	"fmt"
	"strings"
)

// checkName rejects names that could escape their directory once joined to it.
func checkName(name string) error {
	switch {
	case name == "":
		return errors.New("name cannot be empty")
	case name == "." || name == "..":
		return fmt.Errorf("reserved name %q", name)
	case strings.ContainsAny(name, `/\:`):
		return fmt.Errorf("name %q must not contain path separators", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name %q contains a NUL byte", name)
	}
	return nil
}
