package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that an asset name is a bare file stem.
// Empty names and names containing a path separator or a dot return
// ErrInvalidAssetName.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
