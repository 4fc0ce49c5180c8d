// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateBackend checks if the solver backend is one of the supported backends.
// An empty value selects the default backend.
func ValidateBackend(backend string) error {
	switch backend {
	case "", constants.BackendGroupScan, constants.BackendSimplex:
		return nil
	}
	return fmt.Errorf("expected solver backend of %s or %s, got %s",
		constants.BackendGroupScan, constants.BackendSimplex, backend)
}
