package validation

import "testing"

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{
			name:      "Valid pretty format",
			format:    "pretty",
			expectErr: false,
		},
		{
			name:      "Valid csv format",
			format:    "csv",
			expectErr: false,
		},
		{
			name:      "Valid json format",
			format:    "json",
			expectErr: false,
		},
		{
			name:      "Empty format",
			format:    "",
			expectErr: true,
		},
		{
			name:      "Case sensitive - uppercase",
			format:    "PRETTY",
			expectErr: true,
		},
		{
			name:      "Leading/trailing spaces",
			format:    " csv ",
			expectErr: true,
		},
		{
			name:      "XML format not supported",
			format:    "xml",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.expectErr && err == nil {
				t.Errorf("expected error for format %q", tt.format)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error for format %q: %v", tt.format, err)
			}
		})
	}
}

func TestValidateBackend(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		expectErr bool
	}{
		{name: "Empty selects default", backend: "", expectErr: false},
		{name: "Group scan", backend: "groupscan", expectErr: false},
		{name: "Simplex", backend: "simplex", expectErr: false},
		{name: "Unknown solver", backend: "cbc", expectErr: true},
		{name: "Case sensitive", backend: "Simplex", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBackend(tt.backend)
			if tt.expectErr && err == nil {
				t.Errorf("expected error for backend %q", tt.backend)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error for backend %q: %v", tt.backend, err)
			}
		})
	}
}
