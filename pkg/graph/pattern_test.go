package graph

import "testing"

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		uri     string
		want    bool
	}{
		{"literal match", "/health", "/health", true},
		{"literal case-insensitive", "/Health", "/health", true},
		{"literal mismatch", "/health", "/healthz", false},
		{"star crosses slash", "/api/*", "/api/users/42", true},
		{"star does not fuzzy-match prefix", "/api/*", "/apiv2/x", false},
		{"question mark single char", "/v?/ping", "/v1/ping", true},
		{"question mark rejects multi char", "/v?/ping", "/v12/ping", false},
		{"named segment", "/users/{id}/profile", "/users/42/profile", true},
		{"named segment rejects slash", "/users/{id}/profile", "/users/42/43/profile", false},
		{"named segment rejects empty", "/users/{id}/profile", "/users//profile", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, _, err := compilePattern(tt.pattern)
			if err != nil {
				t.Fatalf("compilePattern(%q): %v", tt.pattern, err)
			}
			got := re.MatchString(tt.uri)
			if got != tt.want {
				t.Errorf("pattern %q vs uri %q = %v, want %v", tt.pattern, tt.uri, got, tt.want)
			}
		})
	}
}

func TestSpecificity(t *testing.T) {
	_, specific, err := compilePattern("/api/users/42")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if specific.wildcardCount != 0 {
		t.Errorf("wildcardCount = %d, want 0", specific.wildcardCount)
	}

	_, wild, err := compilePattern("/api/*")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if wild.wildcardCount == 0 {
		t.Errorf("expected nonzero wildcardCount for /api/*")
	}
	if wild.literalPrefixLen == 0 {
		t.Errorf("expected nonzero literal prefix for /api/*")
	}
}
