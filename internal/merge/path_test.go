package merge

import (
	"errors"
	"testing"
)

func TestToGjsonPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"root path", "/", ""},
		{"single segment", "/user", "user"},
		{"multiple segments", "/user/profile", "user.profile"},
		{"segment with dot", "/user.info", `user\.info`},
		{"multiple segments with dots", "/user.info/profile.data", `user\.info.profile\.data`},
		{"deep nesting", "/a/b/c/d/e", "a.b.c.d.e"},
		{"underscore and dollar", "/_private/$config", "_private.$config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToGjsonPath(tt.path)
			if result != tt.expected {
				t.Errorf("ToGjsonPath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestEscapeKey(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"int", "int"},
		{"user.name", `user\.name`},
		{"a*b", `a\*b`},
		{"tags#", `tags\#`},
		{"with space", "with space"},
		{"用户", "用户"},
		{"x|y", `x\|y`},
	}

	for _, tt := range tests {
		if got := EscapeKey(tt.key); got != tt.expected {
			t.Errorf("EscapeKey(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		field    string
		expected string
		wantErr  bool
	}{
		{field: "int", expected: "int"},
		{field: "a.b", expected: `a\.b`},
		{field: "/a/b", expected: "a.b"},
		{field: "/", expected: ""},
		{field: "/a/", wantErr: true},
		{field: "/1abc", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Resolve(tt.field)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Resolve(%q) error = %v, want ErrInvalidPath", tt.field, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Resolve(%q) unexpected error: %v", tt.field, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("Resolve(%q) = %q, want %q", tt.field, got, tt.expected)
		}
	}
}

func TestValidateFieldPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"root path", "/", false},
		{"single segment", "/user", false},
		{"multiple segments", "/user/profile", false},
		{"segment with dot", "/user.info", false},
		{"underscore prefix", "/_private", false},
		{"dollar prefix", "/$config", false},
		{"complex valid path", "/_config/$value/data.info/item123", false},

		{"empty string", "", true},
		{"no leading slash", "user", true},
		{"trailing slash", "/user/", true},
		{"starts with number", "/123", true},
		{"contains hyphen", "/user-name", true},
		{"double slash in middle", "/user//profile", true},
		{"segment starts with dot", "/user/.config", true},
		{"chinese characters", "/用户", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFieldPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
