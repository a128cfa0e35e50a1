package encode

import "testing"

func TestEncodeRedisTableName(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"", ""},
		{"users", "(users"},
		{"user-events_2024.v1", "(user-events_2024.v1"},
		{"$meta", "JG1ldGE"},
		{"表", "6KGo"},
	}

	for _, tt := range tests {
		got := EncodeRedisTableName(tt.table)
		if got != tt.want {
			t.Errorf("EncodeRedisTableName(%q) = %q, want %q", tt.table, got, tt.want)
		}
		back, err := DecodeRedisTableName(got)
		if err != nil || back != tt.table {
			t.Errorf("DecodeRedisTableName(%q) = %q, %v", got, back, err)
		}
	}

	if _, err := DecodeRedisTableName("!!"); err == nil {
		t.Errorf("expected error for invalid base64")
	}
}

func TestValidateTableName(t *testing.T) {
	valid := []string{"users", "Users", "_default", "a.b", "$meta", "x-1"}
	invalid := []string{"", ".hidden", "a/b", "a b", "表", string(make([]byte, 129))}

	for _, name := range valid {
		if err := ValidateTableName(name); err != nil {
			t.Errorf("ValidateTableName(%q): %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := ValidateTableName(name); err == nil {
			t.Errorf("ValidateTableName(%q) should fail", name)
		}
	}
}
