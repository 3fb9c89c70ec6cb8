package store

import "testing"

func TestModeString(t *testing.T) {
	t.Parallel()

	if got := Overwrite.String(); got != "overwrite" {
		t.Fatalf("Overwrite.String() = %q", got)
	}
	if got := Append.String(); got != "append" {
		t.Fatalf("Append.String() = %q", got)
	}
}
