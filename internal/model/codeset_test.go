package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestCodeSet tests set operations.
func TestCodeSet(t *testing.T) {
	t.Parallel()

	t.Run("zero value is empty and usable", func(t *testing.T) {
		t.Parallel()

		var s CodeSet
		if s.Len() != 0 {
			t.Errorf("expected empty set, got %d", s.Len())
		}
		if s.Contains("DB24") {
			t.Error("empty set must not contain codes")
		}
		s.Add("DB24")
		if !s.Contains("DB24") {
			t.Error("expected DB24 after Add")
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		t.Parallel()

		s := NewCodeSet("DB24", "MW30", "DB24")
		if s.Len() != 2 {
			t.Errorf("expected 2 codes, got %d", s.Len())
		}
	})

	t.Run("empty code is ignored", func(t *testing.T) {
		t.Parallel()

		s := NewCodeSet("")
		if s.Len() != 0 {
			t.Errorf("expected empty set, got %v", s.Sorted())
		}
	})

	t.Run("union and difference", func(t *testing.T) {
		t.Parallel()

		a := NewCodeSet("DB24", "MW30")
		b := NewCodeSet("MW30", "SB42FH")
		a.Union(b)

		if diff := cmp.Diff([]string{"DB24", "MW30", "SB42FH"}, a.Sorted()); diff != "" {
			t.Errorf("union mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"DB24"}, a.Difference(b).Sorted()); diff != "" {
			t.Errorf("difference mismatch (-want +got):\n%s", diff)
		}
		if b.Len() != 2 {
			t.Errorf("union modified its argument: %v", b.Sorted())
		}
	})

	t.Run("equal ignores insertion order", func(t *testing.T) {
		t.Parallel()

		if !NewCodeSet("A1", "B2").Equal(NewCodeSet("B2", "A1")) {
			t.Error("expected sets to be equal")
		}
		if NewCodeSet("A1").Equal(NewCodeSet("A1", "B2")) {
			t.Error("expected sets to differ")
		}
	})

	t.Run("sorted of empty set is non-nil", func(t *testing.T) {
		t.Parallel()

		var s CodeSet
		if s.Sorted() == nil {
			t.Error("expected non-nil slice")
		}
	})
}

// TestCodeSetJSON tests the array encoding.
func TestCodeSetJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes sorted array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(NewCodeSet("SB42FH", "DB24", "MW30"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := string(data), `["DB24","MW30","SB42FH"]`; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	})

	t.Run("empty set encodes as empty array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(CodeSet{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected [], got %s", data)
		}
	})

	t.Run("decodes array", func(t *testing.T) {
		t.Parallel()

		var s CodeSet
		if err := json.Unmarshal([]byte(`["MW30","DB24","MW30"]`), &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Equal(NewCodeSet("DB24", "MW30")) {
			t.Errorf("unexpected set %v", s.Sorted())
		}
	})

	t.Run("rejects non-array", func(t *testing.T) {
		t.Parallel()

		var s CodeSet
		if err := json.Unmarshal([]byte(`{"code":"DB24"}`), &s); err == nil {
			t.Error("expected error")
		}
	})
}
