package money

import "testing"

func TestToMinor(t *testing.T) {
	t.Run("two-digit currency", func(t *testing.T) {
		if got := ToMinor("USD", 10.00); got != 1000 {
			t.Errorf("expected 1000, got %d", got)
		}
		if got := ToMinor("KES", 1.67); got != 167 {
			t.Errorf("expected 167, got %d", got)
		}
	})
	t.Run("zero-digit currency", func(t *testing.T) {
		if got := ToMinor("JPY", 1500); got != 1500 {
			t.Errorf("expected 1500, got %d", got)
		}
	})
	t.Run("three-digit currency", func(t *testing.T) {
		if got := ToMinor("KWD", 1.234); got != 1234 {
			t.Errorf("expected 1234, got %d", got)
		}
	})
	t.Run("half rounds to even", func(t *testing.T) {
		if got := ToMinor("USD", 0.125); got != 12 {
			t.Errorf("expected 12, got %d", got)
		}
		if got := ToMinor("USD", 0.135); got != 14 {
			t.Errorf("expected 14, got %d", got)
		}
	})
}

func TestFromMinor(t *testing.T) {
	if got := FromMinor("USD", 1000); got != 10.00 {
		t.Errorf("expected 10.00, got %v", got)
	}
	if got := FromMinor("JPY", 1500); got != 1500 {
		t.Errorf("expected 1500, got %v", got)
	}
	t.Run("round trip", func(t *testing.T) {
		for _, minor := range []int64{0, 1, 99, 100, 12345, 999999999} {
			if got := ToMinor("USD", FromMinor("USD", minor)); got != minor {
				t.Errorf("round trip of %d gave %d", minor, got)
			}
		}
	})
}

func TestAllocateMinor(t *testing.T) {
	t.Run("exact split", func(t *testing.T) {
		got := AllocateMinor([]int64{1, 1}, 100)
		if got[0] != 50 || got[1] != 50 {
			t.Errorf("expected [50 50], got %v", got)
		}
	})
	t.Run("uneven split favors largest remainder", func(t *testing.T) {
		got := AllocateMinor([]int64{1000, 2000}, 500)
		if got[0] != 167 || got[1] != 333 {
			t.Errorf("expected [167 333], got %v", got)
		}
	})
	t.Run("ties broken by lowest index", func(t *testing.T) {
		got := AllocateMinor([]int64{1, 1, 1}, 10)
		if got[0] != 4 || got[1] != 3 || got[2] != 3 {
			t.Errorf("expected [4 3 3], got %v", got)
		}
	})
	t.Run("zero total", func(t *testing.T) {
		got := AllocateMinor([]int64{0, 0, 0}, 0)
		for i, v := range got {
			if v != 0 {
				t.Errorf("bucket %d: expected 0, got %d", i, v)
			}
		}
	})
	t.Run("all-zero weights", func(t *testing.T) {
		got := AllocateMinor([]int64{0, 0}, 100)
		if got[0] != 0 || got[1] != 0 {
			t.Errorf("expected [0 0], got %v", got)
		}
	})
	t.Run("zero-weight bucket gets nothing", func(t *testing.T) {
		got := AllocateMinor([]int64{0, 300}, 100)
		if got[0] != 0 || got[1] != 100 {
			t.Errorf("expected [0 100], got %v", got)
		}
	})
	t.Run("sum is always exact", func(t *testing.T) {
		cases := []struct {
			weights []int64
			total   int64
		}{
			{[]int64{1}, 1},
			{[]int64{3, 3, 3}, 10},
			{[]int64{7, 11, 13}, 999},
			{[]int64{1, 1, 1, 1, 1, 1, 1}, 100},
			{[]int64{999999, 1}, 1000000},
			{[]int64{5, 0, 5, 0, 5}, 17},
			{[]int64{123456789, 987654321, 555555}, 1000003},
		}
		for _, tc := range cases {
			got := AllocateMinor(tc.weights, tc.total)
			var sum int64
			for i, v := range got {
				if v < 0 {
					t.Errorf("weights=%v total=%d: negative share at %d", tc.weights, tc.total, i)
				}
				sum += v
			}
			if sum != tc.total {
				t.Errorf("weights=%v total=%d: shares sum to %d", tc.weights, tc.total, sum)
			}
		}
	})
	t.Run("deterministic", func(t *testing.T) {
		weights := []int64{17, 23, 5, 41, 19}
		first := AllocateMinor(weights, 777)
		for i := 0; i < 50; i++ {
			again := AllocateMinor(weights, 777)
			for j := range first {
				if first[j] != again[j] {
					t.Fatalf("run %d differs at %d: %v vs %v", i, j, first, again)
				}
			}
		}
	})
}

func TestValidateMinorSum(t *testing.T) {
	t.Run("matching sum passes", func(t *testing.T) {
		if err := ValidateMinorSum([]int64{100, 50, 25}, 175, "test"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	t.Run("mismatch fails", func(t *testing.T) {
		err := ValidateMinorSum([]int64{100, 50}, 175, "test")
		if err == nil {
			t.Fatal("expected an error")
		}
	})
	t.Run("empty parts against zero", func(t *testing.T) {
		if err := ValidateMinorSum(nil, 0, "test"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
