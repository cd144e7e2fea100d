package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"15000", 1500000, true},
		{"12.345", 1234, true}, // third digit at the midpoint rounds down
		{"12.346", 1235, true}, // third digit past the midpoint rounds up
		{"0.005", 0, false},    // rounds down to zero, which is rejected
		{".50", 50, true},
		{"", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"12a", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: expected ok, got %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("%q: got %d, want %d", tc.in, got, tc.want)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Minor: 5000}
	b := Money{Minor: 3000}
	if a.Add(b).Minor != 8000 {
		t.Fatal("add")
	}
	if b.Sub(a).Minor != -2000 {
		t.Fatal("sub must allow negative results")
	}
	if (Money{Minor: 150}).Display() != 1.5 {
		t.Fatal("display")
	}
}
