package textnorm

import "testing"

func TestSizeKeyEquivalence(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"Size S", "size-s"},
		{"size-s", "SIZE_S"},
		{"M", "m"},
		{"Size  M", "sizem"},
		{"XL-1", "xl_1"},
	}
	for _, tc := range cases {
		if SizeKey(tc.a) != SizeKey(tc.b) {
			t.Errorf("SizeKey(%q)=%q, SizeKey(%q)=%q, want equal", tc.a, SizeKey(tc.a), tc.b, SizeKey(tc.b))
		}
		if !SizesMatch(tc.a, tc.b) {
			t.Errorf("SizesMatch(%q, %q) = false, want true", tc.a, tc.b)
		}
	}
}

func TestSizeKeyDistinct(t *testing.T) {
	if SizesMatch("Size S", "Size M") {
		t.Fatal("different sizes must not match")
	}
}

func TestFoldVietnamese(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Áo Dài", "ao dai"},
		{"Đầm dạ hội", "dam da hoi"},
		{"VÁY CƯỚI", "vay cuoi"},
		{"ao dai", "ao dai"},
	}
	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Errorf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContainsQuery(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		fields []string
		want   bool
	}{
		{"empty query matches", "", []string{"Áo dài đỏ"}, true},
		{"raw substring", "dài", []string{"Áo dài đỏ"}, true},
		{"folded word", "dai", []string{"Áo dài đỏ"}, true},
		{"multi word all present", "ao do", []string{"Áo dài đỏ"}, true},
		{"word across fields", "cuoi vay", []string{"Váy cưới", "đầm"}, true},
		{"missing word", "ao xanh", []string{"Áo dài đỏ"}, false},
		{"no match", "vest", []string{"Áo dài"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ContainsQuery(tc.query, tc.fields...); got != tc.want {
				t.Errorf("ContainsQuery(%q, %v) = %v, want %v", tc.query, tc.fields, got, tc.want)
			}
		})
	}
}
