package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"zero values", Params{}, Params{Page: 1, Limit: DefaultLimit}},
		{"negative", Params{Page: -2, Limit: -5}, Params{Page: 1, Limit: DefaultLimit}},
		{"over max", Params{Page: 3, Limit: 5000}, Params{Page: 3, Limit: MaxLimit}},
		{"unchanged", Params{Page: 2, Limit: 50}, Params{Page: 2, Limit: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Errorf("Offset = %d, want 20", got)
	}
	if got := (Params{}).Offset(); got != 0 {
		t.Errorf("Offset = %d, want 0", got)
	}
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(Params{Page: 2, Limit: 10}, 25)
	if meta.Total != 25 || meta.Page != 2 || meta.TotalPages != 3 || !meta.HasMore {
		t.Errorf("unexpected meta: %+v", meta)
	}

	last := BuildMeta(Params{Page: 3, Limit: 10}, 25)
	if last.HasMore {
		t.Errorf("last page must not report more: %+v", last)
	}

	empty := BuildMeta(Params{Page: 1, Limit: 10}, 0)
	if empty.TotalPages != 0 || empty.HasMore {
		t.Errorf("empty result meta: %+v", empty)
	}
}
