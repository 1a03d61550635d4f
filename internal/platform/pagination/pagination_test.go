package pagination

import "testing"

func TestParse(t *testing.T) {
	testCases := []struct {
		name        string
		page, limit string
		want        Params
	}{
		{"defaults", "", "", Params{Page: 1, Limit: 20}},
		{"explicit", "3", "50", Params{Page: 3, Limit: 50}},
		{"limit capped", "1", "500", Params{Page: 1, Limit: 100}},
		{"zero page", "0", "10", Params{Page: 1, Limit: 10}},
		{"negative limit", "2", "-5", Params{Page: 2, Limit: 20}},
		{"garbage", "abc", "x1", Params{Page: 1, Limit: 20}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse(tc.page, tc.limit); got != tc.want {
				t.Errorf("Parse(%q, %q) = %+v, want %+v", tc.page, tc.limit, got, tc.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 3, Limit: 20}).Offset(); got != 40 {
		t.Errorf("Offset = %d, want 40", got)
	}
}

func TestNewMeta(t *testing.T) {
	testCases := []struct {
		total, limit, wantPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
	}
	for _, tc := range testCases {
		m := NewMeta(Params{Page: 1, Limit: tc.limit}, tc.total)
		if m.TotalPages != tc.wantPages {
			t.Errorf("NewMeta(total=%d, limit=%d).TotalPages = %d, want %d", tc.total, tc.limit, m.TotalPages, tc.wantPages)
		}
	}
}
