package mdblog

import "testing"

func TestLegacyRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path       string
		wantTarget string
		wantOK     bool
	}{
		{"/blogs/2024-01-05-my-post", "/my-post", true},
		{"/blogs/2024-01-05-my-post/", "/my-post", true},
		{"/blogs/2021-11-30-zk-2023-recap", "/zk-2023-recap", true},
		{"/blogs/my-post", "", false},
		{"/blogs/2024-01-05-", "", false},
		{"/blogs/2024-01-05", "", false},
		{"/blogs/", "", false},
		{"/blogs/2024-01-05-a/b", "", false},
		{"/2024-01-05-my-post", "", false},
		{"/posts/2024-01-05-my-post", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			target, ok := LegacyRedirect(tt.path)
			if ok != tt.wantOK || target != tt.wantTarget {
				t.Errorf("LegacyRedirect(%q) = (%q, %v), want (%q, %v)", tt.path, target, ok, tt.wantTarget, tt.wantOK)
			}
		})
	}
}
