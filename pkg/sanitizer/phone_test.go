package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+919876543210",
			want:  "+919876543210",
		},
		{
			name:  "with spaces",
			input: "+91 98765 43210",
			want:  "+919876543210",
		},
		{
			name:  "with dashes",
			input: "+91-98765-43210",
			want:  "+919876543210",
		},
		{
			name:  "us number with parentheses",
			input: "+1 (212) 555-0134",
			want:  "+12125550134",
		},
		{
			name:  "national format resolved to default region",
			input: "98765 43210",
			want:  "+919876543210",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +919876543210  ",
			want:  "+919876543210",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "garbage rejected",
			input: "not-a-phone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSubServices(t *testing.T) {
	got := NormalizeSubServices([]string{" Sofa ", "sofa", "", "Carpet  Shampoo"})
	want := []string{"sofa", "carpet shampoo"}

	if len(got) != len(want) {
		t.Fatalf("NormalizeSubServices returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeSubServices[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
