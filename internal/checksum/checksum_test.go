package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("") is well known.
	if got := Sum(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different input must give different sums")
	}
}

func TestETagRoundTrip(t *testing.T) {
	sum := Sum([]byte(`{"id":"root"}`))
	if got := FromETag(ETag(sum)); got != sum {
		t.Errorf("FromETag(ETag(sum)) = %q", got)
	}
	if ETag("") != "" {
		t.Error("empty sum must not render a tag")
	}
}

func TestFromETag(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"*", ""},
		{"abc", "abc"},
		{`"abc"`, "abc"},
		{`W/"abc"`, "abc"},
		{` "abc" `, "abc"},
	}
	for _, tt := range tests {
		if got := FromETag(tt.in); got != tt.want {
			t.Errorf("FromETag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
