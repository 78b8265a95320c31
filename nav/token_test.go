package nav

import (
	"errors"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	cases := []Token{
		{NodeID: 1, Direction: Forward},
		{NodeID: 42, Direction: Back},
		{NodeID: 9000, Direction: Root},
	}
	for _, want := range cases {
		got, err := Decode(want.Encode())
		if err != nil {
			t.Fatalf("Decode(%q): %v", want.Encode(), err)
		}
		if got != want {
			t.Errorf("Decode(%q) = %+v, want %+v", want.Encode(), got, want)
		}
	}
}

func TestTokenEncoding(t *testing.T) {
	got := Token{NodeID: 17, Direction: Forward}.Encode()
	if got != "nav:17|f" {
		t.Errorf("Encode = %q, want %q", got, "nav:17|f")
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"nav:",
		"nav:abc|f",
		"nav:12",
		"nav:12|x",
		"nav:12|",
		"other:12|f",
		"12|f",
	}
	for _, payload := range cases {
		if _, err := Decode(payload); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformedToken", payload, err)
		}
	}
}

func TestIsToken(t *testing.T) {
	if !IsToken("nav:1|f") {
		t.Error("nav:1|f must be recognized")
	}
	if IsToken("feedback:cancel") {
		t.Error("foreign payload must not be recognized")
	}
}
