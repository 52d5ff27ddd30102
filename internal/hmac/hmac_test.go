package hmac_test

import (
	"testing"

	"github.com/visualright/filterlab/internal/hmac"
)

var message = "/id/1.png?kernel=sharpen"

func TestHMAC(t *testing.T) {
	h, err := hmac.New("foobar")
	if err != nil {
		t.Fatal(err)
	}

	mac, err := h.Create(message)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		message  string
		mac      string
		expected bool
	}{
		{message, mac, true},
		{"/id/1.png?kernel=blur", mac, false},
		{message, "", false},
		{message, mac[1:], false},
	}

	for _, test := range tests {
		matches, err := h.Validate(test.message, test.mac)
		if err != nil {
			t.Fatal(err)
		}

		if matches != test.expected {
			t.Errorf("%q %q: got %t", test.message, test.mac, matches)
		}
	}

	other, _ := hmac.New("barfoo")
	if matches, _ := other.Validate(message, mac); matches {
		t.Error("hmac matches with a different key")
	}
}

func TestNew(t *testing.T) {
	if _, err := hmac.New(""); err != hmac.ErrEmptyKey {
		t.Errorf("wrong error %v", err)
	}
}
