package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ama@example.com", "am***@e***.com"},
		{"billing@kente.example", "bi***@k***.example"},
		{"a@b.co", "a***@b***.co"},
		{"not-an-email", "n***"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, maskEmail(tc.in), "maskEmail(%q)", tc.in)
	}
}

func TestMaskName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ama Mensah", "A*** M***"},
		{"Kente Studio Ltd", "K*** S*** L***"},
		{"X", "X***"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, maskName(tc.in), "maskName(%q)", tc.in)
	}
}

func TestMaskPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"+233201234567", "***4567"},
		{"0201234567", "***4567"},
		{"4567", "4567"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, maskPhone(tc.in), "maskPhone(%q)", tc.in)
	}
}
