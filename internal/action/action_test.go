package action

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		in   Action
		wire string
	}{
		{"accept", Accept("X1"), "v1|acc|X1"},
		{"report", Report("X1", ReasonBadPhone), "v1|rpt|X1|phone"},
		{"time", SelectTime("X1", "15"), "v1|tim|X1|15"},
		{"open ended time", SelectTime("X1", "90+"), "v1|tim|X1|90%2B"},
		{"delivery", SelectDelivery("X1", 2), "v1|dlv|X1|2"},
		{"separator inside id", Accept("a|b_c"), "v1|acc|a%7Cb_c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := tc.in.Encode()
			require.NoError(t, err)
			assert.Equal(t, tc.wire, s)

			got, err := Decode(s)
			require.NoError(t, err)
			assert.Equal(t, tc.in, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, s := range []string{
		"",
		"accept_X1",
		"v2|acc|X1",
		"v1|acc|",
		"v1|acc|X1|extra",
		"v1|tim|X1",
		"v1|tim|X1|soon",
		"v1|rpt|X1|weather",
		"v1|dlv|X1|-1",
		"v1|dlv|X1|first",
		"v1|zzz|X1",
	} {
		_, err := Decode(s)
		assert.ErrorIs(t, err, ErrMalformed, s)
	}
}

func TestEncode_TooLong(t *testing.T) {
	_, err := Accept(strings.Repeat("x", 70)).Encode()
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestValidTime(t *testing.T) {
	assert.True(t, ValidTime("5"))
	assert.True(t, ValidTime("90+"))
	assert.False(t, ValidTime("0"))
	assert.False(t, ValidTime("+"))
	assert.False(t, ValidTime(""))
}
