package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTruncateHundred(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"7550", "7500"},
		{"4850", "4800"},
		{"49300", "49300"},
		{"99", "0"},
		{"100", "100"},
		{"12345.67", "12300"},
		{"0", "0"},
		{"-50", "-100"},
		{"-1234", "-1300"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got := TruncateHundred(decimal.RequireFromString(c.in))
			assert.True(t, got.Equal(decimal.RequireFromString(c.want)),
				"TruncateHundred(%s) = %s, want %s", c.in, got, c.want)
		})
	}
}

func TestIsHundredMultiple(t *testing.T) {
	assert.True(t, IsHundredMultiple(decimal.NewFromInt(7500)))
	assert.True(t, IsHundredMultiple(decimal.Zero))
	assert.False(t, IsHundredMultiple(decimal.NewFromInt(7550)))
}

func TestComma(t *testing.T) {
	assert.Equal(t, "49,300", Comma(decimal.NewFromInt(49300)))
	assert.Equal(t, "125,000", Comma(decimal.NewFromInt(125000)))
	assert.Equal(t, "900", Comma(decimal.NewFromInt(900)))
	assert.Equal(t, "-1,300", Comma(decimal.NewFromInt(-1300)))
	assert.Equal(t, "1,234,567", Comma(decimal.NewFromInt(1234567)))
}

func TestFormatManwon(t *testing.T) {
	assert.Equal(t, "49,300만", FormatManwon(decimal.NewFromInt(49300)))
}
