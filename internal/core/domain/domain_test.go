package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPostingType_Valid(t *testing.T) {
	assert.True(t, PostingTypeAdd.Valid())
	assert.True(t, PostingTypeDeduct.Valid())
	assert.False(t, PostingType("TRANSFER").Valid())
	assert.False(t, PostingType("").Valid())
	// Case matters: the store persists the exact enum strings.
	assert.False(t, PostingType("add").Valid())
}

func TestPosting_Signed(t *testing.T) {
	add := Posting{Type: PostingTypeAdd, Amount: decimal.NewFromInt(100)}
	deduct := Posting{Type: PostingTypeDeduct, Amount: decimal.NewFromInt(40)}

	assert.True(t, add.Signed().Equal(decimal.NewFromInt(100)))
	assert.True(t, deduct.Signed().Equal(decimal.NewFromInt(-40)))
}

func TestSumSigned_OrderIndependent(t *testing.T) {
	a := Posting{Type: PostingTypeAdd, Amount: decimal.NewFromInt(100)}
	b := Posting{Type: PostingTypeDeduct, Amount: decimal.NewFromInt(30)}
	c := Posting{Type: PostingTypeDeduct, Amount: decimal.RequireFromString("12.50")}

	want := decimal.RequireFromString("57.50")
	assert.True(t, SumSigned([]Posting{a, b, c}).Equal(want))
	assert.True(t, SumSigned([]Posting{c, a, b}).Equal(want))
	assert.True(t, SumSigned([]Posting{b, c, a}).Equal(want))
}

func TestSumSigned_Empty(t *testing.T) {
	assert.True(t, SumSigned(nil).IsZero())
}

func TestParseBoolCell(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"true", true},
		{"True", true},
		{"TRUE", true},
		{"  true ", true},
		{"false", false},
		{"False", false},
		{"", false},
		{"yes", false},
		{"1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBoolCell(tt.raw), "raw %q", tt.raw)
	}
}

func TestFormatBoolCell_RoundTrips(t *testing.T) {
	assert.True(t, ParseBoolCell(FormatBoolCell(true)))
	assert.False(t, ParseBoolCell(FormatBoolCell(false)))
}

func TestBuildIdempotencyKey(t *testing.T) {
	assert.Equal(t, "00000000000001:retry-7", BuildIdempotencyKey("00000000000001", "retry-7"))
}
