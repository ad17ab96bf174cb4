package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	e, err := Lookup(Pass5Day)
	require.NoError(t, err)
	assert.Equal(t, Entitlement{Punches: 5}, e)

	e, err = Lookup(Pass10Day)
	require.NoError(t, err)
	assert.Equal(t, 10, e.Punches)

	e, err = Lookup(Pass30Day)
	require.NoError(t, err)
	assert.True(t, e.DurationOnly)

	_, err = Lookup("2day")
	assert.ErrorIs(t, err, ErrUnknownPassType)
}

func TestDaysFor(t *testing.T) {
	tests := []struct {
		pt     PassType
		want   int
		wantOK bool
	}{
		{pt: Pass5Day, want: 5, wantOK: true},
		{pt: Pass10Day, want: 10, wantOK: true},
		{pt: Pass30Day, want: 0, wantOK: false},
		{pt: "", want: 0, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(string(tt.pt), func(t *testing.T) {
			got, ok := DaysFor(tt.pt)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestEntitlement_AllowsAndRemaining(t *testing.T) {
	five := Entitlement{Punches: 5}
	assert.True(t, five.Allows(4))
	assert.False(t, five.Allows(5))
	assert.False(t, five.Allows(7))

	left, limited := five.Remaining(4)
	assert.True(t, limited)
	assert.Equal(t, 1, left)

	left, _ = Entitlement{Punches: 10}.Remaining(4)
	assert.Equal(t, 6, left)

	left, _ = five.Remaining(9)
	assert.Equal(t, 0, left)

	month := Entitlement{DurationOnly: true}
	assert.True(t, month.Allows(100))
	_, limited = month.Remaining(100)
	assert.False(t, limited)
}

func TestParse(t *testing.T) {
	for _, pt := range Types() {
		got, err := Parse(string(pt))
		require.NoError(t, err)
		assert.Equal(t, pt, got)
	}
	_, err := Parse("yearly")
	assert.ErrorIs(t, err, ErrUnknownPassType)
}
