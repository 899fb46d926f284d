package royalty

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSchedule(t *testing.T) {
	t.Parallel()

	_, err := NewSchedule(-1)
	require.ErrorIs(t, err, ErrNegativeRate)
	_, err = NewSchedule(10001)
	require.ErrorIs(t, err, ErrRateTooHigh)

	schedule, err := NewSchedule(250)
	require.NoError(t, err)
	require.Equal(t, int64(250), schedule.RateBps)
}

func TestSplit_DefaultRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		price    string
		royalty  string
		toSeller string
	}{
		{price: "0", royalty: "0", toSeller: "0"},
		{price: "1", royalty: "0", toSeller: "1"},
		{price: "19", royalty: "0", toSeller: "19"},
		{price: "20", royalty: "1", toSeller: "19"},
		{price: "100", royalty: "5", toSeller: "95"},
		{price: "199", royalty: "9", toSeller: "190"},
		{price: "1000000000000000000000000000001", royalty: "50000000000000000000000000000", toSeller: "950000000000000000000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			t.Parallel()

			price, ok := new(big.Int).SetString(tt.price, 10)
			require.True(t, ok)

			split, err := Default().Split(price)
			require.NoError(t, err)
			require.Equal(t, tt.royalty, split.Royalty.String())
			require.Equal(t, tt.toSeller, split.ToSeller.String())
		})
	}
}

func TestSplit_SumsToPrice(t *testing.T) {
	t.Parallel()

	for _, bps := range []int64{0, 1, 333, 500, 9999, 10000} {
		schedule, err := NewSchedule(bps)
		require.NoError(t, err)
		for p := int64(0); p < 500; p += 7 {
			split, err := schedule.Split(big.NewInt(p))
			require.NoError(t, err)
			sum := new(big.Int).Add(split.Royalty, split.ToSeller)
			require.Equal(t, 0, sum.Cmp(big.NewInt(p)), "bps=%d price=%d", bps, p)
			require.True(t, split.Royalty.Sign() >= 0)
		}
	}
}

func TestSplit_RejectsNegativePrice(t *testing.T) {
	t.Parallel()

	_, err := Default().Split(big.NewInt(-1))
	require.ErrorIs(t, err, ErrNegativePrice)
	_, err = Default().Split(nil)
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestSplit_DoesNotAliasPrice(t *testing.T) {
	t.Parallel()

	price := big.NewInt(100)
	split, err := Default().Split(price)
	require.NoError(t, err)
	price.SetInt64(0)
	require.Equal(t, "100", split.Price.String())
}
