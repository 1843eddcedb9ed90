package cidr

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	blocks, err := Aggregate(fixture)
	require.NoError(t, err)
	require.Equal(t, []string{
		"127.0.0.1/32", "127.0.0.2/31", "127.0.0.4/30",
		"127.0.1.1/32", "127.0.1.2/31",
		"127.0.1.5",
	}, blocks)
}

func TestAggregateAlignedRun(t *testing.T) {
	blocks, err := Aggregate([]string{
		"127.0.0.0", "127.0.0.1", "127.0.0.2", "127.0.0.3", "127.0.0.4", "127.0.0.5", "127.0.0.6",
		"127.0.1.1", "127.0.1.2", "127.0.1.3",
		"127.0.1.5",
	})
	require.NoError(t, err)
	require.Len(t, blocks, 6)
	require.Contains(t, blocks, "127.0.0.0/30")
	require.Contains(t, blocks, "127.0.0.4/31")
	require.Contains(t, blocks, "127.0.0.6/32")
	require.Contains(t, blocks, "127.0.1.1/32")
	require.Contains(t, blocks, "127.0.1.2/31")
	require.Contains(t, blocks, "127.0.1.5")
}

func TestAggregateWholeBlock(t *testing.T) {
	list, err := ListAll("172.16.4.0/22")
	require.NoError(t, err)

	blocks, err := Aggregate(list)
	require.NoError(t, err)
	require.Equal(t, []string{"172.16.4.0/22"}, blocks)
}

func TestAggregateOrderIndependent(t *testing.T) {
	expected, err := Aggregate(fixture)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), fixture...)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got, err := Aggregate(shuffled)
		require.NoError(t, err)
		require.ElementsMatch(t, expected, got)
	}
}

func TestAggregateErrors(t *testing.T) {
	_, err := Aggregate([]string{})
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = Aggregate(nil)
	require.ErrorIs(t, err, ErrUndefinedInput)

	_, err = Aggregate([]string{"127.0.0.1", "localhost"})
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestBlocksOf(t *testing.T) {
	blocks := BlocksOf([]Range{
		rangeOf(t, "10.0.0.0", "10.0.0.2"),
		rangeOf(t, "10.0.1.0", "10.0.1.255"),
	})
	require.Equal(t, []Block{
		{Base: mustAddr(t, "10.0.0.0"), Prefix: 31},
		{Base: mustAddr(t, "10.0.0.2"), Prefix: 32},
		{Base: mustAddr(t, "10.0.1.0"), Prefix: 24},
	}, blocks)
}
