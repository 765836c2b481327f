package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicFanOut(t *testing.T) {
	input := make(chan int)
	f := NewDynamicFanOut(input)

	id1, out1, err := f.SpawnOutput()
	require.Nil(t, err)
	_, out2, err := f.SpawnOutput()
	require.Nil(t, err)

	input <- 1
	assert.Equal(t, 1, <-out1)
	assert.Equal(t, 1, <-out2)

	require.Nil(t, f.DespawnOutput(id1))
	_, ok := <-out1
	assert.False(t, ok)
	assert.NotNil(t, f.DespawnOutput(id1))

	input <- 2
	assert.Equal(t, 2, <-out2)

	close(input)
	_, ok = <-out2
	assert.False(t, ok)

	_, _, err = f.SpawnOutput()
	assert.True(t, errors.Is(err, ErrInputClosed))
}

func TestLatestFanOut(t *testing.T) {
	input := make(chan int)
	f := NewLatestFanOut(input)

	_, slow, err := f.SpawnOutput()
	require.Nil(t, err)

	// nobody reads, fan-out must not block
	for i := 0; i < 10; i++ {
		select {
		case input <- i:
		case <-time.After(time.Second):
			t.Fatal("fan-out blocked")
		}
	}
	close(input)

	var got []int
	for v := range slow {
		got = append(got, v)
	}
	// value delivered before the last one may still be unread
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 2)
	assert.Equal(t, 9, got[len(got)-1])
}
