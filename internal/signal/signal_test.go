package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_Order(t *testing.T) {
	var s Signal[int]
	var order []string
	add := func(name string, group Group, pos Position) {
		s.ConnectFiltered(func(int) { order = append(order, name) }, nil, group, pos)
	}

	add("default-back1", GroupDefault, AtBack)
	add("default-front1", GroupDefault, AtFront)
	add("highest-back", GroupHighest, AtBack)
	add("default-back2", GroupDefault, AtBack)
	add("default-front2", GroupDefault, AtFront)
	add("highest-front", GroupHighest, AtFront)

	s.Emit(0)
	assert.Equal(t, []string{
		"highest-front", "highest-back",
		"default-front2", "default-front1",
		"default-back1", "default-back2",
	}, order)
}

func TestSignal_Filter(t *testing.T) {
	var s Signal[int]
	var got []int
	s.ConnectFiltered(func(v int) { got = append(got, v) }, func(v int) bool { return v%2 == 0 }, GroupDefault, AtBack)

	for i := 0; i < 5; i++ {
		s.Emit(i)
	}
	assert.Equal(t, []int{0, 2, 4}, got)
}

func TestSignal_DisconnectDuringEmit(t *testing.T) {
	var s Signal[int]
	var calls []string
	var second Connection
	s.Connect(func(int) {
		calls = append(calls, "first")
		second.Disconnect()
	})
	second = s.Connect(func(int) { calls = append(calls, "second") })

	s.Emit(1)
	assert.Equal(t, []string{"first"}, calls)
	assert.False(t, second.Connected())
	assert.Equal(t, 1, s.Len())
}

func TestSignal_Panic(t *testing.T) {
	s := Signal[string]{Name: "test"}
	var reached bool
	s.Connect(func(string) { panic("boom") })
	s.Connect(func(string) { reached = true })

	require.NotPanics(t, func() { s.Emit("x") })
	assert.True(t, reached)
}

func TestConnection_Zero(t *testing.T) {
	var c Connection
	assert.False(t, c.Connected())
	c.Disconnect()
}
