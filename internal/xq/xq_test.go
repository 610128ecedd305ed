package xq_test

import (
	"testing"

	"github.com/herohde/xiangqisolve/internal/xq"
	"github.com/stretchr/testify/assert"
)

func TestSquare(t *testing.T) {
	s := xq.NewSquare(4, 3)
	assert.True(t, s.IsValid())
	assert.Equal(t, 4, s.Row())
	assert.Equal(t, 3, s.Col())

	assert.False(t, xq.NewSquare(10, 0).IsValid())
	assert.False(t, xq.NewSquare(0, -1).IsValid())
	assert.False(t, xq.InvalidSquare.IsValid())
}

func TestRotate180(t *testing.T) {
	s := xq.NewSquare(0, 0)
	r := s.Rotate180()
	assert.Equal(t, 9, r.Row())
	assert.Equal(t, 8, r.Col())
	assert.Equal(t, s, r.Rotate180())
}

func TestColor(t *testing.T) {
	assert.Equal(t, xq.Black, xq.Red.Opponent())
	assert.Equal(t, xq.Red, xq.Black.Opponent())
	assert.Equal(t, "red", xq.Red.String())
}

func TestKindLetter(t *testing.T) {
	assert.Equal(t, byte('R'), xq.Rook.Letter(xq.Red))
	assert.Equal(t, byte('r'), xq.Rook.Letter(xq.Black))
	assert.Equal(t, byte('P'), xq.Pawn.Letter(xq.Red))
	assert.Equal(t, byte('p'), xq.Pawn.Letter(xq.Black))
	assert.Panics(t, func() { xq.King.Letter(xq.Red) })
}

func TestInPalace(t *testing.T) {
	assert.True(t, xq.InPalace(xq.Red, xq.NewSquare(1, 4)))
	assert.False(t, xq.InPalace(xq.Red, xq.NewSquare(3, 4)))
	assert.True(t, xq.InPalace(xq.Black, xq.NewSquare(8, 3)))
	assert.False(t, xq.InPalace(xq.Black, xq.NewSquare(8, 2)))
}

func TestHasCrossedRiver(t *testing.T) {
	assert.False(t, xq.HasCrossedRiver(xq.Red, 3))
	assert.True(t, xq.HasCrossedRiver(xq.Red, 5))
	assert.False(t, xq.HasCrossedRiver(xq.Black, 6))
	assert.True(t, xq.HasCrossedRiver(xq.Black, 4))
}

func TestBishopMidpoint(t *testing.T) {
	mid := xq.BishopMidpoint(xq.NewSquare(0, 2), xq.NewSquare(2, 4))
	assert.Equal(t, xq.NewSquare(1, 3), mid)
	assert.False(t, xq.BishopMidpoint(xq.NewSquare(0, 2), xq.NewSquare(3, 4)).IsValid())
}
