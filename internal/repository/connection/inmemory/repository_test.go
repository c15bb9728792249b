package inmemory

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/repository/connection"
)

func TestAdd(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}

	require.NoError(t, r.Add(conn, "room1", "m1"))

	err := r.Add(&websocket.Conn{}, "room2", "m1")
	require.ErrorIs(t, err, connection.ErrAlreadyExists, "member ids are unique across rooms")

	err = r.Add(conn, "room1", "m2")
	require.ErrorIs(t, err, connection.ErrAlreadyExists, "one member per room per connection")

	// one connection can hold memberships in several rooms
	require.NoError(t, r.Add(conn, "room2", "m2"))

	got, err := r.GetConn("m1")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	got, err = r.GetConn("m2")
	require.NoError(t, err)
	assert.Same(t, conn, got)
}

func TestRemoveByMemberId(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}

	require.NoError(t, r.Add(conn, "room1", "m1"))
	require.NoError(t, r.Add(conn, "room2", "m2"))

	require.NoError(t, r.RemoveByMemberId("m1"))

	_, err := r.GetConn("m1")
	require.ErrorIs(t, err, connection.ErrNotFound)

	// the other membership of the same connection survives
	got, err := r.GetConn("m2")
	require.NoError(t, err)
	assert.Same(t, conn, got)

	err = r.RemoveByMemberId("m1")
	require.ErrorIs(t, err, connection.ErrNotFound)

	// the slot is free again after removal
	require.NoError(t, r.Add(conn, "room1", "m1"))
}
