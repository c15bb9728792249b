package inmemory

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/connection"
)

type membership struct {
	conn   *websocket.Conn
	roomId string
}

// repo maps live websocket connections to room memberships. A single
// connection can hold memberships in several rooms, but at most one member
// per room. Member ids are unique across rooms, so they key the reverse map.
type repo struct {
	byMemberId map[string]membership
	byConn     map[*websocket.Conn]map[string]string // conn -> roomId -> memberId
	mu         sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		byMemberId: make(map[string]membership),
		byConn:     make(map[*websocket.Conn]map[string]string),
	}
}

func (r *repo) Add(conn *websocket.Conn, roomId, memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byMemberId[memberId]; ok {
		return connection.ErrAlreadyExists
	}

	rooms, ok := r.byConn[conn]
	if !ok {
		rooms = make(map[string]string)
		r.byConn[conn] = rooms
	}
	if _, ok := rooms[roomId]; ok {
		return connection.ErrAlreadyExists
	}

	rooms[roomId] = memberId
	r.byMemberId[memberId] = membership{conn: conn, roomId: roomId}

	return nil
}

func (r *repo) RemoveByMemberId(memberId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byMemberId[memberId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.byMemberId, memberId)
	if rooms, ok := r.byConn[m.conn]; ok {
		delete(rooms, m.roomId)
		if len(rooms) == 0 {
			delete(r.byConn, m.conn)
		}
	}

	return nil
}

func (r *repo) GetConn(memberId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byMemberId[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return m.conn, nil
}
