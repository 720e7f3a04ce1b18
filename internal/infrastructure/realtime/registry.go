package realtime

import (
	"hash/fnv"
	"sync"
)

// Handle is the registry's view of a live connection. Send must not block;
// implementations enqueue and report failure instead.
type Handle interface {
	SessionID() string
	Send(payload []byte) error
}

// Broadcaster delivers a payload to every member of a room. The returned
// count is the number of handles delivered to locally.
type Broadcaster interface {
	Broadcast(roomID string, payload []byte) int
}

const registryShards = 16

// Registry maps conversation rooms to their live connection handles. State is
// partitioned by room id across a fixed set of shards so that churn or fanout
// in one conversation never contends with another's.
type Registry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Handle // roomID -> sessionID -> handle
}

// NewRegistry constructs an initialized Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].rooms = make(map[string]map[string]Handle)
	}
	return r
}

func (r *Registry) shard(roomID string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(roomID))
	return &r.shards[h.Sum32()%registryShards]
}

// Join registers the handle as a member of the room.
func (r *Registry) Join(roomID string, h Handle) {
	s := r.shard(roomID)
	s.mu.Lock()
	room := s.rooms[roomID]
	if room == nil {
		room = make(map[string]Handle)
		s.rooms[roomID] = room
	}
	room[h.SessionID()] = h
	s.mu.Unlock()
}

// Leave removes the handle from the room. It is idempotent and safe to call
// for handles that never joined.
func (r *Registry) Leave(roomID string, h Handle) {
	s := r.shard(roomID)
	s.mu.Lock()
	if room := s.rooms[roomID]; room != nil {
		delete(room, h.SessionID())
		if len(room) == 0 {
			delete(s.rooms, roomID)
		}
	}
	s.mu.Unlock()
}

// Broadcast writes payload to the handles registered at call time. Delivery
// is fire-and-forget: there is no buffering for late joiners and no retry for
// members that drop mid-broadcast.
func (r *Registry) Broadcast(roomID string, payload []byte) int {
	s := r.shard(roomID)
	s.mu.RLock()
	room := s.rooms[roomID]
	delivered := 0
	for _, h := range room {
		if err := h.Send(payload); err == nil {
			delivered++
		}
	}
	s.mu.RUnlock()
	return delivered
}

// MemberCount reports the current number of members in the room.
func (r *Registry) MemberCount(roomID string) int {
	s := r.shard(roomID)
	s.mu.RLock()
	n := len(s.rooms[roomID])
	s.mu.RUnlock()
	return n
}
