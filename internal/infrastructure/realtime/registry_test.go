package realtime_test

import (
	"fmt"
	"sync"
	"testing"

	"shopchat/internal/infrastructure/realtime"
)

// fakeHandle records payloads like a registry member would.
type fakeHandle struct {
	id string

	mu       sync.Mutex
	received [][]byte
}

func newFakeHandle(id string) *fakeHandle {
	return &fakeHandle{id: id}
}

func (f *fakeHandle) SessionID() string { return f.id }

func (f *fakeHandle) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, payload)
	return nil
}

func (f *fakeHandle) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func TestRegistry_BroadcastDeliversToMembers(t *testing.T) {
	reg := realtime.NewRegistry()
	a := newFakeHandle("a")
	b := newFakeHandle("b")
	reg.Join("chat_1", a)
	reg.Join("chat_1", b)

	delivered := reg.Broadcast("chat_1", []byte("hello"))

	if delivered != 2 {
		t.Errorf("Broadcast() delivered = %d, want 2", delivered)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("member payload counts = %d, %d, want 1, 1", a.count(), b.count())
	}
}

func TestRegistry_BroadcastScopedToRoom(t *testing.T) {
	reg := realtime.NewRegistry()
	a := newFakeHandle("a")
	b := newFakeHandle("b")
	reg.Join("chat_1", a)
	reg.Join("chat_2", b)

	reg.Broadcast("chat_1", []byte("hello"))

	if b.count() != 0 {
		t.Errorf("member of another room received %d payloads, want 0", b.count())
	}
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	reg := realtime.NewRegistry()
	a := newFakeHandle("a")
	reg.Join("chat_1", a)

	reg.Leave("chat_1", a)
	reg.Leave("chat_1", a)
	// leaving a room that was never joined must be safe too
	reg.Leave("chat_9", a)

	if got := reg.MemberCount("chat_1"); got != 0 {
		t.Errorf("MemberCount() = %d, want 0", got)
	}
	if reg.Broadcast("chat_1", []byte("x")) != 0 {
		t.Error("Broadcast() after leave delivered to a stale member")
	}
}

func TestRegistry_BroadcastEmptyRoom(t *testing.T) {
	reg := realtime.NewRegistry()
	if got := reg.Broadcast("chat_404", []byte("x")); got != 0 {
		t.Errorf("Broadcast() = %d, want 0", got)
	}
}

func TestRegistry_RejoinAfterLeave(t *testing.T) {
	reg := realtime.NewRegistry()
	a := newFakeHandle("a")
	reg.Join("chat_1", a)
	reg.Leave("chat_1", a)
	reg.Join("chat_1", a)

	if got := reg.MemberCount("chat_1"); got != 1 {
		t.Errorf("MemberCount() = %d, want 1", got)
	}
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	reg := realtime.NewRegistry()

	var wg sync.WaitGroup
	for room := 0; room < 32; room++ {
		roomID := fmt.Sprintf("chat_%d", room)
		for member := 0; member < 4; member++ {
			wg.Add(1)
			go func(roomID string, member int) {
				defer wg.Done()
				h := newFakeHandle(fmt.Sprintf("%s-%d", roomID, member))
				for i := 0; i < 50; i++ {
					reg.Join(roomID, h)
					reg.Broadcast(roomID, []byte("payload"))
					reg.Leave(roomID, h)
				}
			}(roomID, member)
		}
	}
	wg.Wait()

	for room := 0; room < 32; room++ {
		roomID := fmt.Sprintf("chat_%d", room)
		if got := reg.MemberCount(roomID); got != 0 {
			t.Errorf("MemberCount(%s) = %d after churn, want 0", roomID, got)
		}
	}
}
