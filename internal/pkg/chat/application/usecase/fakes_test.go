package usecase_test

import (
	"context"
	"sync"
	"time"

	cport "shopchat/internal/infrastructure/cache/port"
	chat "shopchat/internal/pkg/chat/application/domain"
	userrepo "shopchat/internal/repository/port"
)

type tupleKey struct {
	buyerID   int64
	shopID    int64
	productID int64 // 0 stands for NULL; real ids are positive
	hasProd   bool
}

func keyFor(c chat.Conversation) tupleKey {
	k := tupleKey{buyerID: c.BuyerID, shopID: c.ShopID}
	if c.ProductID != nil {
		k.productID = *c.ProductID
		k.hasProd = true
	}
	return k
}

// fakeChatRepo is an in-memory ChatRepository enforcing the same unique
// (buyer, shop, product) key as the schema.
type fakeChatRepo struct {
	mu sync.Mutex

	nextConvID int64
	nextMsgID  int64
	byKey      map[tupleKey]*chat.Conversation
	byID       map[int64]*chat.Conversation
	messages   map[int64][]chat.Message

	saveErr    error
	getOrCount int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		byKey:    make(map[tupleKey]*chat.Conversation),
		byID:     make(map[int64]*chat.Conversation),
		messages: make(map[int64][]chat.Message),
	}
}

func (r *fakeChatRepo) GetOrCreateConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getOrCount++

	key := keyFor(c)
	if existing, ok := r.byKey[key]; ok {
		cp := *existing
		return &cp, nil
	}

	r.nextConvID++
	c.ID = r.nextConvID
	stored := c
	r.byKey[key] = &stored
	r.byID[c.ID] = &stored
	cp := c
	return &cp, nil
}

func (r *fakeChatRepo) GetConversation(ctx context.Context, id int64) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[id]
	if !ok {
		return nil, chat.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (r *fakeChatRepo) SaveMessage(ctx context.Context, m chat.Message) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	r.nextMsgID++
	m.ID = r.nextMsgID
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)
	return m.ID, nil
}

func (r *fakeChatRepo) GetMessagesByConversation(ctx context.Context, conversationID int64, limit int) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[conversationID]
	// newest first, like the SQL adapter
	out := make([]chat.Message, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *fakeChatRepo) messageCount(conversationID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[conversationID])
}

// fakeUserRepo resolves a fixed set of users and counts lookups.
type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[int64]userrepo.User
	lookups int
}

func newFakeUserRepo(users ...userrepo.User) *fakeUserRepo {
	m := make(map[int64]userrepo.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*userrepo.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	u, ok := r.users[id]
	if !ok {
		return nil, userrepo.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

// fakeCache is an in-memory cport.Cache without expiry.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", cport.ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }
func (c *fakeCache) Close() error                   { return nil }
