package chat

import (
	"fmt"
	"time"
)

// Conversation is a durable thread between exactly one buyer and one shop,
// optionally scoped to one product. The triple (BuyerID, ShopID, ProductID)
// is unique; a nil ProductID is a key value of its own, not a wildcard, so
// the same pair can hold one product-less thread plus one thread per product.
type Conversation struct {
	ID        int64
	BuyerID   int64
	ShopID    int64
	ProductID *int64
	CreatedAt time.Time

	// Unread counters exist in the schema but nothing increments or reads
	// them yet; they always serialize as zero.
	BuyerUnread int
	ShopUnread  int
}

// HasParticipant reports whether userID is one of the two parties.
func (c Conversation) HasParticipant(userID int64) bool {
	return userID == c.BuyerID || userID == c.ShopID
}

// RoomID derives the fanout room name for this conversation. Rooms have no
// existence independent of their conversation.
func (c Conversation) RoomID() string {
	return fmt.Sprintf("chat_%d", c.ID)
}
