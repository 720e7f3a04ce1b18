package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "shopchat/internal/pkg/chat/application/domain"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

const conversationColumns = "id, buyer_id, shop_id, product_id, created_at, buyer_unread, shop_unread"

// GetOrCreateConversation resolves the unique (buyer, shop, product) key.
// The insert uses ON CONFLICT DO NOTHING, so a concurrent first contact that
// loses the race gets no row back and re-reads the winner instead of failing
// on the uniqueness violation.
func (r *PgChatRepository) GetOrCreateConversation(ctx context.Context, c chat.Conversation) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	conv, err := r.findConversation(ctx, c.BuyerID, c.ShopID, c.ProductID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var out chat.Conversation
	err = r.pool.QueryRow(ctx, `
		INSERT INTO conversation (buyer_id, shop_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT conversation_thread_key DO NOTHING
		RETURNING `+conversationColumns+`
	`, c.BuyerID, c.ShopID, c.ProductID, c.CreatedAt).
		Scan(&out.ID, &out.BuyerID, &out.ShopID, &out.ProductID, &out.CreatedAt, &out.BuyerUnread, &out.ShopUnread)
	if err == nil {
		return &out, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race: the winning row exists now.
		return r.findConversation(ctx, c.BuyerID, c.ShopID, c.ProductID)
	}
	return nil, err
}

func (r *PgChatRepository) findConversation(ctx context.Context, buyerID, shopID int64, productID *int64) (*chat.Conversation, error) {
	var out chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversation
		WHERE buyer_id = $1 AND shop_id = $2 AND product_id IS NOT DISTINCT FROM $3
	`, buyerID, shopID, productID).
		Scan(&out.ID, &out.BuyerID, &out.ShopID, &out.ProductID, &out.CreatedAt, &out.BuyerUnread, &out.ShopUnread)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id int64) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var out chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversation
		WHERE id = $1
	`, id).
		Scan(&out.ID, &out.BuyerID, &out.ShopID, &out.ProductID, &out.CreatedAt, &out.BuyerUnread, &out.ShopUnread)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO message (conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.ConversationID, m.SenderID, m.Content, m.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID int64, limit int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, created_at
		FROM message
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
