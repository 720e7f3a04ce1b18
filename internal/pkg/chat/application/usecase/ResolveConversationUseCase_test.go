package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	chat "shopchat/internal/pkg/chat/application/domain"
	"shopchat/internal/pkg/chat/application/usecase"
	userrepo "shopchat/internal/repository/port"
)

func ptr(v int64) *int64 { return &v }

func resolveFixture() (*usecase.ResolveConversationUseCase, *fakeChatRepo) {
	repo := newFakeChatRepo()
	users := newFakeUserRepo(
		userrepo.User{ID: 1, Username: "alice", UserType: "buyer"},
		userrepo.User{ID: 2, Username: "gadget-shop", UserType: "seller"},
		userrepo.User{ID: 3, Username: "bob", UserType: "buyer"},
	)
	return usecase.NewResolveConversationUseCase(repo, users), repo
}

func TestResolve_CreatesOnFirstContact(t *testing.T) {
	uc, _ := resolveFixture()

	conv, err := uc.Execute(context.Background(), usecase.ResolveConversationInput{UserID: 1, ShopID: 2})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if conv.BuyerID != 1 || conv.ShopID != 2 || conv.ProductID != nil {
		t.Errorf("conversation = %+v, want buyer 1, shop 2, nil product", conv)
	}
}

func TestResolve_UnknownShop(t *testing.T) {
	uc, repo := resolveFixture()

	_, err := uc.Execute(context.Background(), usecase.ResolveConversationInput{UserID: 1, ShopID: 99})
	if !errors.Is(err, chat.ErrShopNotFound) {
		t.Fatalf("Execute() error = %v, want ErrShopNotFound", err)
	}
	if repo.getOrCount != 0 {
		t.Error("repository reached despite unknown shop")
	}
}

func TestResolve_ReturnsExistingConversation(t *testing.T) {
	uc, _ := resolveFixture()
	ctx := context.Background()

	first, err := uc.Execute(ctx, usecase.ResolveConversationInput{UserID: 1, ShopID: 2, ProductID: ptr(7)})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := uc.Execute(ctx, usecase.ResolveConversationInput{UserID: 1, ShopID: 2, ProductID: ptr(7)})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("resolve returned two conversations (%d, %d) for one tuple", first.ID, second.ID)
	}
}

func TestResolve_NilProductIsDistinctKey(t *testing.T) {
	uc, _ := resolveFixture()
	ctx := context.Background()

	bare, err := uc.Execute(ctx, usecase.ResolveConversationInput{UserID: 1, ShopID: 2})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	scoped, err := uc.Execute(ctx, usecase.ResolveConversationInput{UserID: 1, ShopID: 2, ProductID: ptr(7)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if bare.ID == scoped.ID {
		t.Error("product-less and product-scoped threads collapsed into one conversation")
	}
}

func TestResolve_BuyerOverride(t *testing.T) {
	uc, _ := resolveFixture()

	// The shop connects naming the buyer explicitly; the thread belongs to
	// that buyer, not to the connecting account.
	conv, err := uc.Execute(context.Background(), usecase.ResolveConversationInput{UserID: 2, ShopID: 2, BuyerID: ptr(3)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if conv.BuyerID != 3 {
		t.Errorf("BuyerID = %d, want 3", conv.BuyerID)
	}
}

func TestResolve_ConcurrentFirstContact(t *testing.T) {
	uc, _ := resolveFixture()

	const n = 32
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := uc.Execute(context.Background(), usecase.ResolveConversationInput{
				UserID: 1, ShopID: 2, ProductID: ptr(7),
			})
			if err != nil {
				t.Errorf("Execute() error = %v", err)
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("concurrent resolves diverged: ids[0]=%d ids[%d]=%d", ids[0], i, ids[i])
		}
	}
}
