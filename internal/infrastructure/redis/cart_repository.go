package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	domain "github.com/asif4762/bookbarn-final-server/internal/domain/cart"
)

// CartRepository stores each buyer's cart as a redis hash keyed
// cart:<email>, one field per book id holding the JSON-encoded item.
type CartRepository struct {
	client *goredis.Client
}

func NewCartRepository(client *goredis.Client) *CartRepository {
	return &CartRepository{client: client}
}

func cartKey(buyerEmail string) string {
	return "cart:" + buyerEmail
}

func (r *CartRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]*domain.Item, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(buyerEmail)).Result()
	if err != nil {
		return nil, fmt.Errorf("cart redis: list: %w", err)
	}

	items := make([]*domain.Item, 0, len(fields))
	for _, raw := range fields {
		var item domain.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("cart redis: decode item: %w", err)
		}
		items = append(items, &item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].BookID < items[j].BookID })
	return items, nil
}

func (r *CartRepository) Upsert(ctx context.Context, item *domain.Item) error {
	if item == nil || item.BuyerEmail == "" || item.BookID == "" {
		return domain.ErrMissingField
	}
	if item.Count < 1 {
		return domain.ErrInvalidCount
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("cart redis: encode item: %w", err)
	}
	if err := r.client.HSet(ctx, cartKey(item.BuyerEmail), item.BookID, raw).Err(); err != nil {
		return fmt.Errorf("cart redis: upsert: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateCount(ctx context.Context, buyerEmail, bookID string, count int) error {
	if count < 1 {
		return domain.ErrInvalidCount
	}

	raw, err := r.client.HGet(ctx, cartKey(buyerEmail), bookID).Result()
	if err == goredis.Nil {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("cart redis: load item: %w", err)
	}

	var item domain.Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return fmt.Errorf("cart redis: decode item: %w", err)
	}
	if err := item.SetCount(count); err != nil {
		return err
	}

	updated, err := json.Marshal(&item)
	if err != nil {
		return fmt.Errorf("cart redis: encode item: %w", err)
	}
	if err := r.client.HSet(ctx, cartKey(buyerEmail), bookID, updated).Err(); err != nil {
		return fmt.Errorf("cart redis: update: %w", err)
	}
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, buyerEmail, bookID string) error {
	removed, err := r.client.HDel(ctx, cartKey(buyerEmail), bookID).Result()
	if err != nil {
		return fmt.Errorf("cart redis: remove: %w", err)
	}
	if removed == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, buyerEmail string) error {
	if err := r.client.Del(ctx, cartKey(buyerEmail)).Err(); err != nil {
		return fmt.Errorf("cart redis: clear: %w", err)
	}
	return nil
}
