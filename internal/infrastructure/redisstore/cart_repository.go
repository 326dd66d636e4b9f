package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

const defaultCartTTL = 7 * 24 * time.Hour

// CartRepository keeps each customer's cart as one JSON value.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartRepository(client *redis.Client) *CartRepository {
	return &CartRepository{client: client, ttl: defaultCartTTL}
}

func (r *CartRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(customerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &domain.Cart{CustomerID: customerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	c.CustomerID = customerID
	return &c, nil
}

func (r *CartRepository) Save(ctx context.Context, c *domain.Cart) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(c.CustomerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	if err := r.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("redis delete cart: %w", err)
	}
	return nil
}

func cartKey(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}
