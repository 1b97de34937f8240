package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// Consumer empties a user's cart when an order-placed event arrives. This is
// the only event reaction in the system: placement itself clears the cart
// synchronously, and the consumer mops up after crashes between the order
// commit and the clear.
type Consumer struct {
	repo   Repository
	cache  Cache
	reader *kafka.Reader
}

func NewConsumer(repo Repository, cache Cache, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "order-placed",
		GroupID:  "cart-clearer",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{repo, cache, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var payload map[string]interface{}
	if errUnmarshal := json.Unmarshal(m.Value, &payload); errUnmarshal != nil {
		log.Printf("error parsing message: %v", errUnmarshal)
		return
	}
	userID, ok := payload["user_id"].(string)
	if !ok {
		log.Println("missing or invalid user_id")
		return
	}

	errDelete := c.repo.DeleteCart(ctx, userID)
	if errDelete != nil && !errors.Is(errDelete, ErrCartNotFound) {
		log.Printf("failed to delete cart: %v", errDelete)
	}

	if errCache := c.cache.Delete(ctx, userID); errCache != nil {
		log.Printf("failed to delete cart cache: %v", errCache)
	}
}
