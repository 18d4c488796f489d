package zensegur

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Cursor is a typed, forward-only view over a driver cursor. Batches are fetched
// as Next advances.
type Cursor[T any] struct {
	cursor  *mongo.Cursor
	current T
	err     error
}

func (c *Cursor[T]) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}
	if !c.cursor.Next(ctx) {
		if err := c.cursor.Err(); err != nil {
			c.err = readError("find", err)
		}
		return false
	}

	var item T
	if err := c.cursor.Decode(&item); err != nil {
		c.err = readError("decode", err)
		return false
	}
	c.current = item
	return true
}

func (c *Cursor[T]) Value() T {
	return c.current
}

func (c *Cursor[T]) Err() error {
	return c.err
}

func (c *Cursor[T]) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}
