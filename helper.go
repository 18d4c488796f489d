package zensegur

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

const (
	XCORRELATIONID string = "X-Correlation-Id"
	XRUNID         string = "X-Run-Id"
)

type contextKey string

const runIDKey = contextKey(XRUNID)

func WithRunID(c context.Context, id uuid.UUID) context.Context {
	return context.WithValue(c, runIDKey, id.String())
}

// GetContextHeader looks the keys up in request headers for gin contexts and in
// context values otherwise.
func GetContextHeader(c context.Context, keys ...string) string {
	for _, key := range keys {
		switch c := c.(type) {
		case *gin.Context:
			if sid := c.Request.Header.Get(key); sid != "" {
				return sid
			}
		default:
			if v, ok := c.Value(contextKey(key)).(string); ok && v != "" {
				return v
			}
		}
	}

	return ""
}

func RunID(c context.Context) string {
	return GetContextHeader(c, XRUNID)
}

func getContext(c context.Context) context.Context {
	switch c := c.(type) {
	case *gin.Context:
		return c.Request.Context()
	default:
		return c
	}
}

func MarshalWithRegistry(val interface{}) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})
	vw, err := bsonrw.NewBSONValueWriter(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create BSON value writer: %w", err)
	}

	enc, err := bson.NewEncoder(vw)
	if err != nil {
		return nil, fmt.Errorf("failed to create BSON encoder: %w", err)
	}

	if err := enc.SetRegistry(MongoRegistry); err != nil {
		return nil, err
	}

	if err := enc.Encode(val); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func UnmarshalWithRegistry(data []byte, val interface{}) error {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return fmt.Errorf("failed to create BSON decoder: %w", err)
	}
	if err := dec.SetRegistry(MongoRegistry); err != nil {
		return err
	}

	return dec.Decode(val)
}
