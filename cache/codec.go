package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Codec turns values into the byte payloads a Store keeps.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// GetValue reads key from store and decodes it into dest.
func GetValue(ctx context.Context, store Store, codec Codec, key string, dest any) error {
	payload, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	return codec.Unmarshal(payload, dest)
}

// SetValue encodes v and writes it under key.
func SetValue(ctx context.Context, store Store, codec Codec, key string, v any, ttl time.Duration) error {
	payload, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, payload, ttl)
}
