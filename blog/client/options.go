package client

import (
	"time"

	"go.uber.org/zap"

	"github.com/adeilh/quill/cache"
	"github.com/adeilh/quill/cache/memory"
)

// DefaultCommentsTTL is how long comment threads stay cached.
const DefaultCommentsTTL = time.Minute

type Options struct {
	// Cache holds API responses. A private in-memory store is used when nil.
	Cache cache.Store
	Codec cache.Codec
	// PostsTTL applies to post lists and single posts; zero defers to the
	// cache default.
	PostsTTL    time.Duration
	CommentsTTL time.Duration
	Logger      *zap.Logger
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Codec:       cache.JSONCodec{},
		CommentsTTL: DefaultCommentsTTL,
	}
}

func (o Options) withDefaults() Options {
	if o.Cache == nil {
		o.Cache = memory.NewStore()
	}
	if o.Codec == nil {
		o.Codec = cache.JSONCodec{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func WithCache(store cache.Store) Option {
	return func(o *Options) { o.Cache = store }
}

func WithCodec(codec cache.Codec) Option {
	return func(o *Options) { o.Codec = codec }
}

func WithPostsTTL(ttl time.Duration) Option {
	return func(o *Options) { o.PostsTTL = ttl }
}

func WithCommentsTTL(ttl time.Duration) Option {
	return func(o *Options) {
		if ttl != 0 {
			o.CommentsTTL = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}
