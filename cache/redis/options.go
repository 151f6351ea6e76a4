package redis

import (
	"time"

	"github.com/adeilh/quill/cache"
)

// Options controls how the Redis cache store connects to the server.
type Options struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	// Namespace is prepended to every key so Clear never touches foreign data.
	Namespace  string
	DefaultTTL time.Duration
	// ScanCount hints how many keys each SCAN round trip should return.
	ScanCount int64
}

func (o Options) withDefaults() Options {
	if o.Addr == "" {
		o.Addr = "127.0.0.1:6379"
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 5 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 2 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 2 * time.Second
	}
	if o.DB < 0 {
		o.DB = 0
	}
	if o.PoolSize <= 0 {
		o.PoolSize = 8
	}
	if o.Namespace == "" {
		o.Namespace = "quill:"
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = cache.DefaultTTL
	}
	if o.ScanCount <= 0 {
		o.ScanCount = 100
	}
	return o
}
