package cache

import (
	"errors"
	"fmt"

	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Clear()
}

var _ Cache = (*ResponseCache)(nil)

// ResponseCache keeps encoded responses in memory for a fixed time.
type ResponseCache struct {
	mainCache     *freecache.Cache
	expireSeconds int
}

func NewResponseCache(sizeMB, expireSeconds int) *ResponseCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &ResponseCache{
		mainCache:     freecache.NewCache(sizeMB * megabyte),
		expireSeconds: expireSeconds,
	}
}

func (c *ResponseCache) Get(key string) ([]byte, bool) {
	value, err := c.mainCache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *ResponseCache) Set(key string, value []byte) error {
	if err := c.mainCache.Set([]byte(key), value, c.expireSeconds); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) {
			return fmt.Errorf("response for %s too large to cache: %w", key, err)
		}
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *ResponseCache) Clear() {
	c.mainCache.Clear()
}
