package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ClassRosterKey returns the cache key for a class's ordered student list
func (r *CacheKeyStruct) ClassRosterKey(classID int) string {
	return fmt.Sprintf("class:%d:roster", classID)
}

// RevokedTokenKey returns the cache key marking an operator token as revoked
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("token:%s:revoked", jti)
}

// RateLimitKey returns the cache key counting requests of one client in one window
func (r *CacheKeyStruct) RateLimitKey(clientKey string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%d", clientKey, window)
}

var CacheKey = NewCacheKeyStruct()
