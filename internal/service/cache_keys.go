package service

import "strconv"

// Cache key prefixes shared by the resource services
const (
	// PrefixList is the prefix for list pages (list:{query})
	PrefixList = "list:"

	// PrefixByID is the prefix for single items (id:{id})
	PrefixByID = "id:"
)

// ListKey returns the cache key for a list query
func ListKey(query string) string {
	return PrefixList + query
}

// ScopedListKey returns the cache key for a list under a parent resource
func ScopedListKey(scope string, parentID int64, query string) string {
	return PrefixList + scope + "=" + strconv.FormatInt(parentID, 10) + ":" + query
}

// IDKey returns the cache key for one item
func IDKey(id int64) string {
	return PrefixByID + strconv.FormatInt(id, 10)
}
