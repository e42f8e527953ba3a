// Package shard provides write-sharding keys for the post timeline index.
package shard

import (
	"fmt"
	"hash/fnv"
)

// MaxShards is the largest supported shard count; shard suffixes are two hex digits.
const MaxShards = 256

// Clamp bounds numShards to [1, MaxShards].
func Clamp(numShards int) int {
	if numShards < 1 {
		return 1
	}
	if numShards > MaxShards {
		return MaxShards
	}
	return numShards
}

// TimelineKey computes the timeline partition for a post.
// With numShards=1, all posts go to shard "00".
// With numShards>1, posts are distributed across shards based on the post id hash.
func TimelineKey(prefix, postID string, numShards int) string {
	numShards = Clamp(numShards)
	if numShards == 1 {
		return Key(prefix, 0)
	}
	h := fnv.New32a()
	h.Write([]byte(postID))
	return Key(prefix, int(h.Sum32()%uint32(numShards)))
}

// Key formats the partition for shard n.
func Key(prefix string, n int) string {
	return fmt.Sprintf("%s#%02x", prefix, n)
}

// All returns every timeline partition for numShards, in shard order.
// A reader fans out over these to see the whole timeline.
func All(prefix string, numShards int) []string {
	numShards = Clamp(numShards)
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = Key(prefix, i)
	}
	return keys
}
