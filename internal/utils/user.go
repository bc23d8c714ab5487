package utils

import (
	"hash/fnv"
)

var avatars = []string{"🌱", "🌿", "🍃", "🌾", "🎋", "🎍", "🌲", "🌳", "🐼", "🦊", "🐨", "🐸"}

func ShortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + "..."
}

// AvatarFor picks a stable emoji for an anonymous identifier.
func AvatarFor(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return avatars[h.Sum32()%uint32(len(avatars))]
}
