package redis

const (
	// KeyPrefixDraft is the prefix for draft keys
	KeyPrefixDraft = "notestack:draft:"
	// KeyAllDrafts is the key for the set of all draft IDs
	KeyAllDrafts = "notestack:drafts:all"

	// KeyPrefixCollection is the prefix for collection keys
	KeyPrefixCollection = "notestack:stack:"
	// KeyAllCollections is the key for the set of all collection IDs
	KeyAllCollections = "notestack:stacks:all"

	// KeyPrefixTombstone is the prefix for pending-delete tombstones
	KeyPrefixTombstone = "notestack:tombstone:"
	// KeyAllTombstones is the key for the set of all tombstoned draft IDs
	KeyAllTombstones = "notestack:tombstones:all"

	// KeyEndpoints holds the endpoint list and active endpoint as one value
	KeyEndpoints = "notestack:endpoints"
)

// DraftKey returns the Redis key for a draft by ID
func DraftKey(id string) string {
	return KeyPrefixDraft + id
}

// CollectionKey returns the Redis key for a collection by ID
func CollectionKey(id string) string {
	return KeyPrefixCollection + id
}

// TombstoneKey returns the Redis key for a tombstone by draft ID
func TombstoneKey(draftID string) string {
	return KeyPrefixTombstone + draftID
}
