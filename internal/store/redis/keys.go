package redis

const (
	// KeyPrefixService is the prefix for service records
	KeyPrefixService = "ussm:service:"
	// KeyServiceOrder is the sorted set keeping catalog insertion order
	KeyServiceOrder = "ussm:services:order"
	// KeyServiceSeq is the counter feeding KeyServiceOrder scores
	KeyServiceSeq = "ussm:services:seq"

	KeyPrefixUser  = "ussm:user:"
	KeyUserOrder   = "ussm:users:order"
	KeyUserSeq     = "ussm:users:seq"
	KeyUsersByName = "ussm:users:byname"

	KeyPrefixFavourites = "ussm:favourites:"
	KeyFavouriteSeq     = "ussm:favourites:seq"

	KeyPrefixLayout = "ussm:layout:"

	// KeyPrefixSharesTo holds one hash per recipient: owner -> board
	KeyPrefixSharesTo = "ussm:shares:to:"
)

// ServiceKey returns the Redis key for a service by name
func ServiceKey(name string) string {
	return KeyPrefixService + name
}

// UserKey returns the Redis key for a user by ID
func UserKey(id string) string {
	return KeyPrefixUser + id
}

// FavouritesKey returns the sorted set of a user's favourite service names
func FavouritesKey(userID string) string {
	return KeyPrefixFavourites + userID
}

// LayoutKey returns the Redis key holding a user's dashboard layout blob
func LayoutKey(userID string) string {
	return KeyPrefixLayout + userID
}

// SharesToKey returns the hash of boards shared with recipient
func SharesToKey(recipient string) string {
	return KeyPrefixSharesTo + recipient
}
