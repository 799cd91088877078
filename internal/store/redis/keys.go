package redis

const (
	// KeyPrefix namespaces every key written by the application
	KeyPrefix = "aniarc:"
	// KeyPrefixUserState is the prefix for user state keys
	KeyPrefixUserState = KeyPrefix + "userstate:"
)

// UserStateKey returns the Redis key for a user state index name
// Example: "user_watchlist" -> "aniarc:userstate:user_watchlist"
func UserStateKey(name string) string {
	return KeyPrefixUserState + name
}
