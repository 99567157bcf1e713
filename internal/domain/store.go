package domain

// KeyValueStore persists small string values by key.
// The session is kept here so it survives restarts.
type KeyValueStore interface {
	// Get returns the value and whether the key exists
	Get(key string) (string, bool)

	Set(key, value string) error
	Delete(key string) error
}

// Notifier shows transient messages to the user
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}
