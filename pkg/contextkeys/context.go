package contextkeys

// Custom type to avoid collisions with other packages' context keys.
type contextKey string

// DBContextKey is the key under which middleware stores *gorm.DB in the
// request context.
const DBContextKey = contextKey("db")
