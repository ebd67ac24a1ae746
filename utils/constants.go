// File: utils/constants.go
package utils

// Gin context keys set by the auth middleware.
const (
	ActorIDKey   = "actorID"
	ActorRoleKey = "actorRole"
	LoggerKey    = "logger"
)

// Actor roles carried in the bearer token.
const (
	RoleUser     = "user"
	RoleProvider = "provider"
)
