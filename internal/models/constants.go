package models

// Роли из app_metadata Supabase токена.
const (
	RoleAuthenticated = "authenticated"
	RoleAdmin         = "admin"
)

// События, отправляемые клиенту через WebSocket.
const (
	EventWithdrawalUpdated = "withdrawal.updated"
)
