package models

// Permission constants
const (
	PermissionWalletRead  = "wallet:read"
	PermissionWalletWrite = "wallet:write"
	PermissionMatchPlay   = "match:play"

	// Admin permissions
	PermissionMatchManage      = "match:manage"
	PermissionWithdrawalManage = "withdrawal:manage"
	PermissionUserManage       = "user:manage"
)

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	player := []string{PermissionWalletRead, PermissionWalletWrite, PermissionMatchPlay}
	switch role {
	case RoleAdmin:
		return append(player, PermissionMatchManage, PermissionWithdrawalManage, PermissionUserManage)
	case RoleFinance:
		return append(player, PermissionWithdrawalManage)
	case RoleUser:
		return player
	default:
		return []string{}
	}
}
