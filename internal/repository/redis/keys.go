package redis

import "fmt"

const (
	// UserKeyPrefix 用户信息 Key 前缀
	UserKeyPrefix = "rolebot:user:"

	// ChatKeyPrefix 聊天角色 Key 前缀
	ChatKeyPrefix = "rolebot:chat:"

	// LockKeyPrefix 角色锁 Key 前缀
	LockKeyPrefix = "rolebot:lock:"
)

// BuildUserKey 用户信息 Key
// Key: rolebot:user:{userId}
func BuildUserKey(userId int64) string {
	return fmt.Sprintf("%s%d", UserKeyPrefix, userId)
}

// BuildChatRolesKey 聊天角色名顺序列表 Key
// Key: rolebot:chat:{chatId}:roles
func BuildChatRolesKey(chatId int64) string {
	return fmt.Sprintf("%s%d:roles", ChatKeyPrefix, chatId)
}

// BuildRoleKey 角色内容 Key
// Key: rolebot:chat:{chatId}:role:{name}
func BuildRoleKey(chatId int64, name string) string {
	return fmt.Sprintf("%s%d:role:%s", ChatKeyPrefix, chatId, name)
}

// BuildRoleLockKey 角色锁 Key
// Key: rolebot:lock:{chatId}:{name}
func BuildRoleLockKey(chatId int64, name string) string {
	return fmt.Sprintf("%s%d:%s", LockKeyPrefix, chatId, name)
}
