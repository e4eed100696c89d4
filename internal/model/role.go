package model

import "slices"

// Role 某个聊天内的角色
// 第一次成功加入即创建角色；成员清空后角色仍然存在，直到被显式删除
type Role struct {
	ChatId    int64   `json:"chatId"`
	Name      string  `json:"role"`
	MemberIds []int64 `json:"ids"`
}

// HasMember 判断用户是否为角色成员
func (r *Role) HasMember(userId int64) bool {
	return slices.Contains(r.MemberIds, userId)
}

// Mention 可渲染的成员提及
type Mention struct {
	UserId   int64  `json:"userId"`
	Username string `json:"username"`
}

// MembershipFilter 角色列表的成员过滤条件
// Member 为 true 返回用户所在的角色，false 返回用户不在的角色
type MembershipFilter struct {
	UserId int64
	Member bool
}
