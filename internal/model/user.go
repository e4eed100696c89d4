package model

import "time"

// User 目录中的用户（来自聊天平台的稳定 id 与可变的用户名）
type User struct {
	Id        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
