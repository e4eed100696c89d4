package reply

// 回复码：业务上可预期的结果，不作为 error 返回。
// 每个操作族一个闭合集合，由传输层映射为面向用户的文案。

// JoinCode 加入角色的结果码
type JoinCode string

const (
	JoinAdded             JoinCode = "ADDED"
	JoinAlreadyRegistered JoinCode = "ALREADY_REGISTERED"
)

// LeaveCode 退出角色的结果码
type LeaveCode string

const (
	LeaveDeleted             LeaveCode = "DELETED"
	LeaveUserNotInCollection LeaveCode = "USER_NOT_IN_COLLECTION"
	LeaveRoleDoesNotExist    LeaveCode = "ROLE_DOES_NOT_EXIST"
)

// GetCode 查询角色成员的结果码（仅在无法返回成员列表时出现）
type GetCode string

const (
	GetRoleDoesNotExist GetCode = "ROLE_DOES_NOT_EXIST"
	GetCollectionEmpty  GetCode = "COLLECTION_EMPTY"
)

// DeleteCode 删除角色的结果码
type DeleteCode string

const (
	DeleteRoleDeleted      DeleteCode = "ROLE_DELETED"
	DeleteRoleDoesNotExist DeleteCode = "ROLE_DOES_NOT_EXIST"
)

// Code 所有回复码的约束
type Code interface {
	~string
}

// Valid 判断是否属于 Join 集合
func (c JoinCode) Valid() bool {
	return c == JoinAdded || c == JoinAlreadyRegistered
}

// Valid 判断是否属于 Leave 集合
func (c LeaveCode) Valid() bool {
	switch c {
	case LeaveDeleted, LeaveUserNotInCollection, LeaveRoleDoesNotExist:
		return true
	}
	return false
}

// Valid 判断是否属于 Get 集合
func (c GetCode) Valid() bool {
	return c == GetRoleDoesNotExist || c == GetCollectionEmpty
}

// Valid 判断是否属于 Delete 集合
func (c DeleteCode) Valid() bool {
	return c == DeleteRoleDeleted || c == DeleteRoleDoesNotExist
}
