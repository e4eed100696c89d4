package reply

// 默认文案（英文），传输层可以按自己的翻译覆盖

var joinTexts = map[JoinCode]string{
	JoinAdded:             "You have been added to the role",
	JoinAlreadyRegistered: "You are already in this role",
}

var leaveTexts = map[LeaveCode]string{
	LeaveDeleted:             "You have been removed from the role",
	LeaveUserNotInCollection: "You are not in this role",
	LeaveRoleDoesNotExist:    "This role does not exist",
}

var getTexts = map[GetCode]string{
	GetRoleDoesNotExist: "This role does not exist",
	GetCollectionEmpty:  "Nobody is in this role",
}

var deleteTexts = map[DeleteCode]string{
	DeleteRoleDeleted:      "The role has been deleted",
	DeleteRoleDoesNotExist: "This role does not exist",
}

// Text 返回 Join 码的默认文案
func (c JoinCode) Text() string { return joinTexts[c] }

// Text 返回 Leave 码的默认文案
func (c LeaveCode) Text() string { return leaveTexts[c] }

// Text 返回 Get 码的默认文案
func (c GetCode) Text() string { return getTexts[c] }

// Text 返回 Delete 码的默认文案
func (c DeleteCode) Text() string { return deleteTexts[c] }
