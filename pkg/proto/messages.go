package proto

// ============== 命令请求 (Transport -> Logic) ==============

// 命令动作
const (
	ActionJoin    = "join"
	ActionLeave   = "leave"
	ActionPing    = "ping"
	ActionList    = "list"
	ActionDelete  = "delete"
	ActionMyRoles = "myroles"
	ActionRoles   = "roles"
	ActionText    = "text"
)

// 非业务回复码
const (
	CodeOK             = "OK"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
)

// 非业务回复码的默认文案
const (
	TextInvalidRequest = "Invalid request"
	TextInternalError  = "Something went wrong, please try again later"
)

// CommandRequest 传输层解析后的命令
type CommandRequest struct {
	Action string `json:"action"`
	ChatId int64  `json:"chatId"`
	User   User   `json:"user"`
	Role   string `json:"role,omitempty"`
	Text   string `json:"text,omitempty"`
}

// User 发起命令的用户
type User struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ============== 命令响应 (Logic -> Transport) ==============

// CommandResponse 命令结果
// Code 为回复码或 OK；Choices 非空时传输层渲染为按钮
type CommandResponse struct {
	ChatId   int64    `json:"chatId"`
	Action   string   `json:"action"`
	Code     string   `json:"code"`
	Text     string   `json:"text,omitempty"`
	Messages []string `json:"messages,omitempty"`
	Choices  []string `json:"choices,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}
