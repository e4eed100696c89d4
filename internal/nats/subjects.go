package nats

// NATS Subject 常量定义
const (
	// SubjectCommand Transport -> Logic 命令请求
	SubjectCommand = "rolebot.command"

	// SubjectOutbound Logic -> Transport 无回复地址时的主动推送
	SubjectOutbound = "rolebot.outbound"

	// QueueGroupLogic Logic 服务队列组名称
	QueueGroupLogic = "rolebot-logic"
)
