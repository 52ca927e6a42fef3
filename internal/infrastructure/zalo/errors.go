package zalo

import "strings"

// 网关错误没有结构化错误码，只能按错误文案分类
// 文案子串来自网关的实际返回，大小写不敏感
const (
	msgBlockedSubstr      = "cannot receive message from you"
	strangerBlockedSubstr = "blocks messages from strangers"
)

// IsMessageBlockedError 对方设置了"不接收你的消息"
// 目标会被打上粘性标记，后续发送成功时清除
func IsMessageBlockedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), msgBlockedSubstr)
}

// IsStrangerBlockedError 对方屏蔽陌生人消息
// 该标记会让消息巡检直接跳过目标，直到成为好友
func IsStrangerBlockedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), strangerBlockedSubstr)
}
