// Package respond 定义 HTTP 接口的响应结构
package respond

import (
	"zalo_outreach_server/pkg/caplist"
)

// LoginRespond 登录响应
type LoginRespond struct {
	Uuid         string `json:"uuid"`
	Nickname     string `json:"nickname"`
	Telephone    string `json:"telephone"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RegisterRespond 注册响应
type RegisterRespond struct {
	Uuid      string `json:"uuid"`
	Nickname  string `json:"nickname"`
	Telephone string `json:"telephone"`
}

// GetUserInfoRespond 用户信息响应
type GetUserInfoRespond struct {
	Uuid      string `json:"uuid"`
	Nickname  string `json:"nickname"`
	Telephone string `json:"telephone"`
	IsAdmin   int8   `json:"isAdmin"`
	Status    int8   `json:"status"`
}

// AccountInfoRespond 账号信息响应（不含凭证）
type AccountInfoRespond struct {
	Uuid        string `json:"uuid"`
	OwnerUuid   string `json:"ownerUuid"`
	Telephone   string `json:"telephone"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Status      int8   `json:"status"`
}

// SettingRespond 自动化设置响应
type SettingRespond struct {
	AccountUuid              string `json:"accountUuid"`
	ScanEnabled              bool   `json:"scanEnabled"`
	AutoFriendRequestEnabled bool   `json:"autoFriendRequestEnabled"`
	FriendRequestStartTime   string `json:"friendRequestStartTime"`
	AutoMessageEnabled       bool   `json:"autoMessageEnabled"`
	MessageTemplate          string `json:"messageTemplate"`
	PendingFriendRequests    int    `json:"pendingFriendRequests"`
	TotalFriendRequestsSent  int    `json:"totalFriendRequestsSent"`
}

// QuotaStatusRespond 当日配额状态响应
type QuotaStatusRespond struct {
	AccountUuid  string `json:"accountUuid"`
	TrackingDate string `json:"trackingDate"`

	ScanCountToday   int  `json:"scanCountToday"`
	AutoScansToday   int  `json:"autoScansToday"`
	ManualScansToday int  `json:"manualScansToday"`
	TotalScans       int  `json:"totalScans"`
	DailyScanLimit   int  `json:"dailyScanLimit"`
	ScanRemaining    int  `json:"scanRemaining"`
	ScanEnabled      bool `json:"scanEnabled"`

	WithInfoDetails    []caplist.Entry `json:"withInfoDetails"`
	WithoutInfoDetails []caplist.Entry `json:"withoutInfoDetails"`

	AutoRequestsSentToday       int             `json:"autoRequestsSentToday"`
	ManualRequestsSentToday     int             `json:"manualRequestsSentToday"`
	AutoRequestsCanceledToday   int             `json:"autoRequestsCanceledToday"`
	ManualRequestsCanceledToday int             `json:"manualRequestsCanceledToday"`
	FriendRequestDailyLimit     int             `json:"friendRequestDailyLimit"`
	FriendRequestRemaining      int             `json:"friendRequestRemaining"`
	RequestDetails              []caplist.Entry `json:"requestDetails"`

	ManualMessagesToday   int `json:"manualMessagesToday"`
	AutoMessagesToday     int `json:"autoMessagesToday"`
	AutoMessageDailyLimit int `json:"autoMessageDailyLimit"`
	MessageRemaining      int `json:"messageRemaining"`
}

// TargetInfoRespond 目标信息响应
type TargetInfoRespond struct {
	Uuid                    string `json:"uuid"`
	AccountUuid             string `json:"accountUuid"`
	Phone                   string `json:"phone"`
	Uid                     string `json:"uid"`
	ZaloName                string `json:"zaloName"`
	DisplayName             string `json:"displayName"`
	Avatar                  string `json:"avatar"`
	ScanCount               int    `json:"scanCount"`
	LastScannedAt           string `json:"lastScannedAt"`
	HasScanInfo             bool   `json:"hasScanInfo"`
	IsFriend                bool   `json:"isFriend"`
	HasSentFriendRequest    bool   `json:"hasSentFriendRequest"`
	MessagesSent            int    `json:"messagesSent"`
	LastMessageSentAt       string `json:"lastMessageSentAt"`
	LastMessageSuccess      bool   `json:"lastMessageSuccess"`
	HasMessageBlockedError  bool   `json:"hasMessageBlockedError"`
	HasStrangerBlockedError bool   `json:"hasStrangerBlockedError"`
	HasNoMsgIdError         bool   `json:"hasNoMsgIdError"`
}

// TargetListRespond 分页目标列表响应
type TargetListRespond struct {
	Total   int64               `json:"total"`
	Targets []TargetInfoRespond `json:"targets"`
}

// ImportRespond 导入派发结果响应
type ImportRespond struct {
	Total    int      `json:"total"`    // 提交的号码总数
	Batches  int      `json:"batches"`  // 派发的批次数
	JobIds   []string `json:"jobIds"`   // 批任务 id
	Accepted int      `json:"accepted"` // 去重后进入队列的号码数
}

// DispatchRespond 批派发结果响应
type DispatchRespond struct {
	Batches int      `json:"batches"`
	JobIds  []string `json:"jobIds"`
}

// ManualScanRespond 手动扫描结果响应
type ManualScanRespond struct {
	Found  bool              `json:"found"`
	Target TargetInfoRespond `json:"target"`
}

// ManualMessageRespond 手动发消息结果响应
type ManualMessageRespond struct {
	Success bool   `json:"success"`
	MsgId   string `json:"msgId"`
	Error   string `json:"error,omitempty"`
}
