package mq

// 各类批任务的 Payload 结构
// 入队和消费两侧共用，字段变更要保持向后兼容（队列里可能还有旧任务）

// ScanBatchPayload 扫描批任务参数
// PreScanCounts 是派发时快照的各目标 scan_count，worker 以它为比较基准做
// 比较后递增：任务重放携带同一份快照，计数已前进时基准过期，不会二次计数
type ScanBatchPayload struct {
	AccountUuid   string         `json:"accountUuid"`
	TargetUuids   []string       `json:"targetUuids"`
	Mode          string         `json:"mode"`       // auto / manual
	BatchIndex    int            `json:"batchIndex"` // 批次序号，从 0 开始
	BatchCount    int            `json:"batchCount"` // 本轮派发的批次总数
	PreScanCounts map[string]int `json:"preScanCounts,omitempty"`
}

// ImportTargetsPayload 导入批任务参数
type ImportTargetsPayload struct {
	AccountUuid  string   `json:"accountUuid"`
	UserUuid     string   `json:"userUuid"` // 发起导入的运营用户
	Phones       []string `json:"phones"`
	BatchIndex   int      `json:"batchIndex"`
	TotalBatches int      `json:"totalBatches"`
}

// SendRequestsPayload 好友申请批任务参数
// CancelUuids 先于 SendUuids 处理：待处理申请超过高水位时，
// 必须先撤回最旧的申请腾出位置，再发新申请
type SendRequestsPayload struct {
	AccountUuid string   `json:"accountUuid"`
	CancelUuids []string `json:"cancelUuids"`
	SendUuids   []string `json:"sendUuids"`
	Greeting    string   `json:"greeting"`
	Mode        string   `json:"mode"`
}

// SendMessagesPayload 消息批任务参数
type SendMessagesPayload struct {
	AccountUuid string   `json:"accountUuid"`
	TargetUuids []string `json:"targetUuids"`
	Template    string   `json:"template"`
	Mode        string   `json:"mode"`
}

// SyncFriendsPayload 好友同步任务参数
type SyncFriendsPayload struct {
	AccountUuid string `json:"accountUuid"`
	UserUuid    string `json:"userUuid"` // 巡检派发时为账号归属人，手动派发时为触发者
}
