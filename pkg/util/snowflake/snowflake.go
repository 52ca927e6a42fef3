// Package snowflake 封装雪花 ID 生成
// 消息日志量大、需要按时间有序，用雪花 ID 做主键
package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"zalo_outreach_server/internal/config"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init 初始化雪花算法节点，应在程序启动时调用一次
// 节点 ID 取自配置，多实例部署时每个实例必须不同
func Init() {
	nodeOnce.Do(func() {
		machineID := config.GetConfig().SnowflakeConfig.MachineID
		if machineID < 0 || machineID > 1023 {
			zap.L().Warn("雪花节点 ID 超出 0-1023，使用默认值 1",
				zap.Int64("machineID", machineID))
			machineID = 1
		}
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			zap.L().Fatal("雪花节点初始化失败", zap.Error(err))
		}
	})
}

// GenerateID 生成雪花 ID (int64)
func GenerateID() int64 {
	if node == nil {
		Init()
	}
	return node.Generate().Int64()
}
