// Package zalo 封装对 Zalo 网关进程的调用
// 引擎不直接实现 Zalo 协议，所有触达动作都通过独立部署的网关 HTTP 接口完成
package zalo

import (
	"context"
)

// ProfileInfo 扫描返回的公开资料
type ProfileInfo struct {
	Uid         string `json:"uid"`         // Zalo 用户 id
	ZaloName    string `json:"zaloName"`    // 账号名
	DisplayName string `json:"displayName"` // 展示名
	Avatar      string `json:"avatar"`      // 头像 URL
	Raw         string `json:"-"`           // 网关返回的原始 JSON，原样落库
}

// SendResult 消息发送结果
// MsgId 是成功判定的唯一依据：网关声称成功但 MsgId 为空按失败处理
type SendResult struct {
	MsgId string `json:"msgId"`
}

// FriendInfo 好友列表条目
type FriendInfo struct {
	Uid         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

// Client Zalo 网关客户端接口
// 所有方法都是同步且偏慢的（网关背后是真实的移动端协议），
// 调用方必须传入可取消的 ctx
type Client interface {
	// RegisterSession 把账号凭证注册到网关，建立或恢复登录会话
	// 网关按 accountUuid 维护会话，后续调用只带 accountUuid 路由
	RegisterSession(ctx context.Context, accountUuid, credential string) error
	// Scan 按电话号码查询公开资料
	// 号码无 Zalo 账号时返回 (nil, nil)，属于正常结果而非错误
	Scan(ctx context.Context, accountUuid, phone string) (*ProfileInfo, error)
	// SendFriendRequest 向 uid 发送好友申请
	SendFriendRequest(ctx context.Context, accountUuid, uid, greeting string) error
	// CancelFriendRequest 撤回发给 uid 的好友申请
	CancelFriendRequest(ctx context.Context, accountUuid, uid string) error
	// SendMessage 向 uid 发送文本消息
	SendMessage(ctx context.Context, accountUuid, uid, content string) (*SendResult, error)
	// ListFriends 拉取账号的完整好友列表
	ListFriends(ctx context.Context, accountUuid string) ([]FriendInfo, error)
	// ListPendingRequests 拉取网关侧的未决好友申请 uid 列表
	ListPendingRequests(ctx context.Context, accountUuid string) ([]string, error)
}
