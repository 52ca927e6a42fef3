package zalo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"zalo_outreach_server/internal/config"
	"zalo_outreach_server/pkg/errorx"

	"go.uber.org/zap"
)

// httpClient 网关 HTTP 实现
// 网关按账号维护登录态，请求体里带 accountUuid 即可路由到对应会话
type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient 创建网关客户端
func NewHTTPClient(cfg config.ZaloConfig) Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		baseURL: cfg.GatewayURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// gatewayResponse 网关统一响应结构
// error 为 0 表示成功，否则 message 里是错误文案
type gatewayResponse struct {
	Error   int             `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// post 调用网关接口并解析统一响应
// 返回 data 部分的原始 JSON
func (c *httpClient) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "marshal gateway request %s", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "build gateway request %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "call gateway %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "read gateway response %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errorx.Newf(errorx.CodeProviderError, "gateway %s returned status %d", path, resp.StatusCode)
	}

	var gwResp gatewayResponse
	if err := json.Unmarshal(raw, &gwResp); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "decode gateway response %s", path)
	}
	if gwResp.Error != 0 {
		// 错误文案原样向上抛，粘性标记靠子串分类（见 errors.go）
		return nil, errorx.New(errorx.CodeProviderError, gwResp.Message)
	}
	return gwResp.Data, nil
}

// RegisterSession 把账号凭证注册到网关
func (c *httpClient) RegisterSession(ctx context.Context, accountUuid, credential string) error {
	_, err := c.post(ctx, "/api/session/register", map[string]string{
		"accountUuid": accountUuid,
		"credential":  credential,
	})
	return err
}

// Scan 按电话号码查询公开资料
func (c *httpClient) Scan(ctx context.Context, accountUuid, phone string) (*ProfileInfo, error) {
	data, err := c.post(ctx, "/api/profile/scan", map[string]string{
		"accountUuid": accountUuid,
		"phone":       phone,
	})
	if err != nil {
		return nil, err
	}
	// data 为空表示号码没有 Zalo 账号
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var info ProfileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "decode profile for phone %s", phone)
	}
	if info.Uid == "" {
		return nil, nil
	}
	info.Raw = string(data)
	return &info, nil
}

// SendFriendRequest 发送好友申请
func (c *httpClient) SendFriendRequest(ctx context.Context, accountUuid, uid, greeting string) error {
	_, err := c.post(ctx, "/api/friend/request", map[string]string{
		"accountUuid": accountUuid,
		"uid":         uid,
		"greeting":    greeting,
	})
	return err
}

// CancelFriendRequest 撤回好友申请
func (c *httpClient) CancelFriendRequest(ctx context.Context, accountUuid, uid string) error {
	_, err := c.post(ctx, "/api/friend/cancel", map[string]string{
		"accountUuid": accountUuid,
		"uid":         uid,
	})
	return err
}

// SendMessage 发送文本消息
func (c *httpClient) SendMessage(ctx context.Context, accountUuid, uid, content string) (*SendResult, error) {
	data, err := c.post(ctx, "/api/message/send", map[string]string{
		"accountUuid": accountUuid,
		"uid":         uid,
		"content":     content,
	})
	if err != nil {
		return nil, err
	}
	var result SendResult
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			zap.L().Warn("decode send result failed", zap.String("uid", uid), zap.Error(err))
		}
	}
	return &result, nil
}

// ListFriends 拉取完整好友列表
func (c *httpClient) ListFriends(ctx context.Context, accountUuid string) ([]FriendInfo, error) {
	data, err := c.post(ctx, "/api/friend/list", map[string]string{
		"accountUuid": accountUuid,
	})
	if err != nil {
		return nil, err
	}
	var friends []FriendInfo
	if err := json.Unmarshal(data, &friends); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "decode friend list for %s", accountUuid)
	}
	return friends, nil
}

// ListPendingRequests 拉取未决好友申请列表
func (c *httpClient) ListPendingRequests(ctx context.Context, accountUuid string) ([]string, error) {
	data, err := c.post(ctx, "/api/friend/pending", map[string]string{
		"accountUuid": accountUuid,
	})
	if err != nil {
		return nil, err
	}
	var uids []string
	if err := json.Unmarshal(data, &uids); err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeProviderError, "decode pending requests for %s", accountUuid)
	}
	return uids, nil
}

var _ Client = (*httpClient)(nil)
