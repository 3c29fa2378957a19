package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"learnhire_backend/internal/model"
	"learnhire_backend/internal/service"
	"learnhire_backend/internal/util"
)

// ValidSignature Gateway 接受的签名
const ValidSignature = "valid-signature"

// Gateway 支付网关替身：签名固定，payload 为 PaymentEvent 的 JSON
type Gateway struct {
	mu       sync.Mutex
	Requests []service.CheckoutRequest
	Err      error
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.Requests = append(g.Requests, req)
	return &service.CheckoutSession{ID: "cs_" + req.PurchaseID, URL: "https://pay.example.com/" + req.PurchaseID}, nil
}

func (g *Gateway) ParseEvent(payload []byte, signature string) (*service.PaymentEvent, error) {
	if signature != ValidSignature {
		return nil, errors.New("signature mismatch")
	}
	var ev struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		PurchaseID string `json:"purchaseId"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	return &service.PaymentEvent{ID: ev.ID, Type: service.PaymentEventType(ev.Type), PurchaseID: ev.PurchaseID}, nil
}

// PaymentPayload 构造 Gateway 可解析的回调体
func PaymentPayload(id string, typ service.PaymentEventType, purchaseID string) []byte {
	b, _ := json.Marshal(map[string]string{"id": id, "type": string(typ), "purchaseId": purchaseID})
	return b
}

// Identity 令牌到声明的固定映射
type Identity struct {
	mu     sync.Mutex
	Tokens map[string]*util.Claims
	Remote map[model.UserID]*model.User
	Roles  map[model.UserID]model.UserRole
	Err    error
}

func NewIdentity() *Identity {
	return &Identity{
		Tokens: map[string]*util.Claims{},
		Remote: map[model.UserID]*model.User{},
		Roles:  map[model.UserID]model.UserRole{},
	}
}

// AddToken 注册令牌，role 为空时按学员处理
func (p *Identity) AddToken(token string, userID model.UserID, role model.UserRole) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Tokens[token] = &util.Claims{UserID: userID, Role: role}
}

func (p *Identity) VerifyToken(ctx context.Context, token string) (*util.Claims, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	claims, ok := p.Tokens[token]
	if !ok {
		return nil, util.ErrUnauthorized
	}
	c := *claims
	return &c, nil
}

func (p *Identity) SetRole(ctx context.Context, userID model.UserID, role model.UserRole) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Roles[userID] = role
	return nil
}

func (p *Identity) FetchUser(ctx context.Context, userID model.UserID) (*model.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	u, ok := p.Remote[userID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// Completer 记录每次请求的消息并返回固定回复
type Completer struct {
	mu    sync.Mutex
	Reply string
	Err   error
	Calls [][]service.ChatMessage
}

func (c *Completer) Complete(ctx context.Context, messages []service.ChatMessage) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, append([]service.ChatMessage(nil), messages...))
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

func (c *Completer) LastCall() []service.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Calls) == 0 {
		return nil
	}
	return c.Calls[len(c.Calls)-1]
}

// StorageProvider 文件保存在内存中
type StorageProvider struct {
	mu    sync.Mutex
	Files map[string][]byte
}

func NewStorageProvider() *StorageProvider {
	return &StorageProvider{Files: map[string][]byte{}}
}

func (p *StorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Files[filename] = data
	return p.GetURL(filename), nil
}

func (p *StorageProvider) Delete(ctx context.Context, filename string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.Files, filename)
	return nil
}

func (p *StorageProvider) GetURL(filename string) string {
	return "/uploads/" + filename
}

func (p *StorageProvider) Has(filename string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.Files[filename]
	return ok
}

func (p *StorageProvider) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Files)
}

type SentMail struct {
	To      string
	Subject string
	Text    string
}

type Mailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

func (m *Mailer) Send(ctx context.Context, to, toName, subject, text, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Text: text})
	return nil
}

func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
