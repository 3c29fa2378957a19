package service

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"learnhire_backend/internal/config"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"
	"learnhire_backend/pkg/logger"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"
)

const (
	jwksTTL = 6 * time.Hour
	// 未知 kid 触发的 JWKS 重新拉取间隔下限
	jwksMinRefresh = time.Minute
	roleTTL        = 5 * time.Minute
)

// ClerkIdentity 基于 Clerk 的身份服务：RS256 会话令牌（JWKS）+ 后端 API
//
// 配置 dev_secret 时额外接受 HS256 令牌，仅用于本地开发与测试。
type ClerkIdentity struct {
	client    *resty.Client
	issuer    string
	jwksURL   string
	devSecret []byte
	webhook   *svix.Webhook
	hasAPIKey bool
	now       func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	roleMu sync.Mutex
	roles  map[model.UserID]cachedRole
}

type cachedRole struct {
	role    model.UserRole
	expires time.Time
}

func NewClerkIdentity(cfg config.AuthConfig) *ClerkIdentity {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.APIBaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetTimeout(10 * time.Second)

	id := &ClerkIdentity{
		client:    client,
		issuer:    cfg.Issuer,
		jwksURL:   cfg.JWKSURL,
		hasAPIKey: cfg.APIKey != "",
		now:       time.Now,
		keys:      map[string]*rsa.PublicKey{},
		roles:     map[model.UserID]cachedRole{},
	}
	if cfg.DevSecret != "" {
		id.devSecret = []byte(cfg.DevSecret)
	}
	if cfg.WebhookSecret != "" {
		wh, err := svix.NewWebhook(cfg.WebhookSecret)
		if err != nil {
			logger.Log.Error("invalid identity webhook secret", zap.Error(err))
		} else {
			id.webhook = wh
		}
	}
	return id
}

func (p *ClerkIdentity) VerifyToken(ctx context.Context, token string) (*util.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, util.ErrUnauthorized
	}

	methods := []string{jwt.SigningMethodRS256.Alg()}
	if p.devSecret != nil {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired(), jwt.WithLeeway(30 * time.Second)}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &util.Claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() == jwt.SigningMethodHS256.Alg() {
			return p.devSecret, nil
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return p.key(ctx, kid)
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", util.ErrUnauthorized, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing sub", util.ErrUnauthorized)
	}
	if claims.Role == "" && (claims.Metadata == nil || claims.Metadata.Role == "") && p.hasAPIKey {
		// 会话令牌未携带角色时回查 public_metadata
		if role, err := p.lookupRole(ctx, claims.UserID); err == nil {
			claims.Role = role
		}
	}
	return claims, nil
}

func (p *ClerkIdentity) lookupRole(ctx context.Context, userID model.UserID) (model.UserRole, error) {
	p.roleMu.Lock()
	if c, ok := p.roles[userID]; ok && p.now().Before(c.expires) {
		p.roleMu.Unlock()
		return c.role, nil
	}
	p.roleMu.Unlock()

	u, err := p.fetch(ctx, userID)
	if err != nil || u == nil {
		return "", err
	}
	role := u.PublicMetadata.Role
	if role == "" {
		role = model.Student
	}

	p.roleMu.Lock()
	p.roles[userID] = cachedRole{role: role, expires: p.now().Add(roleTTL)}
	p.roleMu.Unlock()
	return role, nil
}

// SetRole 写入 public_metadata.role
func (p *ClerkIdentity) SetRole(ctx context.Context, userID model.UserID, role model.UserRole) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"public_metadata": map[string]any{"role": role}}).
		Patch("/users/" + string(userID) + "/metadata")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("update metadata: status %d: %s", resp.StatusCode(), resp.String())
	}
	p.roleMu.Lock()
	delete(p.roles, userID)
	p.roleMu.Unlock()
	return nil
}

// clerkUser 身份服务返回的用户结构（API 与 webhook 共用）
type clerkUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PublicMetadata struct {
		Role model.UserRole `json:"role"`
	} `json:"public_metadata"`
}

func (u clerkUser) toModel() *model.User {
	user := &model.User{
		ID:       model.UserID(u.ID),
		Name:     strings.TrimSpace(u.FirstName + " " + u.LastName),
		ImageURL: u.ImageURL,
	}
	if len(u.EmailAddresses) > 0 {
		user.Email = u.EmailAddresses[0].EmailAddress
	}
	return user
}

// FetchUser 用户不存在时返回 nil, nil
func (p *ClerkIdentity) FetchUser(ctx context.Context, userID model.UserID) (*model.User, error) {
	u, err := p.fetch(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	return u.toModel(), nil
}

func (p *ClerkIdentity) fetch(ctx context.Context, userID model.UserID) (*clerkUser, error) {
	var out clerkUser
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/users/" + string(userID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch user: status %d: %s", resp.StatusCode(), resp.String())
	}
	return &out, nil
}

// IdentityEvent 身份回调事件
type IdentityEvent struct {
	Type string
	User *model.User
}

// ParseWebhook 校验 svix 签名头并解析 user.* 事件
func (p *ClerkIdentity) ParseWebhook(header http.Header, payload []byte) (*IdentityEvent, error) {
	if err := p.verifyWebhook(header, payload); err != nil {
		return nil, err
	}
	var body struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, util.NewValidationError("malformed identity event")
	}
	var u clerkUser
	if err := json.Unmarshal(body.Data, &u); err != nil || u.ID == "" {
		return nil, util.NewValidationError("identity event has no user id")
	}
	return &IdentityEvent{Type: body.Type, User: u.toModel()}, nil
}

// verifyWebhook svix 签名校验，含 5 分钟时间窗
func (p *ClerkIdentity) verifyWebhook(header http.Header, payload []byte) error {
	if p.webhook == nil {
		return util.NewValidationError("identity webhook secret not configured")
	}
	if err := p.webhook.Verify(payload, header); err != nil {
		return util.NewValidationError("invalid webhook signature: " + err.Error())
	}
	return nil
}

// ----- JWKS -----

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (p *ClerkIdentity) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	p.mu.RLock()
	k, ok := p.keys[kid]
	fetched := p.fetchedAt
	p.mu.RUnlock()
	age := p.now().Sub(fetched)
	if ok && age < jwksTTL {
		return k, nil
	}
	// 刚拉取过的密钥集中没有该 kid 时不再回源
	if !ok && !fetched.IsZero() && age < jwksMinRefresh {
		return nil, fmt.Errorf("unknown kid %q", kid)
	}

	if err := p.refreshKeys(ctx); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if k, ok := p.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown kid %q", kid)
}

func (p *ClerkIdentity) refreshKeys(ctx context.Context) error {
	if p.jwksURL == "" {
		return errors.New("jwks url not configured")
	}
	var set struct {
		Keys []jwk `json:"keys"`
	}
	resp, err := p.client.R().SetContext(ctx).SetResult(&set).Get(p.jwksURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("jwks fetch: status %d", resp.StatusCode())
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	p.mu.Lock()
	p.keys = keys
	p.fetchedAt = p.now()
	p.mu.Unlock()
	return nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eb {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
