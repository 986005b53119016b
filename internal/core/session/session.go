// Package session holds per-user chat context passed explicitly into each lookup.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// 對話角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message 對話紀錄中的一則訊息
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session 單一使用者的對話上下文：歷史紀錄與可選的 LLM API Key
type Session struct {
	ID string

	mu       sync.RWMutex
	apiKey   string
	history  []Message
	lastSeen time.Time
}

// New 建立新的 session；id 為空時自動產生
func New(id string) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	return &Session{ID: id, lastSeen: time.Now()}
}

// APIKey 取得 session 專屬的 API Key，未設定時為空字串
func (s *Session) APIKey() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetAPIKey 設定 session 專屬的 API Key
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// AddUser 加入使用者訊息
func (s *Session) AddUser(content string) {
	s.add(RoleUser, content)
}

// AddAssistant 加入助理回覆
func (s *Session) AddAssistant(content string) {
	s.add(RoleAssistant, content)
}

func (s *Session) add(role, content string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.history = append(s.history, Message{Role: role, Content: content, CreatedAt: now})
	s.lastSeen = now
}

// History 回傳歷史紀錄副本
func (s *Session) History() []Message {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// LastSeen 最後活動時間
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}
