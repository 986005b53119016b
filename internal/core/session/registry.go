package session

import (
	"sync"
	"time"
)

// Registry 行程內的 session 表；閒置超過 ttl 的 session 會在 Sweep 時移除
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewRegistry 建立 session 表；ttl <= 0 表示永不過期
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate 取得既有 session，不存在時以該 id 建立
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if s, ok := r.sessions[id]; ok {
			s.touch()
			return s
		}
	}
	s := New(id)
	r.sessions[s.ID] = s
	return s
}

// Get 取得 session
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete 移除 session
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len 目前的 session 數量
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep 移除閒置過久的 session，回傳移除數量
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastSeen()) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
