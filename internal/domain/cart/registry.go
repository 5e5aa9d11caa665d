// internal/domain/cart/registry.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/identity"
	"gorm.io/gorm"
)

// Session bundles the per-session objects: the identity provider the
// HTTP layer flips on sign-in/sign-out and the engine subscribed to
// it.
type Session struct {
	ID       string
	Identity *identity.SessionProvider
	Engine   *Engine

	lastSeen time.Time
}

// Registry constructs and caches one Session per storefront session
// id. It replaces ambient app-wide cart state: every session root
// gets its own engine with a defined lifecycle, and idle sessions are
// torn down by Sweep.
type Registry struct {
	cfg   *config.Config
	db    *gorm.DB
	redis *redis.Client
	log   *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, log *logrus.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		db:       db,
		redis:    redisClient,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for the id, creating it on first use.
func (r *Registry) Session(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[sessionID]; ok {
		sess.lastSeen = time.Now()
		return sess
	}

	provider := identity.NewSessionProvider()
	engine := NewEngine(
		r.cfg,
		provider,
		NewRedisStore(r.redis, sessionID, r.cfg.Cart.SessionTTL),
		NewGormStore(r.db),
		NewGormCatalog(r.db),
		r.log,
	)
	engine.Refresh(context.Background())

	sess := &Session{
		ID:       sessionID,
		Identity: provider,
		Engine:   engine,
		lastSeen: time.Now(),
	}
	r.sessions[sessionID] = sess
	return sess
}

// Evict tears down one session.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if ok {
		sess.Engine.Close()
	}
}

// Sweep tears down sessions idle for longer than maxIdle. The durable
// anonymous cart in Redis is untouched; a returning session rebuilds
// its engine from it.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Session
	for id, sess := range r.sessions {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range stale {
		sess.Engine.Close()
	}
	if len(stale) > 0 {
		r.log.WithField("count", len(stale)).Debug("swept idle cart sessions")
	}
	return len(stale)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
