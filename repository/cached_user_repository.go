package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anjiri1684/classroom/models"
	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// cachedUser is what goes to redis. The password hash never leaves the
// database.
type cachedUser struct {
	ID        uint        `json:"id"`
	FullName  string      `json:"fullName"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toCachedUser(u *models.User) cachedUser {
	return cachedUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c cachedUser) user() *models.User {
	return &models.User{
		ID:        c.ID,
		FullName:  c.FullName,
		Email:     c.Email,
		Role:      c.Role,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// cachedUserRepository serves GetByID from redis and falls through to the
// wrapped store on a miss. Users read from the cache carry no password hash.
// A miss only fills an empty key while Save overwrites it, so a slow reader
// cannot put back a row older than the last write. Redis failures degrade to
// uncached reads.
type cachedUserRepository struct {
	UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCachedUserRepository(next UserRepository, rdb *redis.Client, ttl time.Duration) UserRepository {
	return &cachedUserRepository{
		UserRepository: next,
		rdb:            rdb,
		ttl:            ttl,
		prefix:         "classroom:user:",
	}
}

func (r *cachedUserRepository) key(id uint) string {
	return fmt.Sprintf("%s%d", r.prefix, id)
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if err == nil {
		var cu cachedUser
		if jerr := json.Unmarshal(raw, &cu); jerr == nil {
			return cu.user(), nil
		}
		log.Warnw("dropping undecodable cached user", "user_id", id)
	} else if err != redis.Nil {
		log.Warnw("user cache read failed", "user_id", id, "error", err)
	}

	u, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.remember(ctx, u)
	return u, nil
}

// remember fills the cache after a miss unless a writer got there first.
func (r *cachedUserRepository) remember(ctx context.Context, u *models.User) {
	raw, err := json.Marshal(toCachedUser(u))
	if err != nil {
		return
	}
	if err := r.rdb.SetNX(ctx, r.key(u.ID), raw, r.ttl).Err(); err != nil {
		log.Warnw("user cache write failed", "user_id", u.ID, "error", err)
	}
}

// Save writes u to the store and then to the cache. A user that came from
// the cache has no password hash, so the stored one is kept.
func (r *cachedUserRepository) Save(ctx context.Context, u *models.User) error {
	if u.PasswordHash == "" {
		stored, err := r.UserRepository.GetByID(ctx, u.ID)
		if err != nil {
			return err
		}
		u.PasswordHash = stored.PasswordHash
	}
	if err := r.UserRepository.Save(ctx, u); err != nil {
		return err
	}

	raw, err := json.Marshal(toCachedUser(u))
	if err == nil {
		err = r.rdb.Set(ctx, r.key(u.ID), raw, r.ttl).Err()
	}
	if err != nil {
		log.Warnw("user cache refresh failed", "user_id", u.ID, "error", err)
		r.evict(ctx, u.ID)
	}
	return nil
}

func (r *cachedUserRepository) evict(ctx context.Context, id uint) {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		log.Warnw("user cache evict failed", "user_id", id, "error", err)
	}
}
