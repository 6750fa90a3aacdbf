package leaderboard

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultViewTTL = 3 * time.Minute

// ViewStore keeps one live interactive board per (room, user) in redis so a
// later page command can flip through the same snapshot. Entries expire on
// their own; an expired view simply means the next command rebuilds one.
type ViewStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewViewStore(rdb *redis.Client, ttl time.Duration) *ViewStore {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &ViewStore{rdb: rdb, ttl: ttl}
}

type storedView struct {
	ID   string `json:"id"`
	Page int    `json:"page"`
	View *View  `json:"view"`
}

func (s *ViewStore) key(roomID, userID string) string {
	return "wordle:lb:view:" + strings.TrimSpace(roomID) + ":" + strings.TrimSpace(userID)
}

// Save stores a fresh snapshot and returns its session id.
func (s *ViewStore) Save(ctx context.Context, roomID, userID string, v *View, page int) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(storedView{ID: id, Page: page, View: v})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, s.key(roomID, userID), raw, s.ttl).Err(); err != nil {
		return "", err
	}
	return id, nil
}

// Load returns the live snapshot and its current page, or nil when none
// exists or it has expired.
func (s *ViewStore) Load(ctx context.Context, roomID, userID string) (*View, int, error) {
	raw, err := s.rdb.Get(ctx, s.key(roomID, userID)).Bytes()
	if err == redis.Nil {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var stored storedView
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, 0, err
	}
	return stored.View, stored.Page, nil
}

// SetPage records the page the user is looking at and refreshes the TTL.
func (s *ViewStore) SetPage(ctx context.Context, roomID, userID string, page int) error {
	raw, err := s.rdb.Get(ctx, s.key(roomID, userID)).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	var stored storedView
	if err := json.Unmarshal(raw, &stored); err != nil {
		return err
	}
	stored.Page = page
	raw, err = json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(roomID, userID), raw, s.ttl).Err()
}

func (s *ViewStore) Delete(ctx context.Context, roomID, userID string) error {
	return s.rdb.Del(ctx, s.key(roomID, userID)).Err()
}
