package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AvaProtocol/ercx-bot/model"
	"github.com/AvaProtocol/ercx-bot/storage"
)

var sessionPrefix = []byte("session:")

func sessionKey(userID int64) []byte {
	return []byte(fmt.Sprintf("%s%d", sessionPrefix, userID))
}

// lockStripes serialises writers of the same user inside this process so the
// badger transaction rarely has to retry on conflict.
const lockStripes = 64

// BadgerStore persists sessions in the badger storage so selections survive
// a restart.
type BadgerStore struct {
	db    storage.Storage
	locks [lockStripes]sync.Mutex
}

func NewBadgerStore(db storage.Storage) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) lock(userID int64) *sync.Mutex {
	idx := userID % lockStripes
	if idx < 0 {
		idx = -idx
	}
	return &b.locks[idx]
}

func decodeSession(userID int64, data []byte) (model.Session, error) {
	if data == nil {
		return model.NewSession(userID), nil
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("session %d is corrupted: %w", userID, err)
	}
	return s, nil
}

func (b *BadgerStore) GetOrCreate(ctx context.Context, userID int64) (model.Session, error) {
	return b.Update(ctx, userID, func(s *model.Session) error { return nil })
}

func (b *BadgerStore) Update(ctx context.Context, userID int64, fn Mutator) (model.Session, error) {
	l := b.lock(userID)
	l.Lock()
	defer l.Unlock()

	var result model.Session

	_, err := b.db.Update(sessionKey(userID), func(current []byte) ([]byte, error) {
		s, err := decodeSession(userID, current)
		if err != nil {
			return nil, err
		}

		if err := fn(&s); err != nil {
			return nil, err
		}
		s.UpdatedAt = time.Now().Unix()

		result = s
		return json.Marshal(s)
	})
	if err != nil {
		return model.Session{}, err
	}

	return result, nil
}

func (b *BadgerStore) Reset(ctx context.Context, userID int64) (model.Session, error) {
	return b.Update(ctx, userID, resetMutator)
}

// Get reads the stored session of userID without creating one.
func (b *BadgerStore) Get(ctx context.Context, userID int64) (model.Session, bool, error) {
	data, err := b.db.GetKey(sessionKey(userID))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, err
	}

	s, err := decodeSession(userID, data)
	return s, err == nil, err
}

func (b *BadgerStore) Count(ctx context.Context) (int64, error) {
	return b.db.CountKeysByPrefix(sessionPrefix)
}

// List returns every stored session, skipping entries that cannot be decoded.
func (b *BadgerStore) List(ctx context.Context) ([]model.Session, error) {
	items, err := b.db.GetByPrefix(sessionPrefix)
	if err != nil {
		return nil, err
	}

	sessions := make([]model.Session, 0, len(items))
	for _, item := range items {
		var s model.Session
		if err := json.Unmarshal(item.Value, &s); err != nil {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
