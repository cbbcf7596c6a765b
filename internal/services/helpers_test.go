package services

import (
	"context"
	"sync"
	"time"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

// memTokenStore is an in-memory TokenStore with injectable failures
type memTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]*models.Token
	order   []string
	touches int

	findErr   error
	createErr error
	touchErr  error
	deleteErr error
}

func newMemTokenStore(seed ...*models.Token) *memTokenStore {
	s := &memTokenStore{tokens: make(map[string]*models.Token)}
	for _, t := range seed {
		_ = s.Create(context.Background(), t)
	}
	return s
}

func (s *memTokenStore) Create(ctx context.Context, token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.tokens[token.Token]; ok {
		return apperrors.ErrDuplicateToken
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	stored := *token
	s.tokens[token.Token] = &stored
	s.order = append(s.order, token.Token)
	return nil
}

func (s *memTokenStore) FindByToken(ctx context.Context, value string) (*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	t, ok := s.tokens[value]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memTokenStore) ListAll(ctx context.Context) ([]*models.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Token, 0, len(s.order))
	for _, v := range s.order {
		if t, ok := s.tokens[v]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTokenStore) Delete(ctx context.Context, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if _, ok := s.tokens[value]; !ok {
		return false, nil
	}
	delete(s.tokens, value)
	return true, nil
}

func (s *memTokenStore) TouchLastUsed(ctx context.Context, value string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches++
	if s.touchErr != nil {
		return s.touchErr
	}
	if t, ok := s.tokens[value]; ok {
		w := when
		t.LastUsed = &w
	}
	return nil
}

func (s *memTokenStore) CountAdmins(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tokens {
		if t.IsAdmin {
			n++
		}
	}
	return n, nil
}

func (s *memTokenStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// memUsageStore records appended usage
type memUsageStore struct {
	mu      sync.Mutex
	records []*models.UsageRecord
	err     error
}

func (s *memUsageStore) Append(ctx context.Context, record *models.UsageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memUsageStore) ListByToken(ctx context.Context, tokenValue string, limit int) ([]*models.UsageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	var out []*models.UsageRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Token != tokenValue {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memUsageStore) CountByToken(ctx context.Context, tokenValue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}

	var n int64
	for _, r := range s.records {
		if r.Token == tokenValue {
			n++
		}
	}
	return n, nil
}

func (s *memUsageStore) all() []*models.UsageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.UsageRecord(nil), s.records...)
}
