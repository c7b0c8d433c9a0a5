package application

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer"
)

// memAccounts is an in-memory AccountRepository with a unique email constraint.
type memAccounts struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*entity.Account
	err  error

	// beforeProfileWrite runs at the start of UpdateProfile, outside the lock.
	beforeProfileWrite func()
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]*entity.Account{}}
}

func clone(a *entity.Account) *entity.Account {
	c := *a
	return &c
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	email = entity.NormalizeEmail(email)
	for _, a := range m.byID {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(a), nil
}

func (m *memAccounts) Insert(_ context.Context, a *entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	a.Email = entity.NormalizeEmail(a.Email)
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return repo.ErrEmailTaken
		}
	}
	m.seq++
	a.ID = fmt.Sprintf("acc-%d", m.seq)
	a.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	a.UpdatedAt = a.CreatedAt
	m.byID[a.ID] = clone(a)
	return nil
}

func (m *memAccounts) UpdateProfile(_ context.Context, id string, c repo.ProfileChanges) (*entity.Account, error) {
	if m.beforeProfileWrite != nil {
		m.beforeProfileWrite()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.Name, c.Name)
	set(&a.Phone, c.Phone)
	set(&a.PasswordHash, c.PasswordHash)
	set(&a.ImageURL, c.ImageURL)
	set(&a.ImageContentType, c.ImageContentType)
	a.UpdatedAt = time.Now()
	return clone(a), nil
}

func (m *memAccounts) SetBanned(_ context.Context, id string, banned bool) (*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	a.IsBanned = banned
	a.UpdatedAt = time.Now()
	return clone(a), nil
}

func (m *memAccounts) UpdatePasswordByEmail(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == entity.NormalizeEmail(email) {
			a.PasswordHash = hash
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memAccounts) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memAccounts) List(_ context.Context, f repo.AccountFilter) ([]*entity.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids map[string]bool
	if f.IDs != nil {
		ids = map[string]bool{}
		for _, id := range f.IDs {
			ids[id] = true
		}
	}
	q := strings.ToLower(f.Query)
	out := []*entity.Account{}
	for _, a := range m.byID {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		if ids != nil && !ids[a.ID] {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) && !strings.Contains(a.Email, q) {
			continue
		}
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Offset > len(out) {
		return []*entity.Account{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

type sentMail struct {
	mu   sync.Mutex
	msgs []mailer.EmailMessage
	err  error
}

func (s *sentMail) Send(_ context.Context, msg mailer.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return s.err
}

func (s *sentMail) last() mailer.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.msgs) == 0 {
		return mailer.EmailMessage{}
	}
	return s.msgs[len(s.msgs)-1]
}

type memImages struct {
	uploads map[string][]byte
}

func (m *memImages) Upload(_ context.Context, r io.Reader, filename, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.uploads == nil {
		m.uploads = map[string][]byte{}
	}
	url := "https://images.test/" + filename
	m.uploads[url] = b
	return url, nil
}

type memIndex struct {
	mu      sync.Mutex
	docs    map[string]*entity.Account
	err     error
	removed []string
}

func (m *memIndex) Enabled() bool { return true }

func (m *memIndex) Index(_ context.Context, a *entity.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = map[string]*entity.Account{}
	}
	m.docs[a.ID] = clone(a)
	return nil
}

func (m *memIndex) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	m.removed = append(m.removed, id)
	return nil
}

func (m *memIndex) Search(_ context.Context, role entity.Role, q string, _, _ int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var ids []string
	for id, a := range m.docs {
		if a.Role == role && strings.Contains(strings.ToLower(a.Name), strings.ToLower(q)) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type harness struct {
	deps     *Deps
	accounts *memAccounts
	mail     *sentMail
	images   *memImages
	index    *memIndex
	mr       *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Load()
	cfg.ClientURL = "http://client.test"
	cfg.SessionTTL = time.Hour

	h := &harness{
		accounts: newMemAccounts(),
		mail:     &sentMail{},
		images:   &memImages{},
		index:    &memIndex{},
		mr:       mr,
	}
	h.deps = &Deps{
		Accounts: h.accounts,
		Sessions: redisstore.NewSessionStore(rdb, "session-secret"),
		Ledger:   redisstore.NewTokenLedger(rdb),
		Images:   h.images,
		Index:    h.index,
		Mailer:   h.mail,
		Hasher:   helpers.NewPasswordHasher(bcrypt.MinCost),
		Tokens:   helpers.NewTokenManager("pending-secret", 10*time.Minute),
		Logger:   helpers.NewDiscardLogger(),
		Cfg:      cfg,
	}
	return h
}

// seed stores an account directly, bypassing registration.
func (h *harness) seed(t *testing.T, name, email, password string, role entity.Role) *entity.Account {
	t.Helper()
	hash, err := h.deps.Hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a := &entity.Account{Name: name, Email: email, Phone: "555-0000", PasswordHash: hash, Role: role, IsVerified: true}
	if err := h.accounts.Insert(context.Background(), a); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return a
}
