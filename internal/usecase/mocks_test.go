package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"pet-hero-backend/internal/domain"
	"pet-hero-backend/internal/domain/model"
	"pet-hero-backend/internal/domain/ports/adapter"
	"pet-hero-backend/internal/domain/ports/repository"
)

// ---- generative model fakes ----

// scriptedModel replays a queue of canned outcomes, one per call.
type scriptedModel struct {
	mu    sync.Mutex
	queue []scriptedReply
	calls []adapter.Request
}

type scriptedReply struct {
	resp *adapter.ModelResponse
	err  error
}

func (s *scriptedModel) GenerateContent(ctx context.Context, model string, req adapter.Request) (*adapter.ModelResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if len(s.queue) == 0 {
		return nil, fmt.Errorf("scriptedModel: unexpected call for %s", model)
	}
	r := s.queue[0]
	s.queue = s.queue[1:]
	return r.resp, r.err
}

func textReply(text string) scriptedReply {
	return scriptedReply{resp: &adapter.ModelResponse{TextParts: []string{text}}}
}

func imageReply(data []byte) scriptedReply {
	return scriptedReply{resp: &adapter.ModelResponse{
		InlineImages: []adapter.Blob{{MIMEType: "image/png", Data: data}},
	}}
}

func errReply(err error) scriptedReply { return scriptedReply{err: err} }

// ---- repository fakes ----

type memJobRepo struct {
	mu    sync.Mutex
	store map[string]*model.PhotoJob

	markDoneErr  error
	markErrorErr error
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{store: make(map[string]*model.PhotoJob)}
}

func (m *memJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.PhotoJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.store[job.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PhotoJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FetchAndMarkPicked(ctx context.Context) (*model.PhotoJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.PhotoJob
	for _, j := range m.store {
		if j.Status != model.PhotoJobStatusProcessing || j.PickedAt != nil {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	oldest.PickedAt = &now
	cp := *oldest
	return &cp, nil
}

func (m *memJobRepo) MarkDone(ctx context.Context, tx repository.Tx, id, resultURL, theme, analysis, creditError string, processedAt time.Time) error {
	if m.markDoneErr != nil {
		return m.markDoneErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = model.PhotoJobStatusDone
	j.ResultURL = resultURL
	j.Theme = theme
	j.Analysis = analysis
	j.CreditError = creditError
	j.ProcessedAt = &processedAt
	return nil
}

func (m *memJobRepo) MarkError(ctx context.Context, id, errMsg string, processedAt time.Time) error {
	if m.markErrorErr != nil {
		return m.markErrorErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = model.PhotoJobStatusError
	j.Error = errMsg
	j.ProcessedAt = &processedAt
	return nil
}

func (m *memJobRepo) ListCreditErrors(ctx context.Context, tx repository.Tx, limit int) ([]*model.PhotoJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PhotoJob
	for _, j := range m.store {
		if j.Status == model.PhotoJobStatusDone && j.CreditError != "" {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memJobRepo) ReclaimStale(ctx context.Context, pickedBefore time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.store {
		if j.Status == model.PhotoJobStatusProcessing && j.PickedAt != nil && j.PickedAt.Before(pickedBefore) {
			j.PickedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memJobRepo) ClearCreditError(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.CreditError = ""
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.UserAccount
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.UserAccount)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.UserAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.UserAccount, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *memUserRepo) DeductCredit(ctx context.Context, tx repository.Tx, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	u.Credits--
	u.UpdatedAt = time.Now()
	return u.Credits, nil
}

func (m *memUserRepo) credits(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[id].Credits
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*model.CreditUsageLogEntry
}

func (m *memAuditRepo) Append(ctx context.Context, tx repository.Tx, e *model.CreditUsageLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.CreditUsageLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.CreditUsageLogEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeTxManager runs the callback with a nil handle. Callbacks execute under
// a mutex, mirroring how row locks serialize conflicting writes. beginErr
// simulates transaction-machinery failure.
type fakeTxManager struct {
	mu       sync.Mutex
	beginErr error
}

func (f *fakeTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx, nil)
}

// ---- adapter fakes ----

type fakeStore struct {
	mu         sync.Mutex
	publishErr error
	keys       []string
}

func (f *fakeStore) Publish(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "https://cdn.test/" + key, nil
}

type fakePush struct {
	mu      sync.Mutex
	sendErr error
	sent    []adapter.PushNotification
	tokens  []string
}

func (f *fakePush) Send(ctx context.Context, token string, n adapter.PushNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	f.sent = append(f.sent, n)
	return f.sendErr
}

type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeGuard() *fakeGuard { return &fakeGuard{seen: make(map[string]bool)} }

func (f *fakeGuard) MarkProcessed(ctx context.Context, jobID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[jobID] {
		return false, nil
	}
	f.seen[jobID] = true
	return true, nil
}
