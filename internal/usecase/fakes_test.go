package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saveErr  error
	getErr   error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *fakeSessionStore) Save(_ context.Context, session domain.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := session
	return &copied, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *fakeSessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeLockoutStore struct {
	mu      sync.Mutex
	records map[string]domain.LockoutRecord
	getErr  error
}

func newFakeLockoutStore() *fakeLockoutStore {
	return &fakeLockoutStore{records: make(map[string]domain.LockoutRecord)}
}

func (s *fakeLockoutStore) Get(_ context.Context, email string) (*domain.LockoutRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := record
	return &copied, nil
}

func (s *fakeLockoutStore) Save(_ context.Context, record domain.LockoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Email] = record
	return nil
}

func (s *fakeLockoutStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

type fakeActivityLog struct {
	mu      sync.Mutex
	entries []domain.ActivityLogEntry
}

func (l *fakeActivityLog) Append(_ context.Context, entry domain.ActivityLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]domain.ActivityLogEntry{entry}, l.entries...)
	if len(l.entries) > domain.ActivityLogCap {
		l.entries = l.entries[:domain.ActivityLogCap]
	}
	return nil
}

func (l *fakeActivityLog) Recent(_ context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]domain.ActivityLogEntry, limit)
	copy(out, l.entries[:limit])
	return out, nil
}

func (l *fakeActivityLog) actions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	for i, entry := range l.entries {
		out[i] = entry.Action
	}
	return out
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	emailErr error
}

func newFakeAccountRepo(accounts ...domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]domain.Account)}
	for _, account := range accounts {
		repo.accounts[account.ID] = account
	}
	return repo
}

func (r *fakeAccountRepo) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrConflict
		}
	}
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	if r.emailErr != nil {
		return nil, r.emailErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) Update(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return repository.ErrNotFound
	}
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) UpdateLastLogin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	account.LastLogin = &now
	r.accounts[id] = account
	return nil
}

func (r *fakeAccountRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id)
	return nil
}

func (r *fakeAccountRepo) List(_ context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		if filter.Type != "" && account.Type != filter.Type {
			continue
		}
		if filter.IsActive != nil && account.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAccountRepo) Count(ctx context.Context, filter port.AccountFilter) (int, error) {
	accounts, err := r.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}

type publishedEvent struct {
	kind    string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) record(kind string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: kind, payload: payload})
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, event := range p.events {
		out[i] = event.kind
	}
	return out
}

func (p *fakePublisher) countOf(kind string) int {
	count := 0
	for _, k := range p.kinds() {
		if k == kind {
			count++
		}
	}
	return count
}

func (p *fakePublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.record("account.registered", event)
	return nil
}

func (p *fakePublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	p.record("account.locked", event)
	return nil
}

func (p *fakePublisher) PublishSessionCreated(_ context.Context, event domain.SessionCreatedEvent) error {
	p.record("session.created", event)
	return nil
}

func (p *fakePublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.record("session.revoked", event)
	return nil
}

func (p *fakePublisher) PublishSessionExpiryWarning(_ context.Context, event domain.SessionExpiryWarningEvent) error {
	p.record("session.expiry_warning", event)
	return nil
}

func (p *fakePublisher) PublishApplicationSubmitted(_ context.Context, event domain.ApplicationSubmittedEvent) error {
	p.record("application.submitted", event)
	return nil
}

func (p *fakePublisher) PublishMessageSent(_ context.Context, event domain.MessageSentEvent) error {
	p.record("message.sent", event)
	return nil
}

type fakeOpportunityRepo struct {
	mu            sync.Mutex
	opportunities map[string]domain.Opportunity
}

func newFakeOpportunityRepo() *fakeOpportunityRepo {
	return &fakeOpportunityRepo{opportunities: make(map[string]domain.Opportunity)}
}

func (r *fakeOpportunityRepo) Create(_ context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opportunities[opp.ID] = opp
	return nil
}

func (r *fakeOpportunityRepo) GetByID(_ context.Context, id string) (*domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opp, ok := r.opportunities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := opp
	return &copied, nil
}

func (r *fakeOpportunityRepo) Update(_ context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.opportunities[opp.ID]; !ok {
		return repository.ErrNotFound
	}
	r.opportunities[opp.ID] = opp
	return nil
}

func (r *fakeOpportunityRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.opportunities, id)
	return nil
}

func (r *fakeOpportunityRepo) List(_ context.Context, filter port.OpportunityFilter) ([]domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Opportunity, 0, len(r.opportunities))
	for _, opp := range r.opportunities {
		if filter.Status != "" && opp.Status != filter.Status {
			continue
		}
		if filter.ProviderID != "" && opp.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Category != "" && opp.Category != filter.Category {
			continue
		}
		out = append(out, opp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOpportunityRepo) Count(ctx context.Context, filter port.OpportunityFilter) (int, error) {
	opportunities, err := r.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(opportunities), nil
}

type fakeApplicationRepo struct {
	mu           sync.Mutex
	applications map[string]domain.Application
}

func newFakeApplicationRepo() *fakeApplicationRepo {
	return &fakeApplicationRepo{applications: make(map[string]domain.Application)}
}

func (r *fakeApplicationRepo) Create(_ context.Context, app domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.applications {
		if existing.OpportunityID == app.OpportunityID && existing.ApplicantID == app.ApplicantID {
			return repository.ErrConflict
		}
	}
	r.applications[app.ID] = app
	return nil
}

func (r *fakeApplicationRepo) GetByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := app
	return &copied, nil
}

func (r *fakeApplicationRepo) GetByOpportunityAndApplicant(_ context.Context, opportunityID, applicantID string) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.applications {
		if app.OpportunityID == opportunityID && app.ApplicantID == applicantID {
			copied := app
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeApplicationRepo) UpdateStatus(_ context.Context, id string, status domain.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.applications[id]
	if !ok {
		return repository.ErrNotFound
	}
	app.Status = status
	r.applications[id] = app
	return nil
}

func (r *fakeApplicationRepo) ListByApplicant(_ context.Context, applicantID string) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Application, 0)
	for _, app := range r.applications {
		if app.ApplicantID == applicantID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) ListByOpportunity(_ context.Context, opportunityID string) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Application, 0)
	for _, app := range r.applications {
		if app.OpportunityID == opportunityID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := 0
	for id, app := range r.applications {
		if app.CreatedAt.Before(cutoff) {
			delete(r.applications, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]domain.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[string]domain.Conversation)}
}

func (r *fakeConversationRepo) Create(_ context.Context, conv domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations[conv.ID] = conv
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := conv
	return &copied, nil
}

func (r *fakeConversationRepo) ListByParticipant(_ context.Context, accountID string) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Conversation, 0)
	for _, conv := range r.conversations {
		if conv.HasParticipant(accountID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) Touch(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	conv.UpdatedAt = at
	r.conversations[id] = conv
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (r *fakeMessageRepo) Create(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Message, 0)
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, conversationID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, msg := range r.messages {
		if msg.ConversationID == conversationID && msg.SenderID != readerID {
			r.messages[i].Read = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.messages[:0]
	deleted := 0
	for _, msg := range r.messages {
		if msg.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	r.messages = kept
	return deleted, nil
}

var (
	_ port.SessionStore           = (*fakeSessionStore)(nil)
	_ port.LockoutStore           = (*fakeLockoutStore)(nil)
	_ port.ActivityLog            = (*fakeActivityLog)(nil)
	_ port.AccountRepository      = (*fakeAccountRepo)(nil)
	_ port.EventPublisher         = (*fakePublisher)(nil)
	_ port.OpportunityRepository  = (*fakeOpportunityRepo)(nil)
	_ port.ApplicationRepository  = (*fakeApplicationRepo)(nil)
	_ port.ConversationRepository = (*fakeConversationRepo)(nil)
	_ port.MessageRepository      = (*fakeMessageRepo)(nil)
)
