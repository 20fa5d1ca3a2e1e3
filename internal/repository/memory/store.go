// Package memory provides map-backed implementations of every persistence
// port. They serve the local storage mode, where the service runs without
// PostgreSQL or Redis, and double as fixtures for integration-style tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

// Store aggregates the in-memory repositories behind a single constructor so
// wiring mirrors the PostgreSQL Repositories bundle.
type Store struct {
	Accounts      *AccountRepository
	Opportunities *OpportunityRepository
	Applications  *ApplicationRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Sessions      *SessionStore
	Lockouts      *LockoutStore
	Activity      *ActivityLog
	RateLimits    *RateLimitStore
}

// NewStore builds an empty in-memory store.
func NewStore() *Store {
	return &Store{
		Accounts:      NewAccountRepository(),
		Opportunities: NewOpportunityRepository(),
		Applications:  NewApplicationRepository(),
		Conversations: NewConversationRepository(),
		Messages:      NewMessageRepository(),
		Sessions:      NewSessionStore(),
		Lockouts:      NewLockoutStore(),
		Activity:      NewActivityLog(),
		RateLimits:    NewRateLimitStore(),
	}
}

// AccountRepository is a map-backed port.AccountRepository.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// NewAccountRepository builds an empty account repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]domain.Account)}
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.ID]; ok {
		return repository.ErrConflict
	}
	normalized := domain.NormalizeEmail(account.Email)
	for _, existing := range r.accounts {
		if domain.NormalizeEmail(existing.Email) == normalized {
			return repository.ErrConflict
		}
	}

	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := cloneAccount(account)
	return &copied, nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := domain.NormalizeEmail(email)
	for _, account := range r.accounts {
		if domain.NormalizeEmail(account.Email) == normalized {
			copied := cloneAccount(account)
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) Update(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	account.CreatedAt = stored.CreatedAt
	if account.LastLogin == nil {
		account.LastLogin = stored.LastLogin
	}
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *AccountRepository) UpdateLastLogin(_ context.Context, id string) error {
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

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, id)
	return nil
}

func (r *AccountRepository) List(_ context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Account
	for _, account := range r.accounts {
		if matchesAccountFilter(account, filter) {
			matched = append(matched, cloneAccount(account))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *AccountRepository) Count(_ context.Context, filter port.AccountFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, account := range r.accounts {
		if matchesAccountFilter(account, filter) {
			count++
		}
	}
	return count, nil
}

func matchesAccountFilter(account domain.Account, filter port.AccountFilter) bool {
	if filter.Type != "" && account.Type != filter.Type {
		return false
	}
	if filter.IsActive != nil && account.IsActive != *filter.IsActive {
		return false
	}
	return true
}

func cloneAccount(account domain.Account) domain.Account {
	if account.PermissionOverride != nil {
		override := make([]string, len(account.PermissionOverride))
		copy(override, account.PermissionOverride)
		account.PermissionOverride = override
	}
	return account
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// OpportunityRepository is a map-backed port.OpportunityRepository.
type OpportunityRepository struct {
	mu            sync.RWMutex
	opportunities map[string]domain.Opportunity
}

// NewOpportunityRepository builds an empty opportunity repository.
func NewOpportunityRepository() *OpportunityRepository {
	return &OpportunityRepository{opportunities: make(map[string]domain.Opportunity)}
}

func (r *OpportunityRepository) Create(_ context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.opportunities[opp.ID]; ok {
		return repository.ErrConflict
	}
	r.opportunities[opp.ID] = opp
	return nil
}

func (r *OpportunityRepository) GetByID(_ context.Context, id string) (*domain.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opp, ok := r.opportunities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &opp, nil
}

func (r *OpportunityRepository) Update(_ context.Context, opp domain.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.opportunities[opp.ID]; !ok {
		return repository.ErrNotFound
	}
	r.opportunities[opp.ID] = opp
	return nil
}

func (r *OpportunityRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.opportunities, id)
	return nil
}

func (r *OpportunityRepository) List(_ context.Context, filter port.OpportunityFilter) ([]domain.Opportunity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Opportunity
	for _, opp := range r.opportunities {
		if matchesOpportunityFilter(opp, filter) {
			matched = append(matched, opp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *OpportunityRepository) Count(_ context.Context, filter port.OpportunityFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, opp := range r.opportunities {
		if matchesOpportunityFilter(opp, filter) {
			count++
		}
	}
	return count, nil
}

func matchesOpportunityFilter(opp domain.Opportunity, filter port.OpportunityFilter) bool {
	if filter.Category != "" && opp.Category != filter.Category {
		return false
	}
	if filter.ProviderID != "" && opp.ProviderID != filter.ProviderID {
		return false
	}
	if filter.Status != "" && opp.Status != filter.Status {
		return false
	}
	if filter.Remote != nil && opp.Remote != *filter.Remote {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		title := strings.ToLower(opp.Title)
		description := strings.ToLower(opp.Description)
		if !strings.Contains(title, needle) && !strings.Contains(description, needle) {
			return false
		}
	}
	return true
}

// ApplicationRepository is a map-backed port.ApplicationRepository enforcing
// the one-application-per-pair rule.
type ApplicationRepository struct {
	mu           sync.RWMutex
	applications map[string]domain.Application
}

// NewApplicationRepository builds an empty application repository.
func NewApplicationRepository() *ApplicationRepository {
	return &ApplicationRepository{applications: make(map[string]domain.Application)}
}

func (r *ApplicationRepository) Create(_ context.Context, app domain.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applications[app.ID]; ok {
		return repository.ErrConflict
	}
	for _, existing := range r.applications {
		if existing.OpportunityID == app.OpportunityID && existing.ApplicantID == app.ApplicantID {
			return repository.ErrConflict
		}
	}
	r.applications[app.ID] = app
	return nil
}

func (r *ApplicationRepository) GetByID(_ context.Context, id string) (*domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.applications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &app, nil
}

func (r *ApplicationRepository) GetByOpportunityAndApplicant(_ context.Context, opportunityID, applicantID string) (*domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, app := range r.applications {
		if app.OpportunityID == opportunityID && app.ApplicantID == applicantID {
			copied := app
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ApplicationRepository) UpdateStatus(_ context.Context, id string, status domain.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.applications[id]
	if !ok {
		return repository.ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = time.Now().UTC()
	r.applications[id] = app
	return nil
}

func (r *ApplicationRepository) ListByApplicant(_ context.Context, applicantID string) ([]domain.Application, error) {
	return r.list(func(app domain.Application) bool { return app.ApplicantID == applicantID })
}

func (r *ApplicationRepository) ListByOpportunity(_ context.Context, opportunityID string) ([]domain.Application, error) {
	return r.list(func(app domain.Application) bool { return app.OpportunityID == opportunityID })
}

func (r *ApplicationRepository) list(match func(domain.Application) bool) ([]domain.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Application
	for _, app := range r.applications {
		if match(app) {
			matched = append(matched, app)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// DeleteOlderThan purges settled applications created before the cutoff.
// Pending applications are kept however old they are.
func (r *ApplicationRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, app := range r.applications {
		settled := app.Status == domain.ApplicationStatusAccepted || app.Status == domain.ApplicationStatusRejected
		if settled && app.CreatedAt.Before(cutoff) {
			delete(r.applications, id)
			removed++
		}
	}
	return removed, nil
}

// ConversationRepository is a map-backed port.ConversationRepository.
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
}

// NewConversationRepository builds an empty conversation repository.
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{conversations: make(map[string]domain.Conversation)}
}

func (r *ConversationRepository) Create(_ context.Context, conv domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conv.ID]; ok {
		return repository.ErrConflict
	}
	r.conversations[conv.ID] = cloneConversation(conv)
	return nil
}

func (r *ConversationRepository) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := cloneConversation(conv)
	return &copied, nil
}

func (r *ConversationRepository) ListByParticipant(_ context.Context, accountID string) ([]domain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(accountID) {
			matched = append(matched, cloneConversation(conv))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return matched, nil
}

func (r *ConversationRepository) Touch(_ context.Context, id string, at time.Time) error {
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

func cloneConversation(conv domain.Conversation) domain.Conversation {
	participants := make([]string, len(conv.Participants))
	copy(participants, conv.Participants)
	conv.Participants = participants
	return conv
}

// MessageRepository is a map-backed port.MessageRepository.
type MessageRepository struct {
	mu       sync.RWMutex
	messages map[string]domain.Message
}

// NewMessageRepository builds an empty message repository.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{messages: make(map[string]domain.Message)}
}

func (r *MessageRepository) Create(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages[msg.ID]; ok {
		return repository.ErrConflict
	}
	r.messages[msg.ID] = msg
	return nil
}

func (r *MessageRepository) ListByConversation(_ context.Context, conversationID string, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			matched = append(matched, msg)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, conversationID, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, msg := range r.messages {
		if msg.ConversationID == conversationID && msg.SenderID != readerID && !msg.Read {
			msg.Read = true
			r.messages[id] = msg
		}
	}
	return nil
}

func (r *MessageRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, msg := range r.messages {
		if msg.CreatedAt.Before(cutoff) {
			delete(r.messages, id)
			removed++
		}
	}
	return removed, nil
}

// SessionStore is a map-backed port.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore builds an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

func (s *SessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// LockoutStore is a map-backed port.LockoutStore keyed by normalized email.
type LockoutStore struct {
	mu      sync.RWMutex
	records map[string]domain.LockoutRecord
}

// NewLockoutStore builds an empty lockout store.
func NewLockoutStore() *LockoutStore {
	return &LockoutStore{records: make(map[string]domain.LockoutRecord)}
}

func (s *LockoutStore) Get(_ context.Context, email string) (*domain.LockoutRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[domain.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (s *LockoutStore) Save(_ context.Context, record domain.LockoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[domain.NormalizeEmail(record.Email)] = record
	return nil
}

func (s *LockoutStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, domain.NormalizeEmail(email))
	return nil
}

// ActivityLog is a slice-backed port.ActivityLog capped at
// domain.ActivityLogCap entries, newest first.
type ActivityLog struct {
	mu      sync.RWMutex
	entries []domain.ActivityLogEntry
}

// NewActivityLog builds an empty activity log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (l *ActivityLog) Append(_ context.Context, entry domain.ActivityLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]domain.ActivityLogEntry{entry}, l.entries...)
	if len(l.entries) > domain.ActivityLogCap {
		l.entries = l.entries[:domain.ActivityLogCap]
	}
	return nil
}

func (l *ActivityLog) Recent(_ context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	entries := make([]domain.ActivityLogEntry, limit)
	copy(entries, l.entries[:limit])
	return entries, nil
}

// RateLimitStore is a map-backed port.RateLimitStore holding attempt
// timestamps per identifier.
type RateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewRateLimitStore builds an empty rate limit store.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *RateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *RateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.Add(-window)
	count := 0
	for _, at := range s.attempts[identifier] {
		if !at.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *RateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.Add(-window)
	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if !at.Before(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(s.attempts, identifier)
		return nil
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *RateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := reference.Add(-window)
	var oldest time.Time
	found := false
	for _, at := range s.attempts[identifier] {
		if at.Before(cutoff) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest = at
			found = true
		}
	}
	return oldest, found, nil
}

var (
	_ port.AccountRepository     = (*AccountRepository)(nil)
	_ port.OpportunityRepository = (*OpportunityRepository)(nil)
	_ port.ApplicationRepository = (*ApplicationRepository)(nil)
	_ port.ConversationRepository = (*ConversationRepository)(nil)
	_ port.MessageRepository     = (*MessageRepository)(nil)
	_ port.SessionStore          = (*SessionStore)(nil)
	_ port.LockoutStore          = (*LockoutStore)(nil)
	_ port.ActivityLog           = (*ActivityLog)(nil)
	_ port.RateLimitStore        = (*RateLimitStore)(nil)
)
