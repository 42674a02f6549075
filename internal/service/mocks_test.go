package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
)

// fakeTxRunner executes the function directly; the in-memory repositories
// ignore the tx handle.
type fakeTxRunner struct{}

func (fakeTxRunner) RunInTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

var idCounter int

func nextID(prefix string) string {
	idCounter++
	return fmt.Sprintf("%s-%d", prefix, idCounter)
}

func strPtr(s string) *string { return &s }

func i64Ptr(v int64) *int64 { return &v }

type mockDirectoryRepo struct {
	designations     map[string]*domain.Designation
	committees       map[string]*domain.Committee
	committeeMembers map[string][]string
	offices          map[string]*domain.Office
	postings         map[string]*domain.Posting
	tenures          []*domain.Tenure
}

func newMockDirectoryRepo() *mockDirectoryRepo {
	return &mockDirectoryRepo{
		designations:     map[string]*domain.Designation{},
		committees:       map[string]*domain.Committee{},
		committeeMembers: map[string][]string{},
		offices:          map[string]*domain.Office{},
		postings:         map[string]*domain.Posting{},
	}
}

func (m *mockDirectoryRepo) CreateDesignation(_ context.Context, d *domain.Designation) error {
	d.ID = nextID("des")
	m.designations[d.ID] = d
	return nil
}

func (m *mockDirectoryRepo) GetDesignation(_ context.Context, id string) (*domain.Designation, error) {
	d, ok := m.designations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockDirectoryRepo) ListDesignations(_ context.Context) ([]domain.Designation, error) {
	var result []domain.Designation
	for _, d := range m.designations {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDirectoryRepo) CreateCommittee(_ context.Context, c *domain.Committee) error {
	c.ID = nextID("com")
	m.committees[c.ID] = c
	return nil
}

func (m *mockDirectoryRepo) GetCommittee(_ context.Context, id string) (*domain.Committee, error) {
	c, ok := m.committees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockDirectoryRepo) AddCommitteeMember(_ context.Context, committeeID, designationID string) error {
	for _, existing := range m.committeeMembers[committeeID] {
		if existing == designationID {
			return nil
		}
	}
	m.committeeMembers[committeeID] = append(m.committeeMembers[committeeID], designationID)
	return nil
}

func (m *mockDirectoryRepo) ListCommitteeMemberDesignations(_ context.Context, committeeID string) ([]string, error) {
	return m.committeeMembers[committeeID], nil
}

func (m *mockDirectoryRepo) CreateOffice(_ context.Context, o *domain.Office) error {
	o.ID = nextID("off")
	m.offices[o.ID] = o
	return nil
}

func (m *mockDirectoryRepo) GetOffice(_ context.Context, id string) (*domain.Office, error) {
	o, ok := m.offices[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockDirectoryRepo) CreatePosting(_ context.Context, p *domain.Posting) error {
	p.ID = nextID("post")
	m.postings[p.ID] = p
	return nil
}

func (m *mockDirectoryRepo) GetPosting(_ context.Context, id string) (*domain.Posting, error) {
	p, ok := m.postings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockDirectoryRepo) ListActivePostingsByDesignation(_ context.Context, designationID string) ([]domain.Posting, error) {
	var result []domain.Posting
	for _, p := range m.postings {
		if p.DesignationID == designationID && p.Active {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockDirectoryRepo) CreateTenure(_ context.Context, t *domain.Tenure) error {
	t.ID = nextID("ten")
	t.StartedAt = time.Now()
	m.tenures = append(m.tenures, t)
	return nil
}

func (m *mockDirectoryRepo) ListActiveTenuresByOffice(_ context.Context, officeID string) ([]domain.Tenure, error) {
	var result []domain.Tenure
	for _, t := range m.tenures {
		if t.OfficeID == officeID && t.Active {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockDirectoryRepo) ListActiveTenuresByPosting(_ context.Context, postingID string) ([]domain.Tenure, error) {
	var result []domain.Tenure
	for _, t := range m.tenures {
		if t.PostingID == postingID && t.Active {
			result = append(result, *t)
		}
	}
	return result, nil
}

type mockRuleRepo struct {
	rules      map[string]*domain.DoARule
	categories map[string]*domain.DecisionCategory
	scopes     map[string]*domain.FunctionalScope
}

func newMockRuleRepo() *mockRuleRepo {
	return &mockRuleRepo{
		rules:      map[string]*domain.DoARule{},
		categories: map[string]*domain.DecisionCategory{},
		scopes:     map[string]*domain.FunctionalScope{},
	}
}

func (m *mockRuleRepo) CreateRule(_ context.Context, rule *domain.DoARule) error {
	rule.ID = nextID("rule")
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockRuleRepo) UpdateRule(_ context.Context, rule *domain.DoARule) error {
	if _, ok := m.rules[rule.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *mockRuleRepo) GetRule(_ context.Context, id string) (*domain.DoARule, error) {
	rule, ok := m.rules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *rule
	return &copied, nil
}

func (m *mockRuleRepo) ListByCategoryScope(_ context.Context, categoryID, scopeID string) ([]domain.DoARule, error) {
	var result []domain.DoARule
	for _, rule := range m.rules {
		if rule.CategoryID == categoryID && rule.ScopeID == scopeID && rule.IsActive {
			result = append(result, *rule)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EffectiveMin() < result[j].EffectiveMin()
	})
	return result, nil
}

func (m *mockRuleRepo) CountByScopeAndAuthority(_ context.Context, scopeID string, authorityType domain.BodyType, authorityID string) (int, error) {
	count := 0
	for _, rule := range m.rules {
		if rule.ScopeID == scopeID && rule.AuthorityType == authorityType && rule.AuthorityID == authorityID && rule.IsActive {
			count++
		}
	}
	return count, nil
}

func (m *mockRuleRepo) CreateCategory(_ context.Context, c *domain.DecisionCategory) error {
	c.ID = nextID("cat")
	m.categories[c.ID] = c
	return nil
}

func (m *mockRuleRepo) GetCategory(_ context.Context, id string) (*domain.DecisionCategory, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockRuleRepo) ListCategories(_ context.Context) ([]domain.DecisionCategory, error) {
	var result []domain.DecisionCategory
	for _, c := range m.categories {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockRuleRepo) CreateScope(_ context.Context, s *domain.FunctionalScope) error {
	s.ID = nextID("scope")
	m.scopes[s.ID] = s
	return nil
}

func (m *mockRuleRepo) GetScope(_ context.Context, id string) (*domain.FunctionalScope, error) {
	s, ok := m.scopes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockRuleRepo) ListScopes(_ context.Context) ([]domain.FunctionalScope, error) {
	var result []domain.FunctionalScope
	for _, s := range m.scopes {
		result = append(result, *s)
	}
	return result, nil
}

type mockDecisionRepo struct {
	decisions map[string]*domain.Decision
}

func newMockDecisionRepo() *mockDecisionRepo {
	return &mockDecisionRepo{decisions: map[string]*domain.Decision{}}
}

func (m *mockDecisionRepo) Create(_ context.Context, decision *domain.Decision) error {
	decision.ID = nextID("dec")
	decision.CreatedAt = time.Now()
	decision.UpdatedAt = decision.CreatedAt
	stored := *decision
	m.decisions[decision.ID] = &stored
	return nil
}

func (m *mockDecisionRepo) GetByID(_ context.Context, id string) (*domain.Decision, error) {
	decision, ok := m.decisions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *decision
	return &copied, nil
}

func (m *mockDecisionRepo) UpdatePayload(_ context.Context, decision *domain.Decision) error {
	stored, ok := m.decisions[decision.ID]
	if !ok || stored.Status != domain.DecisionStatusDraft {
		return pgx.ErrNoRows
	}
	stored.Subject = decision.Subject
	stored.Justification = decision.Justification
	stored.AmountMinor = decision.AmountMinor
	stored.Currency = decision.Currency
	stored.CategoryID = decision.CategoryID
	stored.ScopeID = decision.ScopeID
	stored.CommitteeRouted = decision.CommitteeRouted
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *mockDecisionRepo) ListWithFilter(_ context.Context, filter repository.DecisionFilter) ([]domain.Decision, error) {
	var result []domain.Decision
	for _, decision := range m.decisions {
		if filter.InitiatorPostingID != nil && decision.InitiatorPostingID != *filter.InitiatorPostingID {
			continue
		}
		if filter.CategoryID != nil && decision.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.ScopeID != nil && decision.ScopeID != *filter.ScopeID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if decision.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		result = append(result, *decision)
	}
	return result, nil
}

func (m *mockDecisionRepo) TransitionTx(_ context.Context, _ pgx.Tx, id string, from, to domain.DecisionStatus, snapshot *domain.RuleSnapshot) error {
	stored, ok := m.decisions[id]
	if !ok || stored.Status != from {
		return repository.ErrStaleStatus
	}
	stored.Status = to
	if snapshot != nil {
		copied := *snapshot
		stored.Rule = &copied
	}
	if to.Terminal() {
		now := time.Now()
		stored.ResolvedAt = &now
	}
	stored.UpdatedAt = time.Now()
	return nil
}

type mockAuditRepo struct {
	entries []domain.AuditEntry
}

func (m *mockAuditRepo) AppendTx(_ context.Context, _ pgx.Tx, entry *domain.AuditEntry) error {
	entry.ID = nextID("audit")
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepo) ListByDecision(_ context.Context, decisionID string) ([]domain.AuditEntry, error) {
	var result []domain.AuditEntry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].DecisionID == decisionID {
			result = append(result, m.entries[i])
		}
	}
	return result, nil
}

type mockMeetingRepo struct {
	meetings   map[string]*domain.Meeting
	agenda     map[string]*domain.AgendaItem
	attendance map[string][]domain.AttendanceRecord
}

func newMockMeetingRepo() *mockMeetingRepo {
	return &mockMeetingRepo{
		meetings:   map[string]*domain.Meeting{},
		agenda:     map[string]*domain.AgendaItem{},
		attendance: map[string][]domain.AttendanceRecord{},
	}
}

func (m *mockMeetingRepo) CreateMeeting(_ context.Context, meeting *domain.Meeting) error {
	meeting.ID = nextID("meet")
	meeting.CreatedAt = time.Now()
	meeting.UpdatedAt = meeting.CreatedAt
	stored := *meeting
	m.meetings[meeting.ID] = &stored
	return nil
}

func (m *mockMeetingRepo) GetMeeting(_ context.Context, id string) (*domain.Meeting, error) {
	meeting, ok := m.meetings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *meeting
	return &copied, nil
}

func (m *mockMeetingRepo) GetMeetingForUpdateTx(ctx context.Context, _ pgx.Tx, id string) (*domain.Meeting, error) {
	return m.GetMeeting(ctx, id)
}

func (m *mockMeetingRepo) ListByCommittee(_ context.Context, committeeID string, _, _ int) ([]domain.Meeting, error) {
	var result []domain.Meeting
	for _, meeting := range m.meetings {
		if meeting.CommitteeID == committeeID {
			result = append(result, *meeting)
		}
	}
	return result, nil
}

func (m *mockMeetingRepo) ConcludeMeetingTx(_ context.Context, _ pgx.Tx, id string, minutesRef *string) error {
	meeting, ok := m.meetings[id]
	if !ok || meeting.Status != domain.MeetingStatusScheduled {
		return repository.ErrStaleStatus
	}
	meeting.Status = domain.MeetingStatusConcluded
	meeting.MinutesRef = minutesRef
	return nil
}

func (m *mockMeetingRepo) CancelMeeting(_ context.Context, id string) error {
	meeting, ok := m.meetings[id]
	if !ok || meeting.Status != domain.MeetingStatusScheduled {
		return repository.ErrStaleStatus
	}
	meeting.Status = domain.MeetingStatusCancelled
	return nil
}

func (m *mockMeetingRepo) SetQuorumTx(_ context.Context, _ pgx.Tx, meetingID string, quorumMet bool) error {
	meeting, ok := m.meetings[meetingID]
	if !ok {
		return pgx.ErrNoRows
	}
	meeting.QuorumMet = quorumMet
	return nil
}

func (m *mockMeetingRepo) ReplaceAttendanceTx(_ context.Context, _ pgx.Tx, meetingID string, designationIDs []string) error {
	records := make([]domain.AttendanceRecord, 0, len(designationIDs))
	for _, id := range designationIDs {
		records = append(records, domain.AttendanceRecord{
			ID:            nextID("att"),
			MeetingID:     meetingID,
			DesignationID: id,
			RecordedAt:    time.Now(),
		})
	}
	m.attendance[meetingID] = records
	return nil
}

func (m *mockMeetingRepo) ListAttendance(_ context.Context, meetingID string) ([]domain.AttendanceRecord, error) {
	return m.attendance[meetingID], nil
}

func (m *mockMeetingRepo) AddAgendaItemTx(_ context.Context, _ pgx.Tx, item *domain.AgendaItem) error {
	item.ID = nextID("agenda")
	item.CreatedAt = time.Now()
	stored := *item
	m.agenda[item.ID] = &stored
	return nil
}

func (m *mockMeetingRepo) GetAgendaItem(_ context.Context, id string) (*domain.AgendaItem, error) {
	item, ok := m.agenda[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (m *mockMeetingRepo) ListAgenda(_ context.Context, meetingID string) ([]domain.AgendaItem, error) {
	var result []domain.AgendaItem
	for _, item := range m.agenda {
		if item.MeetingID == meetingID {
			result = append(result, *item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (m *mockMeetingRepo) UpdateAgendaOutcomeTx(_ context.Context, _ pgx.Tx, itemID string, outcome domain.AgendaOutcome, notes string) error {
	item, ok := m.agenda[itemID]
	if !ok || item.Outcome != domain.AgendaOutcomePending {
		return repository.ErrStaleStatus
	}
	item.Outcome = outcome
	item.Notes = notes
	return nil
}

func (m *mockMeetingRepo) CountPendingAgendaTx(_ context.Context, _ pgx.Tx, meetingID string) (int, error) {
	count := 0
	for _, item := range m.agenda {
		if item.MeetingID == meetingID && item.Outcome == domain.AgendaOutcomePending {
			count++
		}
	}
	return count, nil
}

type mockObligationRepo struct {
	obligations map[string]*domain.Obligation
}

func newMockObligationRepo() *mockObligationRepo {
	return &mockObligationRepo{obligations: map[string]*domain.Obligation{}}
}

func (m *mockObligationRepo) Create(_ context.Context, obligation *domain.Obligation) error {
	obligation.ID = nextID("obl")
	obligation.CreatedAt = time.Now()
	stored := *obligation
	m.obligations[obligation.ID] = &stored
	return nil
}

func (m *mockObligationRepo) GetByID(_ context.Context, id string) (*domain.Obligation, error) {
	obligation, ok := m.obligations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *obligation
	return &copied, nil
}

func (m *mockObligationRepo) ListWithFilter(_ context.Context, filter repository.ObligationFilter) ([]domain.Obligation, error) {
	var result []domain.Obligation
	for _, obligation := range m.obligations {
		if filter.OwedByOffice != nil && obligation.FromOfficeID != *filter.OwedByOffice {
			continue
		}
		if filter.OwedToOffice != nil && obligation.ToOfficeID != *filter.OwedToOffice {
			continue
		}
		if filter.Status != nil && obligation.Status != *filter.Status {
			continue
		}
		if filter.OverdueAt != nil {
			if obligation.Status != domain.ObligationStatusPending || !obligation.Deadline.Before(*filter.OverdueAt) {
				continue
			}
		}
		result = append(result, *obligation)
	}
	return result, nil
}

func (m *mockObligationRepo) Certify(_ context.Context, id string) error {
	obligation, ok := m.obligations[id]
	if !ok || obligation.Status != domain.ObligationStatusPending {
		return pgx.ErrNoRows
	}
	now := time.Now()
	obligation.Status = domain.ObligationStatusCertified
	obligation.CertifiedAt = &now
	return nil
}
