package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/governance-service/internal/domain"
)

// MeetingRepository persists meetings, agenda items and attendance snapshots.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *domain.Meeting) error
	GetMeeting(ctx context.Context, id string) (*domain.Meeting, error)
	GetMeetingForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Meeting, error)
	ListByCommittee(ctx context.Context, committeeID string, limit, offset int) ([]domain.Meeting, error)
	ConcludeMeetingTx(ctx context.Context, tx pgx.Tx, id string, minutesRef *string) error
	CancelMeeting(ctx context.Context, id string) error
	SetQuorumTx(ctx context.Context, tx pgx.Tx, meetingID string, quorumMet bool) error

	ReplaceAttendanceTx(ctx context.Context, tx pgx.Tx, meetingID string, designationIDs []string) error
	ListAttendance(ctx context.Context, meetingID string) ([]domain.AttendanceRecord, error)

	AddAgendaItemTx(ctx context.Context, tx pgx.Tx, item *domain.AgendaItem) error
	GetAgendaItem(ctx context.Context, id string) (*domain.AgendaItem, error)
	ListAgenda(ctx context.Context, meetingID string) ([]domain.AgendaItem, error)
	UpdateAgendaOutcomeTx(ctx context.Context, tx pgx.Tx, itemID string, outcome domain.AgendaOutcome, notes string) error
	CountPendingAgendaTx(ctx context.Context, tx pgx.Tx, meetingID string) (int, error)
}

type meetingRepository struct {
	pool *pgxpool.Pool
}

// NewMeetingRepository instantiates repository.
func NewMeetingRepository(pool *pgxpool.Pool) MeetingRepository {
	return &meetingRepository{pool: pool}
}

func (r *meetingRepository) CreateMeeting(ctx context.Context, meeting *domain.Meeting) error {
	const query = `
        INSERT INTO meetings (committee_id, scheduled_for, status)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, meeting.CommitteeID, meeting.ScheduledFor, meeting.Status).
		Scan(&meeting.ID, &meeting.CreatedAt, &meeting.UpdatedAt)
}

func (r *meetingRepository) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	const query = `
        SELECT id, committee_id, scheduled_for, status, quorum_met, minutes_ref, created_at, updated_at
        FROM meetings WHERE id=$1`
	var meeting domain.Meeting
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&meeting.ID,
		&meeting.CommitteeID,
		&meeting.ScheduledFor,
		&meeting.Status,
		&meeting.QuorumMet,
		&meeting.MinutesRef,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// GetMeetingForUpdateTx locks the meeting row for the transaction's duration,
// serializing agenda inserts against finalization.
func (r *meetingRepository) GetMeetingForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (*domain.Meeting, error) {
	const query = `
        SELECT id, committee_id, scheduled_for, status, quorum_met, minutes_ref, created_at, updated_at
        FROM meetings WHERE id=$1 FOR UPDATE`
	var meeting domain.Meeting
	if err := tx.QueryRow(ctx, query, id).Scan(
		&meeting.ID,
		&meeting.CommitteeID,
		&meeting.ScheduledFor,
		&meeting.Status,
		&meeting.QuorumMet,
		&meeting.MinutesRef,
		&meeting.CreatedAt,
		&meeting.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (r *meetingRepository) ListByCommittee(ctx context.Context, committeeID string, limit, offset int) ([]domain.Meeting, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, committee_id, scheduled_for, status, quorum_met, minutes_ref, created_at, updated_at
        FROM meetings WHERE committee_id=$1 ORDER BY scheduled_for DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, committeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Meeting
	for rows.Next() {
		var meeting domain.Meeting
		if err := rows.Scan(
			&meeting.ID,
			&meeting.CommitteeID,
			&meeting.ScheduledFor,
			&meeting.Status,
			&meeting.QuorumMet,
			&meeting.MinutesRef,
			&meeting.CreatedAt,
			&meeting.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, meeting)
	}
	return result, rows.Err()
}

// ConcludeMeetingTx compare-and-sets SCHEDULED -> CONCLUDED.
func (r *meetingRepository) ConcludeMeetingTx(ctx context.Context, tx pgx.Tx, id string, minutesRef *string) error {
	const query = `
        UPDATE meetings SET status='CONCLUDED', minutes_ref=$1, updated_at=NOW()
        WHERE id=$2 AND status='SCHEDULED'`
	cmd, err := tx.Exec(ctx, query, minutesRef, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// CancelMeeting compare-and-sets SCHEDULED -> CANCELLED.
func (r *meetingRepository) CancelMeeting(ctx context.Context, id string) error {
	const query = `
        UPDATE meetings SET status='CANCELLED', updated_at=NOW()
        WHERE id=$1 AND status='SCHEDULED'`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *meetingRepository) SetQuorumTx(ctx context.Context, tx pgx.Tx, meetingID string, quorumMet bool) error {
	const query = `UPDATE meetings SET quorum_met=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := tx.Exec(ctx, query, quorumMet, meetingID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReplaceAttendanceTx swaps the whole snapshot; recording replaces, never merges.
func (r *meetingRepository) ReplaceAttendanceTx(ctx context.Context, tx pgx.Tx, meetingID string, designationIDs []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM meeting_attendance WHERE meeting_id=$1`, meetingID); err != nil {
		return err
	}
	const insert = `INSERT INTO meeting_attendance (meeting_id, designation_id) VALUES ($1,$2)`
	for _, designationID := range designationIDs {
		if _, err := tx.Exec(ctx, insert, meetingID, designationID); err != nil {
			return err
		}
	}
	return nil
}

func (r *meetingRepository) ListAttendance(ctx context.Context, meetingID string) ([]domain.AttendanceRecord, error) {
	const query = `
        SELECT id, meeting_id, designation_id, recorded_at
        FROM meeting_attendance WHERE meeting_id=$1 ORDER BY recorded_at ASC`
	rows, err := r.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttendanceRecord
	for rows.Next() {
		var record domain.AttendanceRecord
		if err := rows.Scan(&record.ID, &record.MeetingID, &record.DesignationID, &record.RecordedAt); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// AddAgendaItemTx inserts inside the transaction that holds the meeting row
// lock, so the SCHEDULED check it runs under cannot go stale.
func (r *meetingRepository) AddAgendaItemTx(ctx context.Context, tx pgx.Tx, item *domain.AgendaItem) error {
	const query = `
        INSERT INTO agenda_items (meeting_id, decision_id, position, outcome, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return tx.QueryRow(ctx, query,
		item.MeetingID,
		item.DecisionID,
		item.Position,
		item.Outcome,
		item.Notes,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *meetingRepository) GetAgendaItem(ctx context.Context, id string) (*domain.AgendaItem, error) {
	const query = `
        SELECT id, meeting_id, decision_id, position, outcome, notes, created_at, updated_at
        FROM agenda_items WHERE id=$1`
	var item domain.AgendaItem
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.MeetingID,
		&item.DecisionID,
		&item.Position,
		&item.Outcome,
		&item.Notes,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *meetingRepository) ListAgenda(ctx context.Context, meetingID string) ([]domain.AgendaItem, error) {
	const query = `
        SELECT id, meeting_id, decision_id, position, outcome, notes, created_at, updated_at
        FROM agenda_items WHERE meeting_id=$1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AgendaItem
	for rows.Next() {
		var item domain.AgendaItem
		if err := rows.Scan(
			&item.ID,
			&item.MeetingID,
			&item.DecisionID,
			&item.Position,
			&item.Outcome,
			&item.Notes,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// UpdateAgendaOutcomeTx compare-and-sets the item from PENDING.
func (r *meetingRepository) UpdateAgendaOutcomeTx(ctx context.Context, tx pgx.Tx, itemID string, outcome domain.AgendaOutcome, notes string) error {
	const query = `
        UPDATE agenda_items SET outcome=$1, notes=$2, updated_at=NOW()
        WHERE id=$3 AND outcome='PENDING'`
	cmd, err := tx.Exec(ctx, query, outcome, notes, itemID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *meetingRepository) CountPendingAgendaTx(ctx context.Context, tx pgx.Tx, meetingID string) (int, error) {
	const query = `SELECT COUNT(*) FROM agenda_items WHERE meeting_id=$1 AND outcome='PENDING'`
	var count int
	if err := tx.QueryRow(ctx, query, meetingID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
