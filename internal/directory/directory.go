package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// Directory is the read-only identity-to-authority adapter. The occupancy
// check is written once against the polymorphic Authority Body instead of
// branching on body type throughout the workflow.
type Directory struct {
	repo repository.DirectoryRepository
}

// New builds the directory over the reference-data repository.
func New(repo repository.DirectoryRepository) *Directory {
	return &Directory{repo: repo}
}

// GetPosting loads a posting, mapping absence to NOT_FOUND.
func (d *Directory) GetPosting(ctx context.Context, postingID string) (*domain.Posting, error) {
	posting, err := d.repo.GetPosting(ctx, postingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("posting", map[string]any{"posting_id": postingID})
		}
		return nil, apperrors.MapError(err)
	}
	return posting, nil
}

// GetDesignation loads a designation, mapping absence to NOT_FOUND.
func (d *Directory) GetDesignation(ctx context.Context, designationID string) (*domain.Designation, error) {
	designation, err := d.repo.GetDesignation(ctx, designationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("designation", map[string]any{"designation_id": designationID})
		}
		return nil, apperrors.MapError(err)
	}
	return designation, nil
}

// GetCommittee loads a committee, mapping absence to NOT_FOUND.
func (d *Directory) GetCommittee(ctx context.Context, committeeID string) (*domain.Committee, error) {
	committee, err := d.repo.GetCommittee(ctx, committeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("committee", map[string]any{"committee_id": committeeID})
		}
		return nil, apperrors.MapError(err)
	}
	return committee, nil
}

// GetOffice loads an office, mapping absence to NOT_FOUND.
func (d *Directory) GetOffice(ctx context.Context, officeID string) (*domain.Office, error) {
	office, err := d.repo.GetOffice(ctx, officeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("office", map[string]any{"office_id": officeID})
		}
		return nil, apperrors.MapError(err)
	}
	return office, nil
}

// ResolveMemberDesignations lists the designations sitting on a committee.
func (d *Directory) ResolveMemberDesignations(ctx context.Context, committeeID string) ([]string, error) {
	return d.repo.ListCommitteeMemberDesignations(ctx, committeeID)
}

// ResolveOccupants returns the active postings that occupy an Authority Body:
// holders of the designation directly, or holders of any member designation
// when the body is a committee.
func (d *Directory) ResolveOccupants(ctx context.Context, ref domain.AuthorityRef) ([]domain.Posting, error) {
	switch ref.Type {
	case domain.BodyTypeDesignation:
		return d.repo.ListActivePostingsByDesignation(ctx, ref.BodyID)
	case domain.BodyTypeCommittee:
		memberDesignations, err := d.repo.ListCommitteeMemberDesignations(ctx, ref.BodyID)
		if err != nil {
			return nil, err
		}
		var occupants []domain.Posting
		for _, designationID := range memberDesignations {
			postings, err := d.repo.ListActivePostingsByDesignation(ctx, designationID)
			if err != nil {
				return nil, err
			}
			occupants = append(occupants, postings...)
		}
		return occupants, nil
	default:
		return nil, apperrors.NewValidationError("unknown authority body type", map[string]any{"type": ref.Type})
	}
}

// IsOccupant reports whether the posting's active assignment occupies the
// Authority Body, directly or via committee membership.
func (d *Directory) IsOccupant(ctx context.Context, ref domain.AuthorityRef, postingID string) (bool, error) {
	posting, err := d.repo.GetPosting(ctx, postingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if !posting.Active {
		return false, nil
	}

	switch ref.Type {
	case domain.BodyTypeDesignation:
		return posting.DesignationID == ref.BodyID, nil
	case domain.BodyTypeCommittee:
		memberDesignations, err := d.repo.ListCommitteeMemberDesignations(ctx, ref.BodyID)
		if err != nil {
			return false, err
		}
		for _, designationID := range memberDesignations {
			if posting.DesignationID == designationID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}
