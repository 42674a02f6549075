package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// DirectoryService administers the reference data behind the Authority
// Directory: designations, committees, offices, postings and tenures.
// Writes are admin-only; reads go through the Directory adapter.
type DirectoryService struct {
	repo   repository.DirectoryRepository
	dir    *directory.Directory
	logger *zap.Logger
}

// NewDirectoryService constructs the service.
func NewDirectoryService(repo repository.DirectoryRepository, dir *directory.Directory, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, dir: dir, logger: logger}
}

// CreateDesignation registers a designation.
func (s *DirectoryService) CreateDesignation(ctx context.Context, actor domain.ActorRef, title string, rank int) (*domain.Designation, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if rank <= 0 {
		return nil, apperrors.NewValidationError("rank must be positive", nil)
	}
	designation := &domain.Designation{Title: title, Rank: rank, IsActive: true}
	if err := s.repo.CreateDesignation(ctx, designation); err != nil {
		return nil, apperrors.MapError(err)
	}
	return designation, nil
}

// ListDesignations returns all designations ordered by rank.
func (s *DirectoryService) ListDesignations(ctx context.Context) ([]domain.Designation, error) {
	designations, err := s.repo.ListDesignations(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return designations, nil
}

// CreateCommittee registers a committee with its quorum threshold.
func (s *DirectoryService) CreateCommittee(ctx context.Context, actor domain.ActorRef, name string, quorumMin int) (*domain.Committee, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	if quorumMin <= 0 {
		return nil, apperrors.NewValidationError("quorum_min must be positive", nil)
	}
	committee := &domain.Committee{Name: name, QuorumMin: quorumMin, IsActive: true}
	if err := s.repo.CreateCommittee(ctx, committee); err != nil {
		return nil, apperrors.MapError(err)
	}
	return committee, nil
}

// AddCommitteeMember seats a designation on a committee. Adding an existing
// member is a no-op.
func (s *DirectoryService) AddCommitteeMember(ctx context.Context, actor domain.ActorRef, committeeID, designationID string) error {
	if err := requireAdminActor(actor); err != nil {
		return err
	}
	if _, err := s.dir.GetCommittee(ctx, committeeID); err != nil {
		return err
	}
	if _, err := s.dir.GetDesignation(ctx, designationID); err != nil {
		return err
	}
	if err := s.repo.AddCommitteeMember(ctx, committeeID, designationID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// GetCommittee loads a committee with its member designations.
func (s *DirectoryService) GetCommittee(ctx context.Context, committeeID string) (*domain.Committee, []string, error) {
	committee, err := s.dir.GetCommittee(ctx, committeeID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.dir.ResolveMemberDesignations(ctx, committeeID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return committee, members, nil
}

// CreateOffice registers an office, optionally scoped to a unit.
func (s *DirectoryService) CreateOffice(ctx context.Context, actor domain.ActorRef, name string, unitID *string) (*domain.Office, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	office := &domain.Office{Name: name, UnitID: unitID, IsActive: true}
	if err := s.repo.CreateOffice(ctx, office); err != nil {
		return nil, apperrors.MapError(err)
	}
	return office, nil
}

// CreatePosting registers a person's assignment to a designation.
func (s *DirectoryService) CreatePosting(ctx context.Context, actor domain.ActorRef, personName, unitID, designationID string, regionID *string) (*domain.Posting, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	if personName == "" || designationID == "" {
		return nil, apperrors.NewValidationError("person_name and designation_id are required", nil)
	}
	designation, err := s.dir.GetDesignation(ctx, designationID)
	if err != nil {
		return nil, err
	}
	if !designation.IsActive {
		return nil, apperrors.NewConflict("designation inactive", map[string]any{"designation_id": designationID})
	}
	posting := &domain.Posting{
		PersonName:    personName,
		UnitID:        unitID,
		DesignationID: designationID,
		RegionID:      regionID,
		Active:        true,
	}
	if err := s.repo.CreatePosting(ctx, posting); err != nil {
		return nil, apperrors.MapError(err)
	}
	return posting, nil
}

// GetPosting loads a posting.
func (s *DirectoryService) GetPosting(ctx context.Context, postingID string) (*domain.Posting, error) {
	return s.dir.GetPosting(ctx, postingID)
}

// CreateTenure assigns a posting to an office.
func (s *DirectoryService) CreateTenure(ctx context.Context, actor domain.ActorRef, postingID, officeID string) (*domain.Tenure, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	posting, err := s.dir.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if !posting.Active {
		return nil, apperrors.NewConflict("posting inactive", map[string]any{"posting_id": postingID})
	}
	if _, err := s.dir.GetOffice(ctx, officeID); err != nil {
		return nil, err
	}
	tenure := &domain.Tenure{PostingID: postingID, OfficeID: officeID, Active: true}
	if err := s.repo.CreateTenure(ctx, tenure); err != nil {
		return nil, apperrors.MapError(err)
	}
	return tenure, nil
}

// ListOfficeTenures returns the active tenures for an office.
func (s *DirectoryService) ListOfficeTenures(ctx context.Context, officeID string) ([]domain.Tenure, error) {
	if _, err := s.dir.GetOffice(ctx, officeID); err != nil {
		return nil, err
	}
	tenures, err := s.repo.ListActiveTenuresByOffice(ctx, officeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tenures, nil
}

// ResolveOccupants lists the active postings occupying an Authority Body.
func (s *DirectoryService) ResolveOccupants(ctx context.Context, ref domain.AuthorityRef) ([]domain.Posting, error) {
	occupants, err := s.dir.ResolveOccupants(ctx, ref)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return occupants, nil
}
