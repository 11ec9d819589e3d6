package service

import (
	"context"
	"errors"
	"strings"

	"github.com/gronit/club-portal/backend-club/internal/clock"
	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/backend-club/internal/repository"
	"github.com/gronit/club-portal/pkg/media"
)

// memberService implements the MemberService interface
type memberService struct {
	memberRepo repository.MemberRepository
	images     media.ImageStore
	publisher  ContentPublisher
	clock      clock.Clock
}

// NewMemberService creates a new MemberService
func NewMemberService(memberRepo repository.MemberRepository, images media.ImageStore, publisher ContentPublisher, clk clock.Clock) MemberService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &memberService{
		memberRepo: memberRepo,
		images:     images,
		publisher:  publisher,
		clock:      clk,
	}
}

// ListMembers lists the team roster ordered by name
func (s *memberService) ListMembers(ctx context.Context, query *dto.PageQuery) ([]*domain.Member, int, error) {
	query.SetDefaults()
	return s.memberRepo.List(ctx, query.Limit, query.Offset)
}

// GetMember retrieves a member by ID
func (s *memberService) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// CreateMember uploads the photo and adds a member
func (s *memberService) CreateMember(ctx context.Context, actor string, req *dto.CreateMemberRequest) (*domain.Member, error) {
	if req.Image == nil {
		return nil, ErrImageRequired
	}
	if valid, msg := req.Validate(); !valid {
		return nil, invalidInput(msg)
	}
	links, err := req.Links()
	if err != nil {
		return nil, invalidInput(err.Error())
	}

	img, err := uploadImage(ctx, s.images, req.Image)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	member := &domain.Member{
		Name:          strings.TrimSpace(req.Name),
		Domain:        strings.TrimSpace(req.Domain),
		ImageURL:      img.URL,
		ImagePublicID: img.PublicID,
		SocialLinks:   links,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		destroyImage(ctx, s.images, img.PublicID)
		return nil, err
	}

	announce(ctx, s.publisher, domain.ResourceMember, domain.ActionCreated, member.ID, actor, now)
	return member, nil
}

// UpdateMember applies a partial update. Social links are replaced as a whole.
func (s *memberService) UpdateMember(ctx context.Context, id, actor string, req *dto.UpdateMemberRequest) (*domain.Member, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalidInput(msg)
	}

	member, err := s.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		member.Name = strings.TrimSpace(*req.Name)
	}
	if req.Domain != nil {
		member.Domain = strings.TrimSpace(*req.Domain)
	}
	links, err := req.Links()
	if err != nil {
		return nil, invalidInput(err.Error())
	}
	if links != nil {
		member.SocialLinks = *links
	}

	oldPublicID := ""
	var img *media.Image
	if req.Image != nil {
		img, err = uploadImage(ctx, s.images, req.Image)
		if err != nil {
			return nil, err
		}
		oldPublicID = member.ImagePublicID
		member.ImageURL = img.URL
		member.ImagePublicID = img.PublicID
	}

	now := s.clock.Now()
	member.UpdatedAt = now

	if err := s.memberRepo.Update(ctx, member); err != nil {
		if img != nil {
			destroyImage(ctx, s.images, img.PublicID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	destroyImage(ctx, s.images, oldPublicID)

	announce(ctx, s.publisher, domain.ResourceMember, domain.ActionUpdated, member.ID, actor, now)
	return member, nil
}

// DeleteMember removes a member and then their photo
func (s *memberService) DeleteMember(ctx context.Context, id, actor string) error {
	member, err := s.GetMember(ctx, id)
	if err != nil {
		return err
	}

	if err := s.memberRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	destroyImage(ctx, s.images, member.ImagePublicID)

	announce(ctx, s.publisher, domain.ResourceMember, domain.ActionDeleted, id, actor, s.clock.Now())
	return nil
}
