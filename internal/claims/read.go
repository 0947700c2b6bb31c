package claims

import (
	"context"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/store"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// maxPage keeps the offset well inside int range.
	maxPage = 1_000_000
)

// ListInput filters and pages a claim listing.
type ListInput struct {
	Status string
	Page   int
	Limit  int
}

// Page is one page of claims.
type Page struct {
	Claims []model.Claim `json:"claims"`
	Total  int           `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

// load reads a claim with its images.
func (s *Service) load(ctx context.Context, q store.Querier, id int64) (*model.Claim, error) {
	c, err := store.GetClaim(ctx, q, id)
	if err != nil {
		return nil, apperr.Internal("loading claim", err)
	}
	if c == nil {
		return nil, apperr.NotFound("claim", id)
	}
	c.Images, err = store.ListClaimImages(ctx, q, id)
	if err != nil {
		return nil, apperr.Internal("loading claim images", err)
	}
	return c, nil
}

// Get returns a claim to its claimant or to staff.
func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (*model.Claim, error) {
	c, err := s.load(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if c.ClaimantUserID != actor.UserID && !actor.IsStaff() {
		return nil, apperr.Forbidden("you cannot view this claim")
	}
	return c, nil
}

// List returns the actor's own claims, or every claim for staff.
func (s *Service) List(ctx context.Context, actor model.Actor, in ListInput) (*Page, error) {
	f := store.ClaimFilter{}
	if in.Status != "" {
		st, err := model.ParseClaimStatus(in.Status)
		if err != nil {
			return nil, apperr.Validation("%v", err)
		}
		f.Status = st
	}
	if !actor.IsStaff() {
		f.ClaimantUserID = actor.UserID
	}

	if in.Page < 1 {
		in.Page = 1
	}
	if in.Page > maxPage {
		return nil, apperr.Validation("page must be at most %d", maxPage)
	}
	if in.Limit <= 0 {
		in.Limit = defaultPageLimit
	}
	in.Limit = min(in.Limit, maxPageLimit)
	f.Limit = in.Limit
	f.Offset = (in.Page - 1) * in.Limit

	claims, total, err := store.ListClaims(ctx, s.db, f)
	if err != nil {
		return nil, apperr.Internal("listing claims", err)
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	return &Page{Claims: claims, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// ListForItem returns every claim on a found item to its finder or to staff.
func (s *Service) ListForItem(ctx context.Context, actor model.Actor, foundItemID int64) ([]model.Claim, error) {
	found, err := store.GetFoundItem(ctx, s.db, foundItemID)
	if err != nil {
		return nil, apperr.Internal("loading found item", err)
	}
	if found == nil {
		return nil, apperr.NotFound("found item", foundItemID)
	}
	if found.UserID != actor.UserID && !actor.IsStaff() {
		return nil, apperr.Forbidden("only the finder or staff can view claims on this item")
	}

	claims, err := store.ListClaimsForFoundItem(ctx, s.db, foundItemID)
	if err != nil {
		return nil, apperr.Internal("listing claims", err)
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	return claims, nil
}
