package claims

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/storage"
	"github.com/erazemk/campusfound/internal/store"
)

// SubmitInput is a new claim as supplied by the claimant.
type SubmitInput struct {
	FoundItemID  int64
	Description  string
	ProofDetails string
	Images       []*storage.Staged
}

func (s *Service) validateSubmit(in *SubmitInput) error {
	in.Description = strings.TrimSpace(in.Description)
	in.ProofDetails = strings.TrimSpace(in.ProofDetails)

	if in.FoundItemID <= 0 {
		return apperr.Validation("found_item_id is required")
	}
	if n := utf8.RuneCountInString(in.Description); n < s.opts.MinDescriptionLength {
		return apperr.ValidationCode(apperr.CodeClaimDescriptionTooThin,
			"description must be at least %d characters", s.opts.MinDescriptionLength)
	}
	if len(in.Images) > s.opts.MaxImages {
		return apperr.ValidationCode(apperr.CodeClaimTooManyImages,
			"at most %d images can be attached", s.opts.MaxImages)
	}
	return nil
}

func duplicatePending() error {
	return apperr.Conflict(apperr.CodeClaimDuplicatePending,
		"you already have a pending claim for this item",
		string(model.ClaimStatusPending), "")
}

// Submit files a pending claim on an approved found item. The claim row, its
// images, the staff notifications and the activity entry are written in one
// transaction. If anything fails, placed images and a newly created claim
// directory are removed and the original error is returned. Staged uploads
// are always consumed.
func (s *Service) Submit(ctx context.Context, actor model.Actor, in SubmitInput) (*model.Claim, error) {
	defer s.files.DiscardStaged(in.Images)

	if err := s.validateSubmit(&in); err != nil {
		return nil, err
	}

	var (
		claimID    int64
		createdDir bool
		placed     []string
		claim      *model.Claim
	)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		found, err := store.GetFoundItem(ctx, tx, in.FoundItemID)
		if err != nil {
			return apperr.Internal("loading found item", err)
		}
		if found == nil {
			return apperr.NotFound("found item", in.FoundItemID)
		}
		if found.Status != model.ItemStatusApproved {
			return apperr.Conflict(apperr.CodeClaimItemNotClaimable,
				fmt.Sprintf("found item is %s and cannot be claimed", found.Status),
				string(found.Status), string(model.ItemStatusApproved))
		}
		if found.UserID == actor.UserID {
			return apperr.ForbiddenCode(apperr.CodeClaimOwnItem, "you cannot claim an item you reported")
		}

		pending, err := store.HasPendingClaim(ctx, tx, found.ID, actor.UserID)
		if err != nil {
			return apperr.Internal("checking pending claims", err)
		}
		if pending {
			return duplicatePending()
		}

		claimID, err = store.InsertClaim(ctx, tx, store.NewClaim{
			FoundItemID:    found.ID,
			ClaimantUserID: actor.UserID,
			Description:    in.Description,
			ProofDetails:   in.ProofDetails,
		})
		if store.IsUniqueViolation(err) {
			return duplicatePending()
		}
		if err != nil {
			return apperr.Internal("inserting claim", err)
		}

		for _, staged := range in.Images {
			img, created, err := s.files.PlaceClaimImage(claimID, staged)
			createdDir = createdDir || created
			if err != nil {
				if _, ok := apperr.As(err); ok {
					return err
				}
				return apperr.Internal("storing proof image", err)
			}
			placed = append(placed, img.Path)

			if _, err := store.InsertClaimImage(ctx, tx, *img); err != nil {
				return apperr.Internal("recording proof image", err)
			}
		}

		staff, err := store.ListStaff(ctx, tx)
		if err != nil {
			return apperr.Internal("listing staff", err)
		}
		for _, u := range staff {
			err := s.notifyUser(ctx, tx, u.ID, model.NotifyClaimSubmitted, "New claim submitted",
				fmt.Sprintf("%s submitted a claim for %q.", actor.Username, found.Title), claimID)
			if err != nil {
				return err
			}
		}

		details := fmt.Sprintf("found_item=%d images=%d", found.ID, len(in.Images))
		if err := s.logActivity(ctx, tx, actor, store.ActionClaimSubmitted, claimID, details); err != nil {
			return err
		}

		claim, err = s.load(ctx, tx, claimID)
		return err
	})
	if err != nil {
		s.cleanup(claimID, createdDir, placed)
		return nil, err
	}

	slog.Info("claim submitted", "claim", claim.ID, "found_item", claim.FoundItemID, "claimant", actor.Username)
	return claim, nil
}

// cleanup removes files written for a claim whose transaction rolled back.
func (s *Service) cleanup(claimID int64, createdDir bool, placed []string) {
	for _, path := range placed {
		if err := s.files.DeleteFile(path); err != nil {
			slog.Warn("removing orphaned proof image", "path", path, "error", err)
		}
	}
	if createdDir && claimID > 0 {
		if err := s.files.DeleteClaimDir(claimID); err != nil {
			slog.Warn("removing orphaned claim dir", "claim", claimID, "error", err)
		}
	}
}
