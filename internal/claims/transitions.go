package claims

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/db"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/notify"
	"github.com/erazemk/campusfound/internal/store"
)

// Verification actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// VerifyInput is a staff decision on a pending claim.
type VerifyInput struct {
	Action            string     `json:"action"`
	VerificationNotes string     `json:"verification_notes"`
	RejectionReason   string     `json:"rejection_reason"`
	PickupScheduled   *time.Time `json:"pickup_scheduled"`
}

// PickupInput records who collected an item.
type PickupInput struct {
	PickedUpByName  string `json:"picked_up_by_name"`
	IDPresented     string `json:"id_presented"`
	ResolutionNotes string `json:"resolution_notes"`
}

// Verify approves or rejects a pending claim. Approval also marks the found
// item claimed and rejects every other pending claim on it, all in one
// transaction.
func (s *Service) Verify(ctx context.Context, actor model.Actor, claimID int64, in VerifyInput) (*model.Claim, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	in.RejectionReason = strings.TrimSpace(in.RejectionReason)
	switch in.Action {
	case ActionApprove:
		if in.PickupScheduled != nil && in.PickupScheduled.IsZero() {
			in.PickupScheduled = nil
		}
		return s.approve(ctx, actor, claimID, in)
	case ActionReject:
		if in.RejectionReason == "" {
			return nil, apperr.Validation("rejection_reason is required when rejecting a claim")
		}
		return s.reject(ctx, actor, claimID, in)
	default:
		return nil, apperr.Validation("action must be %q or %q", ActionApprove, ActionReject)
	}
}

func (s *Service) approve(ctx context.Context, actor model.Actor, claimID int64, in VerifyInput) (*model.Claim, error) {
	var (
		claim *model.Claim
		to    string
	)
	now := s.now()

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.ApproveClaim(ctx, tx, claimID, actor.UserID, in.VerificationNotes, in.PickupScheduled, now)
		if err != nil {
			return apperr.Internal("approving claim", err)
		}
		if !ok {
			return conflict(ctx, tx, claimID, model.ClaimStatusPending)
		}

		claim, err = store.GetClaim(ctx, tx, claimID)
		if err != nil {
			return apperr.Internal("loading claim", err)
		}

		ok, err = store.TransitionFoundItemStatus(ctx, tx, claim.FoundItemID, model.ItemStatusApproved, model.ItemStatusClaimed)
		if err != nil {
			return apperr.Internal("updating found item", err)
		}
		if !ok {
			found, err := store.GetFoundItem(ctx, tx, claim.FoundItemID)
			if err != nil {
				return apperr.Internal("loading found item", err)
			}
			current := ""
			if found != nil {
				current = string(found.Status)
			}
			return apperr.Conflict(apperr.CodeClaimItemNotClaimable,
				"found item is no longer available", current, string(model.ItemStatusApproved))
		}

		siblings, err := store.RejectPendingSiblings(ctx, tx, claim.FoundItemID, claimID, actor.UserID, s.opts.AutoRejectReason, now)
		if err != nil {
			return apperr.Internal("rejecting other claims", err)
		}

		msg := fmt.Sprintf("Your claim for %q was approved.", claim.FoundItemTitle)
		if in.PickupScheduled != nil {
			msg += " Pickup: " + formatPickup(*in.PickupScheduled) + "."
		}
		if err := s.notifyUser(ctx, tx, claim.ClaimantUserID, model.NotifyClaimApproved, "Claim approved", msg, claimID); err != nil {
			return err
		}
		for _, sib := range siblings {
			err := s.notifyUser(ctx, tx, sib.ClaimantUserID, model.NotifyClaimRejected, "Claim rejected",
				fmt.Sprintf("Your claim for %q was rejected: %s.", claim.FoundItemTitle, s.opts.AutoRejectReason), sib.ClaimID)
			if err != nil {
				return err
			}
		}

		details := fmt.Sprintf("auto_rejected=%d", len(siblings))
		if err := s.logActivity(ctx, tx, actor, store.ActionClaimApproved, claimID, details); err != nil {
			return err
		}

		if to, err = recipient(ctx, tx, claim.ClaimantUserID); err != nil {
			return err
		}
		claim, err = s.load(ctx, tx, claimID)
		return err
	})
	if err != nil {
		return nil, err
	}

	detail := ""
	if claim.PickupScheduled != nil {
		detail = "Pickup scheduled for " + formatPickup(*claim.PickupScheduled)
	}
	s.send(notify.Message{Kind: notify.KindClaimApproved, Recipient: to, ItemTitle: claim.FoundItemTitle, Detail: detail})

	slog.Info("claim approved", "claim", claimID, "found_item", claim.FoundItemID, "verifier", actor.Username)
	return claim, nil
}

func (s *Service) reject(ctx context.Context, actor model.Actor, claimID int64, in VerifyInput) (*model.Claim, error) {
	var (
		claim *model.Claim
		to    string
	)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.RejectClaim(ctx, tx, claimID, actor.UserID, in.VerificationNotes, in.RejectionReason, s.now())
		if err != nil {
			return apperr.Internal("rejecting claim", err)
		}
		if !ok {
			return conflict(ctx, tx, claimID, model.ClaimStatusPending)
		}

		claim, err = s.load(ctx, tx, claimID)
		if err != nil {
			return err
		}
		err = s.notifyUser(ctx, tx, claim.ClaimantUserID, model.NotifyClaimRejected, "Claim rejected",
			fmt.Sprintf("Your claim for %q was rejected: %s", claim.FoundItemTitle, in.RejectionReason), claimID)
		if err != nil {
			return err
		}
		if err := s.logActivity(ctx, tx, actor, store.ActionClaimRejected, claimID, in.RejectionReason); err != nil {
			return err
		}
		to, err = recipient(ctx, tx, claim.ClaimantUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(notify.Message{Kind: notify.KindClaimRejected, Recipient: to, ItemTitle: claim.FoundItemTitle, Detail: in.RejectionReason})

	slog.Info("claim rejected", "claim", claimID, "verifier", actor.Username)
	return claim, nil
}

// Schedule sets or moves the pickup time of an approved claim.
func (s *Service) Schedule(ctx context.Context, actor model.Actor, claimID int64, when time.Time) (*model.Claim, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if when.IsZero() {
		return nil, apperr.Validation("pickup_scheduled is required")
	}

	var (
		claim *model.Claim
		to    string
	)
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.SchedulePickup(ctx, tx, claimID, when)
		if err != nil {
			return apperr.Internal("scheduling pickup", err)
		}
		if !ok {
			return conflict(ctx, tx, claimID, model.ClaimStatusApproved)
		}

		claim, err = s.load(ctx, tx, claimID)
		if err != nil {
			return err
		}
		err = s.notifyUser(ctx, tx, claim.ClaimantUserID, model.NotifyPickupScheduled, "Pickup scheduled",
			fmt.Sprintf("Pickup for %q is scheduled for %s.", claim.FoundItemTitle, formatPickup(when)), claimID)
		if err != nil {
			return err
		}
		if err := s.logActivity(ctx, tx, actor, store.ActionClaimScheduled, claimID, formatPickup(when)); err != nil {
			return err
		}
		to, err = recipient(ctx, tx, claim.ClaimantUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.send(notify.Message{Kind: notify.KindPickupScheduled, Recipient: to, ItemTitle: claim.FoundItemTitle, Detail: formatPickup(when)})
	return claim, nil
}

// RecordPickup completes an approved claim and resolves its found item.
func (s *Service) RecordPickup(ctx context.Context, actor model.Actor, claimID int64, in PickupInput) (*model.Claim, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	in.PickedUpByName = strings.TrimSpace(in.PickedUpByName)
	if in.PickedUpByName == "" {
		return nil, apperr.Validation("picked_up_by_name is required")
	}

	var claim *model.Claim
	now := s.now()

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.CompletePickup(ctx, tx, claimID, in.PickedUpByName, strings.TrimSpace(in.IDPresented), now)
		if err != nil {
			return apperr.Internal("recording pickup", err)
		}
		if !ok {
			return conflict(ctx, tx, claimID, model.ClaimStatusApproved)
		}

		claim, err = s.load(ctx, tx, claimID)
		if err != nil {
			return err
		}

		notes := in.ResolutionNotes
		if notes == "" {
			notes = fmt.Sprintf("Picked up by %s (claim #%d)", in.PickedUpByName, claimID)
		}
		ok, err = store.ResolveFoundItem(ctx, tx, claim.FoundItemID, actor.UserID, notes, now)
		if err != nil {
			return apperr.Internal("resolving found item", err)
		}
		if !ok {
			found, err := store.GetFoundItem(ctx, tx, claim.FoundItemID)
			if err != nil {
				return apperr.Internal("loading found item", err)
			}
			current := ""
			if found != nil {
				current = string(found.Status)
			}
			return apperr.Conflict(apperr.CodeItemInvalidTransition,
				"found item is not in the claimed state", current, string(model.ItemStatusClaimed))
		}

		err = s.notifyUser(ctx, tx, claim.ClaimantUserID, model.NotifyPickupCompleted, "Item picked up",
			fmt.Sprintf("%q was handed over to %s.", claim.FoundItemTitle, in.PickedUpByName), claimID)
		if err != nil {
			return err
		}
		return s.logActivity(ctx, tx, actor, store.ActionClaimCompleted, claimID, in.PickedUpByName)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim completed", "claim", claimID, "found_item", claim.FoundItemID, "staff", actor.Username)
	return claim, nil
}

// Cancel withdraws the actor's own pending claim.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, claimID int64) (*model.Claim, error) {
	var claim *model.Claim
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := store.CancelClaim(ctx, tx, claimID, actor.UserID)
		if err != nil {
			return apperr.Internal("cancelling claim", err)
		}
		if !ok {
			c, err := store.GetClaim(ctx, tx, claimID)
			if err != nil {
				return apperr.Internal("loading claim", err)
			}
			if c == nil {
				return apperr.NotFound("claim", claimID)
			}
			if c.ClaimantUserID != actor.UserID {
				return apperr.Forbidden("only the claimant can cancel this claim")
			}
			return conflict(ctx, tx, claimID, model.ClaimStatusPending)
		}

		if err := s.logActivity(ctx, tx, actor, store.ActionClaimCancelled, claimID, ""); err != nil {
			return err
		}
		claim, err = s.load(ctx, tx, claimID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}
