package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/campusfound/internal/model"
)

// NewClaim holds the claimant-supplied fields of a claim.
type NewClaim struct {
	FoundItemID    int64
	ClaimantUserID int64
	Description    string
	ProofDetails   string
}

// ClaimFilter narrows ListClaims. A zero ClaimantUserID lists every claimant.
type ClaimFilter struct {
	ClaimantUserID int64
	Status         model.ClaimStatus
	Limit          int
	Offset         int
}

// SiblingRejection identifies a pending claim rejected because another claim
// on the same item was approved.
type SiblingRejection struct {
	ClaimID        int64
	ClaimantUserID int64
}

const claimSelect = `SELECT c.id, c.found_item_id, c.claimant_user_id, c.description, c.proof_details,
	        c.status, c.verified_by, c.verified_at, c.verification_notes, c.rejection_reason,
	        c.pickup_scheduled, c.picked_up_at, c.picked_up_by_name, c.id_presented,
	        c.created_at, c.updated_at,
	        f.title AS found_item_title, u.username AS claimant_username
	 FROM claims c
	 JOIN found_items f ON f.id = c.found_item_id
	 JOIN users u ON u.id = c.claimant_user_id`

func scanClaim(row interface{ Scan(...any) error }) (*model.Claim, error) {
	c := &model.Claim{}
	err := row.Scan(&c.ID, &c.FoundItemID, &c.ClaimantUserID, &c.Description, &c.ProofDetails,
		&c.Status, &c.VerifiedBy, &c.VerifiedAt, &c.VerificationNotes, &c.RejectionReason,
		&c.PickupScheduled, &c.PickedUpAt, &c.PickedUpByName, &c.IDPresented,
		&c.CreatedAt, &c.UpdatedAt,
		&c.FoundItemTitle, &c.ClaimantUsername)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// InsertClaim inserts a pending claim and returns its ID.
func InsertClaim(ctx context.Context, q Querier, in NewClaim) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO claims (found_item_id, claimant_user_id, description, proof_details)
		 VALUES (?, ?, ?, ?)`,
		in.FoundItemID, in.ClaimantUserID, in.Description, in.ProofDetails,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting claim: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting claim id: %w", err)
	}
	return id, nil
}

// GetClaim returns a claim by ID without its images.
func GetClaim(ctx context.Context, q Querier, id int64) (*model.Claim, error) {
	c, err := scanClaim(q.QueryRowContext(ctx, claimSelect+` WHERE c.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting claim: %w", err)
	}
	return c, nil
}

// HasPendingClaim reports whether the claimant already has a pending claim
// on the found item.
func HasPendingClaim(ctx context.Context, q Querier, foundItemID, claimantID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims
		 WHERE found_item_id = ? AND claimant_user_id = ? AND status = 'pending'`,
		foundItemID, claimantID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking pending claim: %w", err)
	}
	return n > 0, nil
}

// ListClaims returns one page of claims, newest first, and the total count
// matching the filter.
func ListClaims(ctx context.Context, q Querier, f ClaimFilter) ([]model.Claim, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.ClaimantUserID > 0 {
		where += ` AND c.claimant_user_id = ?`
		args = append(args, f.ClaimantUserID)
	}
	if f.Status != "" {
		where += ` AND c.status = ?`
		args = append(args, f.Status)
	}

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims c`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting claims: %w", err)
	}

	query := claimSelect + where + ` ORDER BY c.created_at DESC, c.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	claims, err := queryClaims(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

// ListClaimsForFoundItem returns every claim on a found item, oldest first.
func ListClaimsForFoundItem(ctx context.Context, q Querier, foundItemID int64) ([]model.Claim, error) {
	return queryClaims(ctx, q, claimSelect+` WHERE c.found_item_id = ? ORDER BY c.created_at, c.id`, foundItemID)
}

func queryClaims(ctx context.Context, q Querier, query string, args ...any) ([]model.Claim, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// ApproveClaim moves a pending claim to approved. It returns false when the
// claim is not pending at the time of the write.
func ApproveClaim(ctx context.Context, q Querier, id, verifierID int64, notes string, pickup *time.Time, at time.Time) (bool, error) {
	var scheduled *time.Time
	if pickup != nil {
		t := pickup.UTC()
		scheduled = &t
	}
	res, err := q.ExecContext(ctx,
		`UPDATE claims
		 SET status = 'approved', verified_by = ?, verified_at = ?, verification_notes = ?,
		     pickup_scheduled = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		verifierID, at.UTC(), notes, scheduled, id,
	)
	return conditional(res, err, "approving claim")
}

// RejectClaim moves a pending claim to rejected.
func RejectClaim(ctx context.Context, q Querier, id, verifierID int64, notes, reason string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE claims
		 SET status = 'rejected', verified_by = ?, verified_at = ?, verification_notes = ?,
		     rejection_reason = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending'`,
		verifierID, at.UTC(), notes, reason, id,
	)
	return conditional(res, err, "rejecting claim")
}

// RejectPendingSiblings rejects every other pending claim on the found item
// and returns the claims it touched.
func RejectPendingSiblings(ctx context.Context, q Querier, foundItemID, approvedClaimID, verifierID int64, reason string, at time.Time) ([]SiblingRejection, error) {
	rows, err := q.QueryContext(ctx,
		`UPDATE claims
		 SET status = 'rejected', verified_by = ?, verified_at = ?, rejection_reason = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE found_item_id = ? AND status = 'pending' AND id <> ?
		 RETURNING id, claimant_user_id`,
		verifierID, at.UTC(), reason, foundItemID, approvedClaimID,
	)
	if err != nil {
		return nil, fmt.Errorf("rejecting sibling claims: %w", err)
	}
	defer rows.Close()

	var rejected []SiblingRejection
	for rows.Next() {
		var s SiblingRejection
		if err := rows.Scan(&s.ClaimID, &s.ClaimantUserID); err != nil {
			return nil, fmt.Errorf("scanning sibling claim: %w", err)
		}
		rejected = append(rejected, s)
	}
	return rejected, rows.Err()
}

// SchedulePickup sets the pickup time on an approved claim that has not been
// picked up yet.
func SchedulePickup(ctx context.Context, q Querier, id int64, when time.Time) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE claims SET pickup_scheduled = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'approved' AND picked_up_at IS NULL`,
		when.UTC(), id,
	)
	return conditional(res, err, "scheduling pickup")
}

// CompletePickup records the handover of an approved claim.
func CompletePickup(ctx context.Context, q Querier, id int64, pickedUpBy, idPresented string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE claims
		 SET status = 'completed', picked_up_at = ?, picked_up_by_name = ?, id_presented = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'approved' AND picked_up_at IS NULL`,
		at.UTC(), pickedUpBy, idPresented, id,
	)
	return conditional(res, err, "recording pickup")
}

// CancelClaim cancels a pending claim owned by claimantID.
func CancelClaim(ctx context.Context, q Querier, id, claimantID int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE claims SET status = 'cancelled', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = 'pending' AND claimant_user_id = ?`,
		id, claimantID,
	)
	return conditional(res, err, "cancelling claim")
}

func conditional(res sql.Result, err error, op string) (bool, error) {
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := affected(res)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// InsertClaimImage records a stored proof image.
func InsertClaimImage(ctx context.Context, q Querier, img model.ClaimImage) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO claim_images (claim_id, path, mime, size_bytes, width, height)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		img.ClaimID, img.Path, img.MIME, img.SizeBytes, img.Width, img.Height,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting claim image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting claim image id: %w", err)
	}
	return id, nil
}

// ListClaimImages returns the proof images of a claim.
func ListClaimImages(ctx context.Context, q Querier, claimID int64) ([]model.ClaimImage, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, claim_id, path, mime, size_bytes, width, height, created_at
		 FROM claim_images WHERE claim_id = ? ORDER BY id`, claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing claim images: %w", err)
	}
	defer rows.Close()

	var images []model.ClaimImage
	for rows.Next() {
		var img model.ClaimImage
		if err := rows.Scan(&img.ID, &img.ClaimID, &img.Path, &img.MIME, &img.SizeBytes,
			&img.Width, &img.Height, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning claim image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
