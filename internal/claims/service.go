// Package claims runs the claim adjudication workflow: submission with proof
// images, staff verification, pickup scheduling and handover.
package claims

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/campusfound/internal/apperr"
	"github.com/erazemk/campusfound/internal/model"
	"github.com/erazemk/campusfound/internal/notify"
	"github.com/erazemk/campusfound/internal/storage"
	"github.com/erazemk/campusfound/internal/store"
)

// DefaultAutoRejectReason is recorded on pending claims rejected because
// another claim on the same item was approved.
const DefaultAutoRejectReason = "Item was claimed by another user"

// Options configures a Service.
type Options struct {
	MinDescriptionLength int
	MaxImages            int
	AutoRejectReason     string
}

// DefaultOptions returns the stock workflow settings.
func DefaultOptions() Options {
	return Options{
		MinDescriptionLength: 20,
		MaxImages:            5,
		AutoRejectReason:     DefaultAutoRejectReason,
	}
}

// ImageStore places and removes claim proof images.
type ImageStore interface {
	PlaceClaimImage(claimID int64, staged *storage.Staged) (*model.ClaimImage, bool, error)
	DeleteFile(rel string) error
	DeleteClaimDir(claimID int64) error
	DiscardStaged(files []*storage.Staged)
}

// Mailer accepts outbound email for asynchronous delivery.
type Mailer interface {
	Enqueue(msg notify.Message) bool
}

// Service implements the claim workflow.
type Service struct {
	db    *sql.DB
	files ImageStore
	mail  Mailer
	opts  Options
	now   func() time.Time
}

// NewService returns a claim Service.
func NewService(database *sql.DB, files ImageStore, mail Mailer, opts Options) *Service {
	def := DefaultOptions()
	if opts.MinDescriptionLength <= 0 {
		opts.MinDescriptionLength = def.MinDescriptionLength
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = def.MaxImages
	}
	if opts.AutoRejectReason == "" {
		opts.AutoRejectReason = def.AutoRejectReason
	}
	return &Service{db: database, files: files, mail: mail, opts: opts, now: time.Now}
}

// conflict re-reads a claim after a conditional write matched no rows and
// reports why.
func conflict(ctx context.Context, q store.Querier, id int64, required model.ClaimStatus) error {
	c, err := store.GetClaim(ctx, q, id)
	if err != nil {
		return apperr.Internal("loading claim", err)
	}
	if c == nil {
		return apperr.NotFound("claim", id)
	}
	if required == model.ClaimStatusApproved && c.Status == model.ClaimStatusApproved && c.PickedUpAt != nil {
		return apperr.Conflict(apperr.CodeClaimAlreadyPickedUp, "claim has already been picked up",
			string(c.Status), string(required))
	}
	return apperr.Conflict(apperr.CodeClaimInvalidTransition,
		fmt.Sprintf("claim is %s, expected %s", c.Status, required),
		string(c.Status), string(required))
}

func (s *Service) notifyUser(ctx context.Context, q store.Querier, userID int64, kind, title, message string, claimID int64) error {
	ref := claimID
	err := store.InsertNotification(ctx, q, model.Notification{
		UserID:  userID,
		Kind:    kind,
		Title:   title,
		Message: message,
		RefType: "claim",
		RefID:   &ref,
	})
	if err != nil {
		return apperr.Internal("inserting notification", err)
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, q store.Querier, actor model.Actor, action string, claimID int64, details string) error {
	if err := store.LogActivity(ctx, q, actor.UserID, action, "claim", claimID, details); err != nil {
		return apperr.Internal("logging activity", err)
	}
	return nil
}

// recipient returns the address mail for userID is sent to.
func recipient(ctx context.Context, q store.Querier, userID int64) (string, error) {
	u, err := store.GetUser(ctx, q, userID)
	if err != nil {
		return "", apperr.Internal("loading claimant", err)
	}
	if u == nil {
		return "", nil
	}
	if u.Email != "" {
		return u.Email, nil
	}
	return u.Username, nil
}

// send hands msg to the mail queue. Delivery problems never reach the
// caller.
func (s *Service) send(msg notify.Message) {
	if s.mail == nil || msg.Recipient == "" {
		return
	}
	s.mail.Enqueue(msg)
}

func requireStaff(actor model.Actor) error {
	if !actor.IsStaff() {
		return apperr.Forbidden("only admin or security staff can do this")
	}
	return nil
}

func formatPickup(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 UTC")
}
