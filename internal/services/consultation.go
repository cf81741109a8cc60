package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jyotisetu/astroconnect-backend/internal/models"
	"github.com/jyotisetu/astroconnect-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrAstrologerUnavailable  = errors.New("astrologer is not available")
	ErrInvalidStateTransition = errors.New("invalid state transition")
)

// ConsultationStatus is the advisory client-side guard state for one
// (user, astrologer) pair. The server remains the authority; a client that
// disagrees with it must take the server's answer.
type ConsultationStatus struct {
	CanRequest      bool   `json:"canRequest"`
	HasPending      bool   `json:"hasPending"`
	HasActive       bool   `json:"hasActive"`
	ActiveRequestID string `json:"activeRequestId,omitempty"`
}

type ConsultationService struct {
	db  *gorm.DB
	ttl time.Duration

	// now is swappable so expiry behavior is testable without sleeping.
	now func() time.Time
}

func NewConsultationService(db *gorm.DB) *ConsultationService {
	return &ConsultationService{
		db:  db,
		ttl: models.ConsultationTTL,
		now: time.Now,
	}
}

// SetTTL overrides the pending-request lifetime. Non-positive values are
// ignored and the default stays.
func (s *ConsultationService) SetTTL(d time.Duration) {
	if d > 0 {
		s.ttl = d
	}
}

// Create opens a new Pending request from userID to astrologerID.
// The one-pending-per-pair invariant is enforced here, inside a transaction:
// any Pending or Accepted request for the pair blocks a new one.
func (s *ConsultationService) Create(ctx context.Context, userID, astrologerID, message string) (*models.ConsultationRequest, error) {
	if userID == "" || astrologerID == "" {
		return nil, ErrInvalidInput
	}
	if userID == astrologerID {
		return nil, ErrInvalidInput
	}

	var astrologer models.User
	if err := s.db.WithContext(ctx).First(&astrologer, "id = ?", astrologerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if astrologer.Role != models.RoleAstrologer {
		return nil, ErrInvalidInput
	}
	if !astrologer.IsAvailable {
		return nil, ErrAstrologerUnavailable
	}

	now := s.now()
	request := &models.ConsultationRequest{
		UserID:       userID,
		AstrologerID: astrologerID,
		Message:      strings.TrimSpace(message),
		State:        models.ConsultationPending,
		RequestedAt:  now,
		ExpiresAt:    now.Add(s.ttl),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.ConsultationRequest{}).
			Where("user_id = ? AND astrologer_id = ? AND state IN ?",
				userID, astrologerID,
				[]models.ConsultationState{models.ConsultationPending, models.ConsultationAccepted}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrConflict
		}
		return tx.Create(request).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").Preload("Astrologer").
		First(request, "id = ?", request.ID).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// Accept transitions Pending -> Accepted. Only the target astrologer may
// accept, and only while the request is still Pending and unexpired.
func (s *ConsultationService) Accept(ctx context.Context, requestID, actorID string) (*models.ConsultationRequest, error) {
	return s.resolve(ctx, requestID, actorID, models.ConsultationAccepted, "")
}

// Decline transitions Pending -> Declined with an optional reason.
func (s *ConsultationService) Decline(ctx context.Context, requestID, actorID, reason string) (*models.ConsultationRequest, error) {
	return s.resolve(ctx, requestID, actorID, models.ConsultationDeclined, reason)
}

// Cancel transitions Pending -> Cancelled. Only the requester may cancel.
func (s *ConsultationService) Cancel(ctx context.Context, requestID, actorID string) (*models.ConsultationRequest, error) {
	return s.resolve(ctx, requestID, actorID, models.ConsultationCancelled, "")
}

// Complete transitions Accepted -> Completed. Either party may end the
// consultation.
func (s *ConsultationService) Complete(ctx context.Context, requestID, actorID string) (*models.ConsultationRequest, error) {
	return s.resolve(ctx, requestID, actorID, models.ConsultationCompleted, "")
}

// resolve applies a single state transition with role enforcement. The row is
// re-read inside the transaction so two racing resolutions cannot both win.
func (s *ConsultationService) resolve(ctx context.Context, requestID, actorID string, target models.ConsultationState, reason string) (*models.ConsultationRequest, error) {
	if requestID == "" || actorID == "" {
		return nil, ErrInvalidInput
	}

	var request models.ConsultationRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").Preload("Astrologer").
			First(&request, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		switch target {
		case models.ConsultationAccepted, models.ConsultationDeclined:
			if request.AstrologerID != actorID {
				return ErrForbidden
			}
		case models.ConsultationCancelled:
			if request.UserID != actorID {
				return ErrForbidden
			}
		case models.ConsultationCompleted:
			if request.UserID != actorID && request.AstrologerID != actorID {
				return ErrForbidden
			}
		default:
			return ErrInvalidStateTransition
		}

		// A pending request past its TTL is already expired, whether or
		// not the sweeper has flipped the row yet.
		if request.State == models.ConsultationPending && s.now().After(request.ExpiresAt) {
			request.State = models.ConsultationExpired
			now := s.now()
			request.ResolvedAt = &now
			if err := tx.Model(&models.ConsultationRequest{}).
				Where("id = ?", request.ID).
				Updates(map[string]interface{}{"state": request.State, "resolved_at": now}).Error; err != nil {
				return err
			}
			return ErrConflict
		}

		if !request.State.CanTransition(target) {
			return ErrConflict
		}

		now := s.now()
		updates := map[string]interface{}{
			"state":       target,
			"resolved_at": now,
		}
		if reason != "" {
			updates["reason"] = reason
		}
		if target == models.ConsultationCompleted {
			updates["completed_by"] = actorID
		}
		if err := tx.Model(&models.ConsultationRequest{}).
			Where("id = ?", request.ID).Updates(updates).Error; err != nil {
			return err
		}

		request.State = target
		request.ResolvedAt = &now
		request.Reason = reason
		if target == models.ConsultationCompleted {
			request.CompletedBy = actorID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// StatusFor answers the status-check REST call the client treats as
// authoritative before issuing consultation:request.
func (s *ConsultationService) StatusFor(ctx context.Context, userID, astrologerID string) (*ConsultationStatus, error) {
	if userID == "" || astrologerID == "" {
		return nil, ErrInvalidInput
	}

	var open []models.ConsultationRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND astrologer_id = ? AND state IN ?",
			userID, astrologerID,
			[]models.ConsultationState{models.ConsultationPending, models.ConsultationAccepted}).
		Find(&open).Error
	if err != nil {
		return nil, err
	}

	status := &ConsultationStatus{CanRequest: true}
	now := s.now()
	for _, r := range open {
		switch r.State {
		case models.ConsultationPending:
			// Past-TTL rows count as expired even before the sweep.
			if now.After(r.ExpiresAt) {
				continue
			}
			status.HasPending = true
			status.CanRequest = false
			status.ActiveRequestID = r.ID
		case models.ConsultationAccepted:
			status.HasActive = true
			status.CanRequest = false
			status.ActiveRequestID = r.ID
		}
	}
	return status, nil
}

// History returns the caller's requests, newest first.
func (s *ConsultationService) History(ctx context.Context, userID string, limit int) ([]models.ConsultationRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var requests []models.ConsultationRequest
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Astrologer").
		Where("user_id = ? OR astrologer_id = ?", userID, userID).
		Order("created_at desc").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// ExpireOverdue flips every Pending request past its TTL to Expired and
// returns the affected requests so the caller can notify both parties.
func (s *ConsultationService) ExpireOverdue(ctx context.Context) ([]models.ConsultationRequest, error) {
	now := s.now()

	var overdue []models.ConsultationRequest
	if err := s.db.WithContext(ctx).
		Preload("User").Preload("Astrologer").
		Where("state = ? AND expires_at < ?", models.ConsultationPending, now).
		Find(&overdue).Error; err != nil {
		return nil, err
	}
	if len(overdue) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(overdue))
	for _, r := range overdue {
		ids = append(ids, r.ID)
	}

	// state guard repeated so a concurrent accept/decline isn't clobbered
	err := s.db.WithContext(ctx).Model(&models.ConsultationRequest{}).
		Where("id IN ? AND state = ?", ids, models.ConsultationPending).
		Updates(map[string]interface{}{"state": models.ConsultationExpired, "resolved_at": now}).Error
	if err != nil {
		return nil, err
	}

	for i := range overdue {
		overdue[i].State = models.ConsultationExpired
		overdue[i].ResolvedAt = &now
	}
	return overdue, nil
}

// StartExpirySweeper runs ExpireOverdue on a single shared ticker until ctx
// is cancelled. One clock for the whole process, not one timer per request.
func (s *ConsultationService) StartExpirySweeper(ctx context.Context, interval time.Duration, onExpired func(models.ConsultationRequest)) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired, err := s.ExpireOverdue(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("consultation expiry sweep failed")
					continue
				}
				for _, r := range expired {
					logger.Info().
						Str("request_id", r.ID).
						Str("user_id", r.UserID).
						Str("astrologer_id", r.AstrologerID).
						Msg("consultation request expired")
					if onExpired != nil {
						onExpired(r)
					}
				}
			}
		}
	}()
}
