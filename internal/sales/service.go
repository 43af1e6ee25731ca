package sales

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/pagination"
)

// Notifier sends the informational emails tied to lifecycle transitions.
// Implementations are best effort and never fail the transition.
type Notifier interface {
	SaleStarted(ctx context.Context, rec *Record)
	EstimationSent(ctx context.Context, rec *Record)
	ClientFound(ctx context.Context, rec *Record)
}

// Service runs the sale lifecycle state machine.
type Service interface {
	Estimation(ctx context.Context, id uuid.UUID) (*Record, error)
	Accept(ctx context.Context, id uuid.UUID, input AcceptInput) (*AcceptResult, error)
	StartSale(ctx context.Context, id uuid.UUID, input StartSaleInput) (*AcceptResult, error)
	Decline(ctx context.Context, id uuid.UUID) (*Record, error)
	Dashboard(ctx context.Context, id uuid.UUID) (*Record, error)
	SubmitReview(ctx context.Context, id uuid.UUID) (*Record, error)

	Create(ctx context.Context, input CreateInput) (*Record, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Search(ctx context.Context, q string) ([]Record, error)
	SetEstimation(ctx context.Context, id uuid.UUID, input EstimationInput) (*Record, error)
	ReviewPhotos(ctx context.Context, id uuid.UUID, input ReviewInput) (*Record, error)
	MarkClientFound(ctx context.Context, id uuid.UUID) (*Record, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Record, error)
}

type service struct {
	repo     Repository
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the lifecycle engine. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sales repository required")
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Estimation(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.load(ctx, id)
}

func (s *service) Accept(ctx context.Context, id uuid.UUID, input AcceptInput) (*AcceptResult, error) {
	rec, err := s.loadForAcceptance(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.AlreadyStarted() {
		return alreadyStarted(rec), nil
	}

	now := s.now()
	s.markAccepted(rec, now)
	if input.FirstName != "" || input.LastName != "" || input.Phone != "" {
		rec.SetSaleInfo(SaleInfo{
			FirstName:  strings.TrimSpace(input.FirstName),
			LastName:   strings.TrimSpace(input.LastName),
			Phone:      strings.TrimSpace(input.Phone),
			AcceptedAt: &now,
		})
	}
	if err := s.save(ctx, rec, "accept estimation"); err != nil {
		return nil, err
	}
	return &AcceptResult{Outcome: OutcomeAccepted, Record: rec}, nil
}

func (s *service) StartSale(ctx context.Context, id uuid.UUID, input StartSaleInput) (*AcceptResult, error) {
	rec, err := s.loadForAcceptance(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.AlreadyStarted() {
		return alreadyStarted(rec), nil
	}

	now := s.now()
	s.markAccepted(rec, now)
	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = defaultCountry
	}
	email := NormalizeEmail(input.Email)
	rec.SetSaleInfo(SaleInfo{
		FullName:     strings.TrimSpace(input.FullName),
		Email:        strings.TrimSpace(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		AddressLine1: strings.TrimSpace(input.AddressLine1),
		AddressLine2: strings.TrimSpace(input.AddressLine2),
		PostalCode:   strings.TrimSpace(input.PostalCode),
		City:         strings.TrimSpace(input.City),
		Country:      country,
		StartedAt:    &now,
	})
	if email != "" && email != NormalizeEmail(rec.Email) {
		s.logg.Info(s.logg.WithRecordID(ctx, rec.ID.String()), "sale contact email corrected")
		rec.Email = email
	}
	if err := s.save(ctx, rec, "start sale"); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SaleStarted(ctx, rec)
	}
	return &AcceptResult{Outcome: OutcomeAccepted, Record: rec}, nil
}

func (s *service) Decline(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.loadForAcceptance(ctx, id)
	if err != nil {
		return nil, err
	}
	est := rec.AdminEstimation
	if est.ClientResponse == enums.ClientResponseDeclined {
		return rec, nil
	}
	if rec.AlreadyStarted() || est.ClientResponse == enums.ClientResponseAccepted {
		return nil, stateConflict(string(est.ClientResponse), string(enums.ClientResponseDeclined))
	}

	now := s.now()
	est.ClientResponse = enums.ClientResponseDeclined
	est.ResponseAt = &now
	rec.Status = enums.EstimationStatusCompleted
	if err := s.save(ctx, rec, "decline estimation"); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) Dashboard(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.ProcedureStarted() {
		return nil, pkgerrors.New(pkgerrors.CodeProcedureNotStarted, "sale procedure not started")
	}
	return rec, nil
}

func (s *service) SubmitReview(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.AcceptsPhotos() && rec.SaleStatus != enums.SaleStatusUnderReview {
		if !rec.ProcedureStarted() {
			return nil, pkgerrors.New(pkgerrors.CodeProcedureNotStarted, "sale procedure not started")
		}
		return nil, stateConflict(rec.SaleStatus.String(), enums.SaleStatusUnderReview.String())
	}

	interior, exterior := rec.PhotoCounts()
	if interior == 0 || exterior == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeIncompletePhotos, "interior and exterior photos are required").
			WithDetails(PhotoCounts{InteriorCount: interior, ExteriorCount: exterior})
	}

	rec.SaleStatus = enums.SaleStatusUnderReview
	rec.Photos.ReviewStatus = enums.ReviewStatusPending
	if err := s.save(ctx, rec, "submit photos for review"); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Record, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	rec := NewRecord(email)
	rec.Vehicle = input.Vehicle
	rec.Notes = strings.TrimSpace(input.Notes)
	if input.Status != "" {
		if !intakeStatus(input.Status) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be an intake step").
				WithDetails(map[string]string{"status": input.Status.String()})
		}
		rec.Status = input.Status
	}
	for k, v := range input.AdditionalInfo {
		rec.AdditionalInfo[k] = v
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, pkgerrors.Internal(err, "create sale record")
	}
	return rec, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	filter := ListFilter{SaleStatus: params.SaleStatus, Status: params.Status, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		filter.Cursor = cursor
	}

	records, next, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Internal(err, "list sale records")
	}
	result := &ListResult{Items: records}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Search(ctx context.Context, q string) ([]Record, error) {
	query, err := ParseSearch(q)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Internal(err, "search sale records")
	}
	return records, nil
}

func (s *service) SetEstimation(ctx context.Context, id uuid.UUID, input EstimationInput) (*Record, error) {
	if !input.FinalPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "final price must be greater than zero")
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.SaleStatus != enums.SaleStatusNotStarted {
		return nil, stateConflict(rec.SaleStatus.String(), enums.EstimationStatusSent.String())
	}

	now := s.now()
	validUntil := now.Add(OfferValidity)
	if input.ValidUntil != nil {
		if !input.ValidUntil.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validUntil must be in the future")
		}
		validUntil = input.ValidUntil.UTC()
	}
	rec.AdminEstimation = &AdminEstimation{
		FinalPrice:     input.FinalPrice,
		Message:        strings.TrimSpace(input.Message),
		Conditions:     strings.TrimSpace(input.Conditions),
		SentAt:         &now,
		ClientResponse: enums.ClientResponsePending,
		ValidUntil:     &validUntil,
	}
	rec.Status = enums.EstimationStatusSent
	if err := s.save(ctx, rec, "set admin estimation"); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.EstimationSent(ctx, rec)
	}
	return rec, nil
}

func (s *service) ReviewPhotos(ctx context.Context, id uuid.UUID, input ReviewInput) (*Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var target enums.SaleStatus
	switch input.Decision {
	case ReviewApprove:
		target = enums.SaleStatusApproved
	case ReviewReject:
		target = enums.SaleStatusInProgress
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be approve or reject")
	}
	if rec.SaleStatus != enums.SaleStatusUnderReview {
		return nil, stateConflict(rec.SaleStatus.String(), target.String())
	}

	now := s.now()
	rec.SaleStatus = target
	rec.Photos.ReviewedAt = &now
	rec.Photos.ReviewNotes = strings.TrimSpace(input.Notes)
	if input.Decision == ReviewApprove {
		rec.Photos.ReviewStatus = enums.ReviewStatusApproved
	} else {
		rec.Photos.ReviewStatus = enums.ReviewStatusRejected
	}
	if err := s.save(ctx, rec, "review photos"); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) MarkClientFound(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.SaleStatus != enums.SaleStatusApproved {
		return nil, stateConflict(rec.SaleStatus.String(), enums.SaleStatusCompleted.String())
	}

	rec.SaleStatus = enums.SaleStatusCompleted
	if err := s.save(ctx, rec, "mark client found"); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.ClientFound(ctx, rec)
	}
	return rec, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch rec.SaleStatus {
	case enums.SaleStatusCancelled:
		return rec, nil
	case enums.SaleStatusPaid:
		return nil, stateConflict(rec.SaleStatus.String(), enums.SaleStatusCancelled.String())
	}

	if err := s.repo.CancelSale(ctx, rec.ID); err != nil {
		if errors.Is(err, ErrPaid) {
			return nil, stateConflict(enums.SaleStatusPaid.String(), enums.SaleStatusCancelled.String())
		}
		return nil, StoreError(err, "cancel sale")
	}
	rec.SaleStatus = enums.SaleStatusCancelled
	return rec, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, StoreError(err, "load sale record")
	}
	rec.Refresh(s.now())
	return rec, nil
}

// loadForAcceptance loads a record the seller can answer: an estimation has been issued
// and the sale has not been cancelled. Expired offers remain acceptable.
func (s *service) loadForAcceptance(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.AdminEstimation == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotReady, "no final estimation available").
			WithDetails(map[string]string{"reason": "estimation_missing"})
	}
	if rec.SaleStatus == enums.SaleStatusCancelled {
		return nil, stateConflict(rec.SaleStatus.String(), enums.SaleStatusInProgress.String())
	}
	return rec, nil
}

func (s *service) markAccepted(rec *Record, now time.Time) {
	rec.AdminEstimation.ClientResponse = enums.ClientResponseAccepted
	rec.AdminEstimation.ResponseAt = &now
	rec.Status = enums.EstimationStatusAccepted
	rec.SaleStatus = enums.SaleStatusInProgress
}

func (s *service) save(ctx context.Context, rec *Record, action string) error {
	if err := s.repo.Save(ctx, rec); err != nil {
		if errors.Is(err, ErrPaid) {
			return stateConflict(enums.SaleStatusPaid.String(), rec.SaleStatus.String())
		}
		return StoreError(err, action)
	}
	return nil
}

func alreadyStarted(rec *Record) *AcceptResult {
	return &AcceptResult{
		Outcome:    OutcomeAlreadyStarted,
		RedirectTo: AuthPath(rec.ID),
		Record:     rec,
	}
}

// AuthPath is where a seller proves ownership once the sale has started.
func AuthPath(id uuid.UUID) string {
	return "/auth/" + id.String()
}

// StoreError maps repository failures onto the public taxonomy.
func StoreError(err error, action string) error {
	if errors.Is(err, ErrNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "estimation not found")
	}
	return pkgerrors.Internal(err, action)
}

func stateConflict(from, to string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
		WithDetails(StateTransition{From: from, To: to})
}

func intakeStatus(status enums.EstimationStatus) bool {
	switch status {
	case enums.EstimationStatusStep1,
		enums.EstimationStatusStep2,
		enums.EstimationStatusStep3,
		enums.EstimationStatusPending,
		enums.EstimationStatusAnalyzed:
		return true
	}
	return false
}
