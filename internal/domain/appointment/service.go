package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichq/clinic-api/internal/domain/activity"
)

var (
	// ErrNotFound is returned when no appointment exists for the given id.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidTransition is returned when a status change is not allowed
	// from the appointment's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IntakePrompter is offered the chance to run the patient intake workflow
// when an appointment is checked in. The prompt must be offered exactly once
// per check-in and must not block the check-in itself, so errors from the
// prompter are swallowed.
type IntakePrompter interface {
	PromptIntake(ctx context.Context, appointmentID uuid.UUID, patientID *uuid.UUID)
}

// IntakePrompterFunc is a function adapter for IntakePrompter.
type IntakePrompterFunc func(ctx context.Context, appointmentID uuid.UUID, patientID *uuid.UUID)

func (f IntakePrompterFunc) PromptIntake(ctx context.Context, appointmentID uuid.UUID, patientID *uuid.UUID) {
	f(ctx, appointmentID, patientID)
}

type Service struct {
	repo     Repository
	recorder activity.Recorder
	intake   IntakePrompter
}

func NewService(repo Repository, recorder activity.Recorder, intake IntakePrompter) *Service {
	return &Service{repo: repo, recorder: recorder, intake: intake}
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.ServiceID == uuid.Nil {
		return fmt.Errorf("service_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("15:04", a.Time); err != nil {
		return fmt.Errorf("time must be HH:MM: %q", a.Time)
	}
	if a.Duration < 1 {
		return fmt.Errorf("duration_minutes must be at least 1")
	}

	a.Status = StatusScheduled
	a.PaymentStatus = PaymentPending
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}
	s.record(ctx, activity.TypeAppointmentCreated,
		fmt.Sprintf("Appointment created for %s", a.FormattedDate()), a.ID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Update edits schedule details. Status and payment fields are never touched
// here; those move only through the transition methods and the payment
// service.
func (s *Service) Update(ctx context.Context, a *Appointment) error {
	stored, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if stored.Status == StatusCanceled {
		return fmt.Errorf("%w: cannot edit a canceled appointment", ErrInvalidTransition)
	}
	if a.Time != "" {
		if _, err := time.Parse("15:04", a.Time); err != nil {
			return fmt.Errorf("time must be HH:MM: %q", a.Time)
		}
	} else {
		a.Time = stored.Time
	}
	if a.Date.IsZero() {
		a.Date = stored.Date
	}
	if a.Duration == 0 {
		a.Duration = stored.Duration
	}
	if a.ServiceID == uuid.Nil {
		a.ServiceID = stored.ServiceID
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return err
	}
	s.record(ctx, activity.TypeAppointmentUpdated,
		fmt.Sprintf("Appointment updated for %s", a.FormattedDate()), a.ID)
	return nil
}

// CheckIn moves a scheduled appointment to checked-in and offers the intake
// workflow once. The prompt never blocks the transition.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: check-in requires scheduled, appointment is %s", ErrInvalidTransition, a.Status)
	}
	if err := s.repo.SetStatus(ctx, id, StatusCheckedIn); err != nil {
		return nil, err
	}
	a.Status = StatusCheckedIn

	if s.intake != nil {
		s.intake.PromptIntake(ctx, a.ID, a.PatientID)
	}
	s.record(ctx, activity.TypeAppointmentUpdated,
		fmt.Sprintf("Appointment checked in for %s", a.FormattedDate()), a.ID)
	return a, nil
}

// Complete moves a checked-in appointment to complete. Scheduled appointments
// must be checked in first.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusCheckedIn {
		return nil, fmt.Errorf("%w: completion requires checked-in, appointment is %s", ErrInvalidTransition, a.Status)
	}
	if err := s.repo.SetStatus(ctx, id, StatusComplete); err != nil {
		return nil, err
	}
	a.Status = StatusComplete
	s.record(ctx, activity.TypeAppointmentUpdated,
		fmt.Sprintf("Appointment completed for %s", a.FormattedDate()), a.ID)
	return a, nil
}

// Cancel moves any non-terminal appointment to canceled. Cancelling an
// already-canceled appointment is a no-op returning the stored record.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case StatusCanceled:
		return a, nil
	case StatusComplete:
		return nil, fmt.Errorf("%w: cannot cancel a completed appointment", ErrInvalidTransition)
	}
	if err := s.repo.SetStatus(ctx, id, StatusCanceled); err != nil {
		return nil, err
	}
	a.Status = StatusCanceled
	s.record(ctx, activity.TypeAppointmentCanceled,
		fmt.Sprintf("Appointment canceled for %s", a.FormattedDate()), a.ID)
	return a, nil
}

func (s *Service) ListByDate(ctx context.Context, date time.Time, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByDate(ctx, date, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// record writes the audit entry for a status mutation. Activity failures do
// not fail the mutation itself.
func (s *Service) record(ctx context.Context, typ, description string, id uuid.UUID) {
	if s.recorder == nil {
		return
	}
	_ = s.recorder.Record(ctx, typ, description, &id)
}
