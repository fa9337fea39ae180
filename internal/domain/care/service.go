package care

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-care-reminders/internal/domain/recurrence"
	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
	"pet-care-reminders/internal/platform/logger"
)

// Scheduler es la parte del módulo reminders que usa la reconciliación.
type Scheduler interface {
	Schedule(ctx context.Context, src reminders.Source, dates []caldate.Date) ([]reminders.Reminder, error)
	Reschedule(ctx context.Context, src reminders.Source, previousLabel string, dates []caldate.Date) ([]reminders.Reminder, error)
	Retract(ctx context.Context, src reminders.Source) (int, error)
	Owned(ctx context.Context, src reminders.Source) ([]reminders.Reminder, error)
}

type Service struct {
	repo  Repository
	sched Scheduler
	now   func() time.Time
	loc   *time.Location
	newID func() string
	log   logger.Logger
}

func NewService(repo Repository, sched Scheduler, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		sched: sched,
		now:   time.Now,
		loc:   time.Local,
		newID: uuid.NewString,
		log:   log.With(map[string]any{"module": "care"}),
	}
}

func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

type RecurrenceInput struct {
	Enabled  bool
	Unit     string // vacío => default por tipo
	Interval int
}

type Input struct {
	Label      string
	OccurredOn caldate.Date
	Notes      string
	Recurrence *RecurrenceInput
}

// Result es el evento más los recordatorios que quedaron agendados para él.
type Result struct {
	Event     CareEvent
	Reminders []reminders.Reminder
}

func (s *Service) today() caldate.Date {
	return caldate.Today(s.now(), s.loc)
}

// Create valida y calcula las fechas antes de escribir nada.
func (s *Service) Create(ctx context.Context, petID string, kind Kind, in Input) (Result, error) {
	e, err := s.build(kind, in)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(petID) == "" {
		return Result{}, apperr.Invalid("pet_id", "is required")
	}
	dates, err := s.dueDates(e)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	e.ID = s.newID()
	e.PetID = petID
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.repo.Create(ctx, e); err != nil {
		return Result{}, apperr.Persistence("create "+kind.Collection(), err)
	}

	scheduled, err := s.sched.Schedule(ctx, e.source(), dates)
	if err != nil {
		// Sin recordatorios el evento quedaría a medias: se deshace.
		if derr := s.repo.Delete(ctx, kind, e.ID); derr != nil {
			s.log.Error("rollback of care event failed", map[string]any{
				"event_id": e.ID,
				"kind":     string(kind),
				"err":      derr,
			})
		}
		return Result{}, err
	}

	return Result{Event: e, Reminders: scheduled}, nil
}

func (s *Service) Get(ctx context.Context, petID string, kind Kind, id string) (CareEvent, error) {
	if !kind.Valid() {
		return CareEvent{}, apperr.Invalid("kind", "must be vaccine or deworming")
	}
	if strings.TrimSpace(id) == "" {
		return CareEvent{}, apperr.ErrNotFound
	}
	e, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return CareEvent{}, apperr.Persistence("get "+kind.Collection(), err)
	}
	if e.PetID != petID {
		return CareEvent{}, apperr.ErrNotFound
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, petID string, kind Kind) ([]CareEvent, error) {
	if !kind.Valid() {
		return nil, apperr.Invalid("kind", "must be vaccine or deworming")
	}
	items, err := s.repo.ListByPet(ctx, kind, petID)
	if err != nil {
		return nil, apperr.Persistence("list "+kind.Collection(), err)
	}
	return items, nil
}

// Update reemplaza label/fecha/notas/recurrencia y reconcilia el cronograma.
// Los pendientes del evento se buscan también por el label anterior.
func (s *Service) Update(ctx context.Context, petID string, kind Kind, id string, in Input) (Result, error) {
	current, err := s.Get(ctx, petID, kind, id)
	if err != nil {
		return Result{}, err
	}
	next, err := s.build(kind, in)
	if err != nil {
		return Result{}, err
	}
	dates, err := s.dueDates(next)
	if err != nil {
		return Result{}, err
	}

	next.ID = current.ID
	next.PetID = current.PetID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, next); err != nil {
		return Result{}, apperr.Persistence("update "+kind.Collection(), err)
	}

	scheduled, err := s.sched.Reschedule(ctx, next.source(), current.Label, dates)
	if err != nil {
		// El cronograma no cambió: el evento vuelve a su versión anterior.
		if rerr := s.repo.Update(ctx, current); rerr != nil {
			s.log.Error("restore of care event failed", map[string]any{
				"event_id": current.ID,
				"kind":     string(kind),
				"err":      rerr,
			})
		}
		return Result{}, err
	}
	return Result{Event: next, Reminders: scheduled}, nil
}

// Reminders lista los recordatorios que posee el evento, completados incluidos.
func (s *Service) Reminders(ctx context.Context, petID string, kind Kind, id string) ([]reminders.Reminder, error) {
	e, err := s.Get(ctx, petID, kind, id)
	if err != nil {
		return nil, err
	}
	return s.sched.Owned(ctx, e.source())
}

// Delete retira los recordatorios del evento y luego borra el evento.
func (s *Service) Delete(ctx context.Context, petID string, kind Kind, id string) error {
	e, err := s.Get(ctx, petID, kind, id)
	if err != nil {
		return err
	}
	if _, err := s.sched.Retract(ctx, e.source()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, kind, e.ID); err != nil {
		return apperr.Persistence("delete "+kind.Collection(), err)
	}
	return nil
}

// ReminderCompleted rueda el cronograma de una desparasitación: al completar su
// único pendiente se agenda la ocurrencia siguiente.
func (s *Service) ReminderCompleted(ctx context.Context, r reminders.Reminder) error {
	if r.Type != reminders.TypeDeworming || r.SourceEventID == "" {
		return nil
	}
	e, err := s.repo.GetByID(ctx, KindDeworming, r.SourceEventID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return apperr.Persistence("get dewormings", err)
	}
	if e.PetID != r.PetID || !e.recurring() {
		return nil
	}

	today := s.today()
	next, ok, err := recurrence.NextAfter(e.OccurredOn, e.Recurrence.Rule(), r.DueDate.AddDays(1), today)
	if err != nil {
		return err
	}
	var dates []caldate.Date
	if ok {
		dates = []caldate.Date{next}
	}

	if _, err := s.sched.Reschedule(ctx, e.source(), e.Label, dates); err != nil {
		return err
	}
	s.log.Debug("deworming rolled forward", map[string]any{
		"event_id": e.ID,
		"next":     next.String(),
		"ok":       ok,
	})
	return nil
}

func (s *Service) build(kind Kind, in Input) (CareEvent, error) {
	if !kind.Valid() {
		return CareEvent{}, apperr.Invalid("kind", "must be vaccine or deworming")
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return CareEvent{}, apperr.Invalid("label", "is required")
	}
	if in.OccurredOn.IsZero() {
		return CareEvent{}, apperr.Invalid("occurred_on", "is required")
	}

	e := CareEvent{
		Kind:       kind,
		Label:      label,
		OccurredOn: in.OccurredOn,
		Notes:      strings.TrimSpace(in.Notes),
	}
	if in.Recurrence == nil {
		return e, nil
	}

	rec := Recurrence{Enabled: in.Recurrence.Enabled, Unit: kind.defaultUnit(), Interval: in.Recurrence.Interval}
	if strings.TrimSpace(in.Recurrence.Unit) != "" {
		u, err := recurrence.ParseUnit(in.Recurrence.Unit)
		if err != nil {
			return CareEvent{}, err
		}
		rec.Unit = u
	}
	// Deshabilitada con intervalo vacío es válida; cualquier otro intervalo se valida igual.
	if rec.Enabled || rec.Interval != 0 {
		if err := rec.Rule().Validate(); err != nil {
			return CareEvent{}, err
		}
	}
	e.Recurrence = &rec
	return e, nil
}

func (s *Service) dueDates(e CareEvent) ([]caldate.Date, error) {
	if !e.recurring() {
		return nil, nil
	}
	return recurrence.Expand(e.OccurredOn, e.Recurrence.Rule(), e.Kind.Policy(), recurrence.WindowFrom(s.today()))
}
