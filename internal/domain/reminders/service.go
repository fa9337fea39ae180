package reminders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
	"pet-care-reminders/internal/platform/logger"
)

// CompletionHook se invoca tras completar un recordatorio generado por un evento.
type CompletionHook interface {
	ReminderCompleted(ctx context.Context, r Reminder) error
}

type Service struct {
	repo  Repository
	now   func() time.Time
	loc   *time.Location
	newID func() string
	log   logger.Logger

	tracer    trace.Tracer
	generated metric.Int64Counter
	retracted metric.Int64Counter

	onComplete CompletionHook
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	meter := otel.Meter("pet-care-reminders/reminders")
	generated, _ := meter.Int64Counter("reminders.generated",
		metric.WithDescription("Recordatorios materializados desde eventos de cuidado"))
	retracted, _ := meter.Int64Counter("reminders.retracted",
		metric.WithDescription("Recordatorios borrados por reconciliación"))

	return &Service{
		repo:      repo,
		now:       time.Now,
		loc:       time.Local,
		newID:     uuid.NewString,
		log:       log.With(map[string]any{"module": "reminders"}),
		tracer:    otel.Tracer("pet-care-reminders/reminders"),
		generated: generated,
		retracted: retracted,
	}
}

// WithLocation fija la zona usada para calcular "hoy".
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// OnComplete registra el hook de roll-forward (lo provee el módulo care).
func (s *Service) OnComplete(h CompletionHook) {
	s.onComplete = h
}

func (s *Service) Today() caldate.Date {
	return caldate.Today(s.now(), s.loc)
}

type CreateInput struct {
	Title       string
	Description string
	DueDate     caldate.Date
	Type        Type
}

// Create registra un recordatorio manual (sin evento dueño).
func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (Reminder, error) {
	if strings.TrimSpace(petID) == "" {
		return Reminder{}, apperr.Invalid("pet_id", "is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return Reminder{}, apperr.Invalid("title", "is required")
	}
	if in.DueDate.IsZero() {
		return Reminder{}, apperr.Invalid("due_date", "is required")
	}
	typ := in.Type
	if typ == "" {
		typ = TypeGeneral
	}
	if !typ.Valid() {
		return Reminder{}, apperr.Invalid("type", "is not a known reminder type")
	}

	r := Reminder{
		ID:          s.newID(),
		PetID:       petID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Type:        typ,
		CreatedAt:   s.now(),
	}
	if err := s.repo.InsertBatch(ctx, []Reminder{r}); err != nil {
		return Reminder{}, apperr.Persistence("insert reminder", err)
	}
	return r, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Reminder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Reminder{}, apperr.Invalid("reminder_id", "is required")
	}
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Reminder{}, apperr.Persistence("get reminder", err)
	}
	return r, nil
}

func (s *Service) ListByPet(ctx context.Context, petID string, filter ListFilter) ([]Reminder, error) {
	items, err := s.repo.ListByPet(ctx, petID, filter)
	if err != nil {
		return nil, apperr.Persistence("list reminders", err)
	}
	return items, nil
}

// Upcoming lista pendientes de varias mascotas desde hoy hasta hoy+days.
func (s *Service) Upcoming(ctx context.Context, petIDs []string, days int) ([]Reminder, error) {
	if days <= 0 {
		days = 30
	}
	if len(petIDs) == 0 {
		return []Reminder{}, nil
	}
	today := s.Today()
	items, err := s.repo.ListPending(ctx, petIDs, today, today.AddDays(days))
	if err != nil {
		return nil, apperr.Persistence("list upcoming reminders", err)
	}
	return items, nil
}

// Complete es idempotente. Si el recordatorio lo generó un evento, se avisa al hook
// para rodar el cronograma; un fallo del hook no revierte la completitud.
func (s *Service) Complete(ctx context.Context, id string) (Reminder, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return Reminder{}, err
	}
	if r.Completed {
		return r, nil
	}

	at := s.now()
	if err := s.repo.MarkCompleted(ctx, r.ID, at); err != nil {
		return Reminder{}, apperr.Persistence("complete reminder", err)
	}
	r.Completed = true
	r.CompletedAt = &at

	if s.onComplete != nil && r.SourceEventID != "" {
		if err := s.onComplete.ReminderCompleted(ctx, r); err != nil {
			s.log.Warn("roll forward failed", map[string]any{
				"reminder_id": r.ID,
				"event_id":    r.SourceEventID,
				"err":         err,
			})
		}
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.Invalid("reminder_id", "is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Persistence("delete reminder", err)
	}
	return nil
}
