package reminders

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pet-care-reminders/internal/platform/apperr"
	"pet-care-reminders/internal/platform/caldate"
)

// Schedule materializa un recordatorio pendiente por fecha. dates vacío no escribe nada.
func (s *Service) Schedule(ctx context.Context, src Source, dates []caldate.Date) ([]Reminder, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "reminders.Schedule", trace.WithAttributes(
		attribute.String("pet.id", src.PetID),
		attribute.String("event.id", src.EventID),
		attribute.Int("dates", len(dates)),
	))
	defer span.End()

	batch := s.build(src, dates)
	if len(batch) == 0 {
		return []Reminder{}, nil
	}
	if err := s.repo.InsertBatch(ctx, batch); err != nil {
		span.RecordError(err)
		return nil, apperr.Persistence("insert reminders", err)
	}

	s.generated.Add(ctx, int64(len(batch)), metric.WithAttributes(attribute.String("type", string(src.Type))))
	s.log.Info("reminders scheduled", map[string]any{
		"pet_id":   src.PetID,
		"event_id": src.EventID,
		"count":    len(batch),
	})
	return batch, nil
}

// Reschedule reemplaza los pendientes del evento por el nuevo cronograma en una sola
// operación. previousLabel es el label antes de la edición: con él se encuentran
// los recordatorios heredados que no tienen SourceEventID.
func (s *Service) Reschedule(ctx context.Context, src Source, previousLabel string, dates []caldate.Date) ([]Reminder, error) {
	if err := validateSource(src); err != nil {
		return nil, err
	}
	if strings.TrimSpace(previousLabel) == "" {
		previousLabel = src.Label
	}
	ctx, span := s.tracer.Start(ctx, "reminders.Reschedule", trace.WithAttributes(
		attribute.String("pet.id", src.PetID),
		attribute.String("event.id", src.EventID),
		attribute.Int("dates", len(dates)),
	))
	defer span.End()

	m := src.match(previousLabel)
	owned, err := s.owned(ctx, src.PetID, m)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	batch := s.build(src, withoutCompleted(dates, owned))
	removed, err := s.repo.ReplacePending(ctx, m, batch)
	if err != nil {
		span.RecordError(err)
		return nil, apperr.Persistence("replace reminders", err)
	}

	attrs := metric.WithAttributes(attribute.String("type", string(src.Type)))
	s.retracted.Add(ctx, int64(removed), attrs)
	s.generated.Add(ctx, int64(len(batch)), attrs)
	s.log.Info("reminders rescheduled", map[string]any{
		"pet_id":   src.PetID,
		"event_id": src.EventID,
		"removed":  removed,
		"count":    len(batch),
	})
	return batch, nil
}

// Retract borra todo lo que el evento posee, incluidos los ya completados.
func (s *Service) Retract(ctx context.Context, src Source) (int, error) {
	if err := validateSource(src); err != nil {
		return 0, err
	}
	ctx, span := s.tracer.Start(ctx, "reminders.Retract", trace.WithAttributes(
		attribute.String("pet.id", src.PetID),
		attribute.String("event.id", src.EventID),
	))
	defer span.End()

	removed, err := s.repo.DeleteOwned(ctx, src.match(src.Label))
	if err != nil {
		span.RecordError(err)
		return 0, apperr.Persistence("delete owned reminders", err)
	}

	s.retracted.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("type", string(src.Type))))
	s.log.Info("reminders retracted", map[string]any{
		"pet_id":   src.PetID,
		"event_id": src.EventID,
		"removed":  removed,
	})
	return removed, nil
}

// Owned lista los recordatorios (pendientes y completados) que posee src.
func (s *Service) Owned(ctx context.Context, src Source) ([]Reminder, error) {
	return s.owned(ctx, src.PetID, src.match(src.Label))
}

func (s *Service) owned(ctx context.Context, petID string, m OwnerMatch) ([]Reminder, error) {
	items, err := s.repo.ListByPet(ctx, petID, ListFilter{IncludeCompleted: true})
	if err != nil {
		return nil, apperr.Persistence("list reminders", err)
	}
	out := make([]Reminder, 0, len(items))
	for _, r := range items {
		if m.Owns(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// withoutCompleted descarta las fechas que ya tienen un recordatorio completado.
func withoutCompleted(dates []caldate.Date, owned []Reminder) []caldate.Date {
	done := make(map[caldate.Date]struct{})
	for _, r := range owned {
		if r.Completed {
			done[r.DueDate] = struct{}{}
		}
	}
	if len(done) == 0 {
		return dates
	}
	out := make([]caldate.Date, 0, len(dates))
	for _, d := range dates {
		if _, ok := done[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) build(src Source, dates []caldate.Date) []Reminder {
	now := s.now()
	out := make([]Reminder, 0, len(dates))
	for _, d := range dates {
		out = append(out, Reminder{
			ID:            s.newID(),
			PetID:         src.PetID,
			SourceEventID: src.EventID,
			Title:         src.Title(),
			Description:   src.Description(),
			DueDate:       d,
			Type:          src.Type,
			CreatedAt:     now,
		})
	}
	return out
}

func validateSource(src Source) error {
	switch {
	case strings.TrimSpace(src.PetID) == "":
		return apperr.Invalid("pet_id", "is required")
	case strings.TrimSpace(src.EventID) == "":
		return apperr.Invalid("event_id", "is required")
	case strings.TrimSpace(src.Label) == "":
		return apperr.Invalid("label", "is required")
	case !src.Type.Valid():
		return apperr.Invalid("type", "is not a known reminder type")
	}
	return nil
}
