package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "pet-care-reminders/internal/adapters/storage/memory"
	pg "pet-care-reminders/internal/adapters/storage/postgres"
	_ "pet-care-reminders/internal/docs"
	"pet-care-reminders/internal/domain/care"
	"pet-care-reminders/internal/domain/pets"
	"pet-care-reminders/internal/domain/reminders"
	"pet-care-reminders/internal/domain/timeline"
	"pet-care-reminders/internal/domain/weights"
	"pet-care-reminders/internal/middleware"
	"pet-care-reminders/internal/platform/logger"
	"pet-care-reminders/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger

	// Location define el "hoy" de recordatorios y timeline. nil => time.Local.
	Location *time.Location

	// nil => sin rate limit.
	RateLimiter *middleware.RateLimiter
}

type repos struct {
	pets      pets.Repository
	care      care.Repository
	reminders reminders.Repository
	weights   weights.Repository
}

func newRepos(db *sql.DB) repos {
	if db == nil {
		return repos{
			pets:      mem.NewPetRepo(),
			care:      mem.NewCareRepo(),
			reminders: mem.NewReminderRepo(),
			weights:   mem.NewWeightRepo(),
		}
	}
	return repos{
		pets:      pg.NewPetsRepo(db),
		care:      pg.NewCareRepo(db),
		reminders: pg.NewRemindersRepo(db),
		weights:   pg.NewWeightsRepo(db),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))
	r.Use(middleware.RateLimit(opts.RateLimiter))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	rp := newRepos(opts.DB)

	// Services por módulo
	petsSvc := pets.NewService(rp.pets)
	remindersSvc := reminders.NewService(rp.reminders, log).WithLocation(loc)
	careSvc := care.NewService(rp.care, remindersSvc, log).WithLocation(loc)
	weightsSvc := weights.NewService(rp.weights).WithLocation(loc)
	timelineSvc := timeline.NewService(weightsSvc, careSvc).WithLocation(loc)

	// Completar una desparasitación agenda la siguiente dosis.
	remindersSvc.OnComplete(careSvc)

	// Rutas por módulo
	pets.RegisterRoutes(r, petsSvc)
	care.RegisterRoutes(r, careSvc, petsSvc)
	reminders.RegisterRoutes(r, remindersSvc, petsSvc)
	weights.RegisterRoutes(r, weightsSvc, petsSvc)
	timeline.RegisterRoutes(r, timelineSvc, petsSvc)

	return r
}
