package router

import (
	"net/http"
	"time"

	_ "pet-health-tracker/docs"
	mem "pet-health-tracker/internal/adapters/storage/memory"
	"pet-health-tracker/internal/domain/access"
	"pet-health-tracker/internal/domain/export"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sessions"
	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/httpx"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
	"pet-health-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
)

const msgTooManyLogins = "too many login attempts, try again later"

// Stores agrupa los repos del backend elegido. Los que vengan nil se
// reemplazan por la implementación in-memory.
type Stores struct {
	Pets    pets.Repository
	Photos  pets.PhotoStore
	Records records.Repository
	Users   users.Repository
}

type Options struct {
	// Verifier nil => modo dev: la identidad sale del header X-Debug-User
	// y no se chequea que el usuario exista/esté activo.
	Verifier auth.AuthVerifier
	// Tokens nil => no se monta /api/auth (p.ej. tokens emitidos por otro servicio).
	Tokens  auth.TokenIssuer
	Revoker auth.TokenRevoker

	Stores  Stores
	Logger  logger.Logger
	Metrics *metrics.Metrics

	AdminUsername  string
	CORSOrigins    []string
	CookieSecure   bool
	LoginRateLimit int // por minuto y por IP; <= 0 sin límite
}

func (o *Options) withDefaults() {
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New()
	}
	if o.AdminUsername == "" {
		o.AdminUsername = "admin"
	}
	if o.Stores.Pets == nil {
		o.Stores.Pets = mem.NewPetRepo()
	}
	if o.Stores.Photos == nil {
		o.Stores.Photos = mem.NewPhotoStore()
	}
	if o.Stores.Records == nil {
		o.Stores.Records = mem.NewRecordRepo()
	}
	if o.Stores.Users == nil {
		o.Stores.Users = mem.NewUserRepo()
	}
}

func NewRouter(opts Options) http.Handler {
	opts.withDefaults()
	log := opts.Logger

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.ResponseRequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(opts.Metrics))
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.DebugUserHeader},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(middleware.AuthContext(opts.Verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	usersSvc := users.NewService(opts.Stores.Users, opts.AdminUsername, log)
	petsSvc := pets.NewService(opts.Stores.Pets, opts.Stores.Photos, usersSvc, log)
	recordsSvc := records.NewService(opts.Stores.Records)
	validator := access.NewValidator(petsSvc)

	// En modo dev no hay cuentas detrás del header de debug.
	var status middleware.UserStatus = usersSvc
	if opts.Verifier == nil {
		status = nil
	}

	r.Route("/api", func(api chi.Router) {
		if opts.Tokens != nil {
			sessionsSvc := sessions.NewService(usersSvc, opts.Tokens, opts.Revoker, log)
			sessions.RegisterRoutes(api, sessionsSvc, sessions.Options{
				CookieSecure: opts.CookieSecure,
				LoginLimiter: loginLimiter(opts.LoginRateLimit),
			})
		}

		api.Group(func(pr chi.Router) {
			pr.Use(middleware.RequireAuth(status))

			// Rutas por módulo
			pets.RegisterRoutes(pr, petsSvc)
			users.RegisterRoutes(pr, usersSvc)
			export.RegisterRoutes(pr, recordsSvc, validator, opts.Metrics)
			records.RegisterRoutes(pr, recordsSvc, validator)
		})
	})

	return r
}

// loginLimiter limita POST /api/auth/login por IP real y responde 429 en JSON.
func loginLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return nil
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			httpx.WriteError(w, apperr.TooManyRequests(msgTooManyLogins))
		}),
	)
}
