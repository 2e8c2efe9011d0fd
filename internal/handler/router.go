package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/talent-coach/backend/internal/handler/coach"
	"github.com/zhouzirui/talent-coach/backend/internal/handler/personality"
	"github.com/zhouzirui/talent-coach/backend/internal/handler/resume"
	middlewarePkg "github.com/zhouzirui/talent-coach/backend/internal/middleware"
	"github.com/zhouzirui/talent-coach/backend/internal/model/coaching"
	"github.com/zhouzirui/talent-coach/backend/internal/report"
	coachService "github.com/zhouzirui/talent-coach/backend/internal/service/coach"
	"github.com/zhouzirui/talent-coach/backend/internal/storage"
	"github.com/zhouzirui/talent-coach/backend/pkg/utils"
)

// Dependencies are the services exposed over HTTP. Objects is nil when object
// storage is not configured.
type Dependencies struct {
	Personalities coaching.PersonalityStore
	Coach         *coachService.Service
	Objects       *storage.S3Store
	ReportFormat  report.Format
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	var objects resume.ObjectFetcher
	if deps.Objects != nil {
		objects = deps.Objects
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		personality.New(deps.Personalities).RegisterRoutes(api)
		resume.New(objects).RegisterRoutes(api)

		api.Route("/coach", func(cr chi.Router) {
			coach.New(deps.Coach, deps.ReportFormat).RegisterRoutes(cr)
			coach.NewWebSocketHandler(deps.Coach).RegisterWebSocketRoutes(cr)
		})
	})

	return r
}
