package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/rizzmate/backend/internal/handler/admin"
	"github.com/zhouzirui/rizzmate/backend/internal/handler/credits"
	"github.com/zhouzirui/rizzmate/backend/internal/handler/gateway"
	"github.com/zhouzirui/rizzmate/backend/internal/handler/reply"
	"github.com/zhouzirui/rizzmate/backend/internal/handler/tone"
	middlewarePkg "github.com/zhouzirui/rizzmate/backend/internal/middleware"
	toneModel "github.com/zhouzirui/rizzmate/backend/internal/model/tone"
	gatewayService "github.com/zhouzirui/rizzmate/backend/internal/service/gateway"
	"github.com/zhouzirui/rizzmate/backend/pkg/utils"
)

// Services 汇总路由需要的核心服务。
type Services struct {
	Tones        toneModel.Store
	Ledger       credits.Provisioner
	Orchestrator reply.Submitter
	Admin        admin.Service
	// Gateway is optional; the gateway endpoint is only mounted when set.
	Gateway gatewayService.Gateway
	// Verifier may be nil, in which case all callers are guests.
	Verifier       middlewarePkg.TokenVerifier
	GuestCredits   int
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS(svc.AllowedOrigins))
		api.Use(middlewarePkg.ResolveActor(middlewarePkg.ActorConfig{
			Verifier:          svc.Verifier,
			GuestCreditsStart: svc.GuestCredits,
		}))

		tone.New(svc.Tones).RegisterRoutes(api)
		credits.New(svc.Ledger).RegisterRoutes(api)
		reply.New(svc.Orchestrator).RegisterRoutes(api)
		admin.New(svc.Admin).RegisterRoutes(api)
	})

	// 网关自带 CORS 头与预检处理，不经过全局 CORS 中间件
	if svc.Gateway != nil {
		r.Route("/functions/v1", func(fn chi.Router) {
			gateway.New(svc.Gateway).RegisterRoutes(fn)
		})
	}

	return r
}
