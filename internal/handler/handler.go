package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/maywin-dev/nurse-roster/backend/internal/config"
	"github.com/maywin-dev/nurse-roster/backend/internal/domain"
	"github.com/maywin-dev/nurse-roster/backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	repository   *repository.Repository
	translator   ut.Translator
	solveChannel *amqp.Channel
	redisClient  *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, solveCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:     validate,
		config:       cfg,
		repository:   repo,
		translator:   trans,
		solveChannel: solveCh,
		redisClient:  rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.requireRole(domain.RoleAdmin)).With(h.myInfo).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.protectInitialAdmin).With(h.requireRole(domain.RoleAdmin)).Patch("/", h.UpdateUser)
				r.With(h.protectInitialAdmin).With(h.requireRole(domain.RoleAdmin)).Delete("/", h.DeleteUser)
				r.With(h.requireRole(domain.RoleAdmin)).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/datasets", func(r chi.Router) {
			r.With(h.requireRole(domain.RoleAdmin, domain.RoleHeadNurse)).With(h.myInfo).Post("/", h.CreateDataset)
			r.Get("/", h.GetAllDatasets)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.dataset)
				r.Get("/", h.GetDataset)
				r.With(h.requireRole(domain.RoleAdmin, domain.RoleHeadNurse)).Delete("/", h.DeleteDataset)
				r.Get("/solve-runs", h.GetDatasetSolveRuns)
			})
		})

		r.Route("/solve-runs", func(r chi.Router) {
			r.With(h.requireRole(domain.RoleAdmin, domain.RoleHeadNurse)).With(h.myInfo).Post("/", h.CreateSolveRun)
			r.Get("/", h.GetAllSolveRuns)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.solveRun)
				r.Get("/", h.GetSolveRun)
				r.Get("/roster", h.GetRunRoster)
				r.Get("/assignments", h.GetRunAssignments)
				r.Get("/kpi", h.GetRunKPI)
			})
		})
	})
}
