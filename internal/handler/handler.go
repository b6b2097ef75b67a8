package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/config"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/repository"
	"github.com/sysu-ecnc-dev/trip-timeline/backend/internal/timeline"
)

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository *repository.Repository
	translator ut.Translator
	timeline   *timeline.Service

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, svc *timeline.Service) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		timeline:   svc,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/health", h.Health)

	h.Mux.Route("/trips", func(r chi.Router) {
		r.Get("/", h.GetAllTrips)
		r.Post("/", h.CreateTrip)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Use(h.trip)
			r.Get("/", h.GetTrip)
			r.Delete("/", h.DeleteTrip)

			// 时间轴视图相关
			r.Get("/timeline", h.GetTimeline)
			r.Get("/conflicts", h.GetConflicts)
			r.Get("/gaps", h.GetGaps)

			r.Route("/entries", func(r chi.Router) {
				r.Post("/", h.CreateEntry)
				r.Route("/{entryID}", func(r chi.Router) {
					r.Use(h.entry)
					r.Get("/", h.GetEntry)
					r.Post("/commit", h.CommitDrag)
					r.Post("/gesture", h.ReplayGesture)
					r.Patch("/interval", h.UpdateEntryInterval)
					r.Patch("/lock", h.UpdateEntryLock)
					r.With(h.requireTransport).Post("/snap", h.SnapEntry)
				})
			})
		})
	})
}
