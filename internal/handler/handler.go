package handler

import (
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/montage-crm/planner/backend/internal/config"
	"github.com/montage-crm/planner/backend/internal/conflict"
	"github.com/montage-crm/planner/backend/internal/domain"
	"github.com/montage-crm/planner/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	repository   *repository.Repository
	translator   ut.Translator
	mailChannel  *amqp.Channel
	redisClient  *redis.Client
	policy       conflict.Policy
	loginLimiter *ipRateLimiter

	Mux *chi.Mux
}

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// report json field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}

	return validate, trans, nil
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:     validate,
		config:       cfg,
		repository:   repo,
		translator:   trans,
		mailChannel:  mailCh,
		redisClient:  rdb,
		policy:       cfg.ConflictPolicy(),
		loginLimiter: newIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, cfg.RateLimit.TrustProxy),

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.With(h.rateLimit(h.loginLimiter)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.With(h.rateLimit(h.loginLimiter)).Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	admin := h.RequiredRole([]domain.Role{domain.RoleAdmin})

	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Get("/bookings", h.GetMyBookings)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(admin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(admin).Delete("/", h.DeleteUser)
				r.With(admin).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.GetBookings)
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Use(h.myInfo)
				r.Post("/", h.CreateBooking)
				r.Post("/check", h.CheckBooking)
				r.Post("/suggestions", h.SuggestBookingSlots)
			})
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.booking)
				r.Get("/", h.GetBooking)
				r.With(admin).With(h.myInfo).Patch("/", h.UpdateBooking)
				r.With(admin).Delete("/", h.DeleteBooking)
				r.With(admin).Get("/overrides", h.GetBookingOverrides)
			})
		})
	})
}
