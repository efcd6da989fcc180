package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/hvac-crew/schedule/backend/internal/auth"
	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/notify"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	"go.uber.org/zap"
)

// SMTPChecker 用于 /diag/smtp，通常是 *mailer.SMTPTransport
type SMTPChecker interface {
	Check(ctx context.Context) error
	Send(ctx context.Context, m domain.Mail) error
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	store         repository.BlobStore
	translator    ut.Translator
	authenticator *auth.Authenticator
	notifier      *notify.Service
	smtp          SMTPChecker
	loginLimiter  *ipRateLimiter
	logger        *zap.Logger

	Mux *chi.Mux
}

// NewHandler 中 smtp 可以为 nil，此时 /diag/smtp 报告未配置
func NewHandler(cfg *config.Config, store repository.BlobStore, authenticator *auth.Authenticator, notifier *notify.Service, smtp SMTPChecker, logger *zap.Logger) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		store:         store,
		translator:    trans,
		authenticator: authenticator,
		notifier:      notifier,
		smtp:          smtp,
		loginLimiter:  newIPRateLimiter(cfg.Auth.LoginPerMinute),
		logger:        logger,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	// 发送通知时身份只用于署名，无法验证时降级为 unknown，因此不要求登录
	h.Mux.Post("/send-update", h.SendUpdate)
	h.Mux.Post("/notify", h.SendUpdate)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/ping", h.Ping)

		r.Route("/weeks", func(r chi.Router) {
			r.Get("/", h.ListWeeks)
			r.Route("/{weekKey}", func(r chi.Router) {
				r.Get("/", h.GetWeek)
				r.Put("/", h.SaveWeek)
				r.Post("/", h.SaveWeek)
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Post("/", h.SaveSettings)
		})

		r.Route("/diag", func(r chi.Router) {
			r.Get("/smtp", h.DiagSMTP)
			r.Get("/store", h.DiagStore)
		})
	})
}
