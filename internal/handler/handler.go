package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/archive"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/auth"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/policy"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/utils"
)

// MailPublisher 是 *amqp.Channel 中用于投递邮件消息的部分
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	issuer      *auth.Issuer
	mailChannel MailPublisher
	redisClient redis.Cmdable
	archiver    archive.Archiver

	Mux *chi.Mux
}

func NewHandler(
	cfg *config.Config,
	repo *repository.Repository,
	issuer *auth.Issuer,
	mailCh MailPublisher,
	rdb redis.Cmdable,
	archiver archive.Archiver,
) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 端口列表：逗号分隔的 1-65535
	if err := validate.RegisterValidation("ports", func(fl validator.FieldLevel) bool {
		return utils.ValidatePortList(fl.Field().String()) == nil
	}); err != nil {
		return nil, err
	}
	if err := validate.RegisterTranslation("ports", trans, func(ut ut.Translator) error {
		return ut.Add("ports", "{0}必须是以逗号分隔的端口号(1-65535)", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("ports", fe.Field())
		return t
	}); err != nil {
		return nil, err
	}

	if archiver == nil {
		archiver = archive.Nop{}
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		issuer:      issuer,
		mailChannel: mailCh,
		redisClient: rdb,
		archiver:    archiver,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Route("/reset-password", func(r chi.Router) {
				r.Post("/require", h.RequireResetPassword)
				r.Post("/confirm", h.ConfirmResetPassword)
			})

			// 以下 API 必须要在登录后才允许调用
			r.Group(func(r chi.Router) {
				r.Use(h.auth)
				r.Get("/me", h.GetMyInfo)
				r.Post("/change-password", h.ChangePassword)
				r.With(h.authorize(policy.CanListUsers)).Get("/", h.GetAllUsers)
				r.With(h.authorize(policy.CanCreateUser)).Post("/", h.CreateUser)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.targetUserID)
					r.Put("/", h.UpdateUser)
					r.Delete("/", h.DeleteUser) // 管理员校验在 policy 中完成，以便区分删除自己的情况
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.auth)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.GetAllCategories)
				r.Post("/", h.CreateCategory)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.category)
					r.Get("/", h.GetCategory)
					r.Put("/", h.UpdateCategory)
					r.Delete("/", h.DeleteCategory)
				})
			})

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", h.GetAllAssets)
				r.Post("/", h.CreateAsset)
				r.Get("/export", h.ExportAssets)
				r.Post("/import", h.ImportAssets)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.asset)
					r.Get("/", h.GetAsset)
					r.Put("/", h.UpdateAsset)
					r.Delete("/", h.DeleteAsset)
				})
			})
		})
	})
}
