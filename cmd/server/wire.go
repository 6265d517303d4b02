//go:build wireinject
// +build wireinject

package main

import (
	"realestate_backend/internal/admin"
	"realestate_backend/internal/app"
	"realestate_backend/internal/auth"
	"realestate_backend/internal/config"
	"realestate_backend/internal/image"
	"realestate_backend/internal/inquiry"
	"realestate_backend/internal/notification"
	"realestate_backend/internal/otp"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/elasticsearch"
	"realestate_backend/internal/property"
	"realestate_backend/internal/review"
	"realestate_backend/internal/settings"
	"realestate_backend/internal/shared"
	"realestate_backend/internal/user"

	"github.com/google/wire"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	provideFirebase,
	provideFirestore,
	cache.NewKV,
	elasticsearch.NewClient,
)

var searchSet = wire.NewSet(
	providePropertyRepository,
	provideIndexer,
	property.NewIndexSyncer,
)

var propertySet = wire.NewSet(
	searchSet,
	provideReadCache,
	providePublisher,
	provideConsumer,
	image.NewStore,
	property.NewService,
	wire.Bind(new(property.Service), new(*property.ServiceImplementation)),
	wire.Bind(new(user.PropertyCatalog), new(*property.ServiceImplementation)),
	wire.Bind(new(review.PropertyRater), new(*property.ServiceImplementation)),
	wire.Bind(new(inquiry.PropertyLookup), new(*property.ServiceImplementation)),
	wire.Bind(new(admin.PropertyStats), new(*property.ServiceImplementation)),
	property.NewHandler,
	image.NewHandler,
)

var userSet = wire.NewSet(
	provideUserRepository,
	user.NewService,
	wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
	wire.Bind(new(review.AuthorLookup), new(*user.ServiceImplementation)),
	wire.Bind(new(inquiry.UserLookup), new(*user.ServiceImplementation)),
	wire.Bind(new(admin.UserStats), new(*user.ServiceImplementation)),
	user.NewHandler,
)

var authSet = wire.NewSet(
	otp.NewStoreFromConfig,
	wire.Bind(new(auth.OTPStore), new(*otp.Store)),
	auth.NewJWTService,
	wire.Bind(new(shared.TokenService), new(*auth.JWTService)),
	auth.NewKVBlocklistService,
	wire.Bind(new(auth.TokenBlocklistService), new(*auth.KVBlocklistService)),
	provideIDTokenVerifier,
	auth.NewService,
	wire.Bind(new(auth.Service), new(*auth.ServiceImplementation)),
	auth.NewHandler,
)

var contentSet = wire.NewSet(
	notification.NewMailerFromConfig,
	wire.Bind(new(notification.Sender), new(*notification.FallbackMailer)),
	notification.NewService,
	wire.Bind(new(notification.Service), new(*notification.ServiceImplementation)),

	provideReviewRepository,
	review.NewService,
	wire.Bind(new(review.Service), new(*review.ServiceImplementation)),
	wire.Bind(new(admin.ReviewStats), new(*review.ServiceImplementation)),
	review.NewHandler,

	provideInquiryRepository,
	inquiry.NewService,
	wire.Bind(new(inquiry.Service), new(*inquiry.ServiceImplementation)),
	wire.Bind(new(admin.InquiryStats), new(*inquiry.ServiceImplementation)),
	inquiry.NewHandler,

	provideSettingsRepository,
	settings.NewService,
	wire.Bind(new(settings.Service), new(*settings.ServiceImplementation)),
	wire.Bind(new(inquiry.AlertRecipient), new(*settings.ServiceImplementation)),
	settings.NewHandler,

	admin.NewService,
	wire.Bind(new(admin.Service), new(*admin.ServiceImplementation)),
	admin.NewHandler,
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		propertySet,
		userSet,
		authSet,
		contentSet,
		provideScheduler,
		wire.Struct(new(app.Handlers), "*"),
		app.NewServer,
	)
	return nil, nil, nil
}

// initializeSyncer builds only what the sync-properties command needs.
func initializeSyncer(cfg *config.Config) (*property.IndexSyncer, func(), error) {
	wire.Build(
		provideLogger,
		provideDatabase,
		provideFirebase,
		provideFirestore,
		elasticsearch.NewClient,
		searchSet,
	)
	return nil, nil, nil
}
