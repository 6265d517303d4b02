package main

import (
	"context"
	"log"
	"time"

	"realestate_backend/internal/app"
	"realestate_backend/internal/auth"
	"realestate_backend/internal/config"
	"realestate_backend/internal/firebase"
	"realestate_backend/internal/inquiry"
	"realestate_backend/internal/jobs"
	"realestate_backend/internal/otp"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/database"
	"realestate_backend/internal/platform/elasticsearch"
	"realestate_backend/internal/platform/logger"
	"realestate_backend/internal/platform/messaging"
	"realestate_backend/internal/property"
	"realestate_backend/internal/review"
	"realestate_backend/internal/settings"
	"realestate_backend/internal/user"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		if err := l.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
	}, nil
}

// provideDatabase opens and migrates the SQL database. db is nil for Firestore storage.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := app.Migrate(db, logger); err != nil {
		database.Close(db, logger)
		return nil, nil, err
	}
	return db, func() { database.Close(db, logger) }, nil
}

func provideFirebase(cfg *config.Config, logger *zap.Logger) (*firebase.FirebaseService, func(), error) {
	fb, err := firebase.NewFirebaseService(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return fb, fb.Close, nil
}

func provideFirestore(fb *firebase.FirebaseService) *firestore.Client {
	return fb.Firestore()
}

// provideIDTokenVerifier keeps a disabled Firebase a nil interface rather than a typed nil.
func provideIDTokenVerifier(fb *firebase.FirebaseService) auth.IDTokenVerifier {
	if fb == nil {
		return nil
	}
	return fb
}

func useFirestore(cfg *config.Config) bool {
	return cfg.StorageDriver == config.StorageDriverFirestore
}

func provideUserRepository(cfg *config.Config, db *gorm.DB, fs *firestore.Client) user.Repository {
	if useFirestore(cfg) {
		return user.NewFirestoreRepository(fs)
	}
	return user.NewGORMRepository(db)
}

func providePropertyRepository(cfg *config.Config, db *gorm.DB, fs *firestore.Client) property.Repository {
	if useFirestore(cfg) {
		return property.NewFirestoreRepository(fs)
	}
	return property.NewGORMRepository(db)
}

func provideReviewRepository(cfg *config.Config, db *gorm.DB, fs *firestore.Client) review.Repository {
	if useFirestore(cfg) {
		return review.NewFirestoreRepository(fs)
	}
	return review.NewGORMRepository(db)
}

func provideInquiryRepository(cfg *config.Config, db *gorm.DB, fs *firestore.Client) inquiry.Repository {
	if useFirestore(cfg) {
		return inquiry.NewFirestoreRepository(fs)
	}
	return inquiry.NewGORMRepository(db)
}

func provideSettingsRepository(cfg *config.Config, db *gorm.DB, fs *firestore.Client) settings.Repository {
	if useFirestore(cfg) {
		return settings.NewFirestoreRepository(fs)
	}
	return settings.NewGORMRepository(db)
}

func provideReadCache(cfg *config.Config, kv cache.KV, logger *zap.Logger) (*cache.Tiered, func()) {
	c := cache.NewReadCache(cfg, kv, logger)
	return c, c.Stop
}

// provideIndexer makes sure the search index exists before handing out the indexer.
// A failure to create it is logged, not fatal.
func provideIndexer(client *elasticsearch.ESClientWrapper, cfg *config.Config, logger *zap.Logger) property.Indexer {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := property.EnsureIndex(ctx, client, cfg, logger); err != nil {
		logger.Error("Failed to create Elasticsearch properties index", zap.Error(err))
	}
	return property.NewIndexer(client, cfg, logger)
}

// providePublisher publishes to RabbitMQ when AMQP_URL is set and applies
// events in-process otherwise.
func providePublisher(cfg *config.Config, syncer *property.IndexSyncer, logger *zap.Logger) (messaging.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return messaging.NewDirectPublisher(syncer.Handle), func() {}, nil
	}
	p, err := messaging.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("Error closing AMQP publisher", zap.Error(err))
		}
	}, nil
}

// provideConsumer returns nil without AMQP; the server closes it on shutdown.
func provideConsumer(cfg *config.Config, syncer *property.IndexSyncer, logger *zap.Logger) (*messaging.Consumer, error) {
	if cfg.AMQPURL == "" {
		return nil, nil
	}
	return messaging.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, syncer.Handle, logger)
}

func provideScheduler(cfg *config.Config, otps *otp.Store, syncer *property.IndexSyncer, indexer property.Indexer, logger *zap.Logger) *jobs.Scheduler {
	var reindex jobs.PropertyReindexer
	if indexer.Enabled() {
		reindex = syncer
	}
	return jobs.NewScheduler(cfg, otps, reindex, logger)
}
