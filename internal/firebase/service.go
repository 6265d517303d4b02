package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"realestate_backend/internal/config"
)

// FirebaseService wraps the Firebase Admin SDK clients used by the backend:
// Auth for social sign-in and Firestore for the document storage driver.
type FirebaseService struct {
	app        *firebase.App
	authClient *auth.Client
	firestore  *firestore.Client
	logger     *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK.
// It returns a nil service (and no error) when no service account key is configured.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	logger = logger.Named("firebase")
	if !cfg.FirebaseEnabled() {
		logger.Info("Firebase is not configured; social login and Firestore storage are disabled.")
		return nil, nil
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	svc := &FirebaseService{app: app, authClient: authClient, logger: logger}

	if cfg.StorageDriver == config.StorageDriverFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			logger.Error("Failed to get Firestore client", zap.Error(err))
			return nil, fmt.Errorf("error getting Firestore client: %w", err)
		}
		svc.firestore = fs
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return svc, nil
}

// Firestore returns the Firestore client, or nil when Firestore storage is not in use.
func (s *FirebaseService) Firestore() *firestore.Client {
	if s == nil {
		return nil
	}
	return s.firestore
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
func (s *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return token, nil
}

// Close releases the Firestore connection.
func (s *FirebaseService) Close() {
	if s == nil || s.firestore == nil {
		return
	}
	if err := s.firestore.Close(); err != nil {
		s.logger.Error("Failed to close Firestore client", zap.Error(err))
	}
}
