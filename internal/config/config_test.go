package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.Equal(t, "@every 5m", cfg.OTPSweepSchedule)
	assert.Equal(t, 15*time.Minute, cfg.ResetTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTokenExpiry)
	assert.Equal(t, 5*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecretKey, "debug mode falls back to a development secret")
}

func TestFromViper_SMTPTransportsJSON(t *testing.T) {
	v := newViper()
	v.Set("SMTP_TRANSPORTS", `[{"name":"a","host":"smtp.a","port":587,"timeoutSeconds":5},{"name":"b","host":"smtp.b","port":465,"timeoutSeconds":8}]`)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Len(t, cfg.SMTPTransports, 2)
	assert.Equal(t, "smtp.b", cfg.SMTPTransports[1].Host)
	assert.Equal(t, 8, cfg.SMTPTransports[1].TimeoutSeconds)
}

func TestFromViper_SingleSMTPHost(t *testing.T) {
	v := newViper()
	v.Set("SMTP_HOST", "mail.example.com")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Len(t, cfg.SMTPTransports, 1)
	assert.Equal(t, "mail.example.com", cfg.SMTPTransports[0].Host)
}

func TestFromViper_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"firestore without credentials", "STORAGE_DRIVER", StorageDriverFirestore},
		{"unknown storage driver", "STORAGE_DRIVER", "mysql"},
		{"unknown cache driver", "CACHE_DRIVER", "etcd"},
		{"cloudinary without keys", "IMAGE_STORAGE_DRIVER", ImageDriverCloudinary},
		{"transport timeout too long", "SMTP_TRANSPORTS", `[{"name":"slow","host":"h","port":25,"timeoutSeconds":30}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestFromViper_ReleaseRequiresJWTSecret(t *testing.T) {
	v := newViper()
	v.Set("GIN_MODE", "release")
	_, err := FromViper(v)
	assert.Error(t, err)

	v.Set("JWT_SECRET_KEY", "s3cret")
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecretKey)
}
