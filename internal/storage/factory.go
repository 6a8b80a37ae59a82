// Package storage builds the configured StorageProvider.
package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"reel/internal/adapters/storage/gdrive"
	"reel/internal/adapters/storage/localfs"
	"reel/internal/pkg/env"
	"reel/internal/ports"
)

// Provider is the storage contract used across API and Worker.
type Provider = ports.StorageProvider

// Config selects and configures a provider.
type Config struct {
	// Provider is "localfs" or "gdrive".
	Provider  string
	LocalRoot string

	GDriveClientID     string
	GDriveClientSecret string
	GDriveRefreshToken string
	GDriveFolderID     string
}

// ConfigFromEnv reads STORAGE_PROVIDER, STORAGE_LOCAL_ROOT and GDRIVE_*.
func ConfigFromEnv() Config {
	return Config{
		Provider:           env.Env("STORAGE_PROVIDER", "localfs"),
		LocalRoot:          env.Env("STORAGE_LOCAL_ROOT", ""),
		GDriveClientID:     env.Env("GDRIVE_CLIENT_ID", ""),
		GDriveClientSecret: env.Env("GDRIVE_CLIENT_SECRET", ""),
		GDriveRefreshToken: env.Env("GDRIVE_REFRESH_TOKEN", ""),
		GDriveFolderID:     env.Env("GDRIVE_FOLDER_ID", ""),
	}
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "localfs":
		if cfg.LocalRoot == "" {
			return nil, fmt.Errorf("localfs storage requires STORAGE_LOCAL_ROOT")
		}
		return localfs.New(cfg.LocalRoot), nil

	case "gdrive":
		return newGDriveProvider(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

func newGDriveProvider(ctx context.Context, cfg Config) (Provider, error) {
	for k, v := range map[string]string{
		"GDRIVE_CLIENT_ID":     cfg.GDriveClientID,
		"GDRIVE_CLIENT_SECRET": cfg.GDriveClientSecret,
		"GDRIVE_REFRESH_TOKEN": cfg.GDriveRefreshToken,
	} {
		if v == "" {
			return nil, fmt.Errorf("gdrive storage requires %s", k)
		}
	}

	conf := &oauth2.Config{
		ClientID:     cfg.GDriveClientID,
		ClientSecret: cfg.GDriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, cfg.GDriveFolderID), nil
}
