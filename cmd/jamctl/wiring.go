package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"

	"jamsession/internal/app"
	"jamsession/internal/config"
	"jamsession/internal/ratelimit"
	"jamsession/pkg/api"
	"jamsession/pkg/geocode"
	"jamsession/pkg/storage"
	"jamsession/pkg/store"
)

const geocodeLimitKey = "nominatim"

// runtime is the wired client plus everything that needs closing.
type runtime struct {
	app      *app.App
	geocoder *geocode.Client
	closers  []io.Closer
}

func (r *runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// build wires the application from config. out receives notifications.
func build(cfg config.FileConfig, out *console) (*runtime, error) {
	timeout, err := config.ParseHTTPTimeout(cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	rt := &runtime{}

	tokens, err := tokenStore(cfg, rt)
	if err != nil {
		return nil, err
	}
	limiter, err := geocodeLimiter(cfg, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	mirror, err := imageMirror(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	client := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: timeout,
	})
	rt.geocoder = geocode.NewClient(geocode.Options{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   timeout,
		Limiter:   limiter,
	})
	rt.app, err = app.New(app.Config{
		Client:    client,
		Tokens:    tokens,
		Geocoder:  rt.geocoder,
		Mirror:    mirror,
		Notifier:  out,
		Navigator: out,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func tokenStore(cfg config.FileConfig, rt *runtime) (store.TokenStore, error) {
	sealer := store.NewSealer(cfg.TokenPassphrase)
	switch cfg.TokenStore {
	case config.TokenStoreMemory:
		return store.NewMemoryTokenStore(), nil
	case config.TokenStoreRedis:
		s := store.NewRedisTokenStore(cfg.RedisAddr, cfg.RedisPassword, cfg.TokenKey, sealer)
		rt.closers = append(rt.closers, s)
		return s, nil
	default:
		return store.NewFileTokenStore(cfg.TokenFile, sealer)
	}
}

// geocodeLimiter shares the request budget through Redis when it is
// configured and falls back to an in-process limiter otherwise.
func geocodeLimiter(cfg config.FileConfig, rt *runtime) (geocode.Limiter, error) {
	perSecond := cfg.GeocoderRatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	if cfg.RedisAddr == "" {
		return rate.NewLimiter(rate.Limit(perSecond), 1), nil
	}
	limit, window := fixedWindow(perSecond)
	l, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "jamsession:geocode", limit, window)
	if err != nil {
		return nil, fmt.Errorf("geocode limiter: %w", err)
	}
	rt.closers = append(rt.closers, l)
	slog.Debug("geocoder throttled through redis", "limit", limit, "window", window)
	return geocode.NewSharedLimiter(l, geocodeLimitKey), nil
}

// fixedWindow turns a per-second rate into a window quota. Rates below one
// stretch the window instead.
func fixedWindow(perSecond float64) (int, time.Duration) {
	if perSecond >= 1 {
		return int(math.Floor(perSecond)), time.Second
	}
	return 1, time.Duration(float64(time.Second) / perSecond)
}

func imageMirror(cfg config.FileConfig) (storage.ImageMirror, error) {
	switch cfg.ImageMirror {
	case config.ImageMirrorMinio:
		m, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("image mirror: %w", err)
		}
		return m, nil
	case config.ImageMirrorDisk:
		f, err := storage.NewFileStore(cfg.ImageDir)
		if err != nil {
			return nil, fmt.Errorf("image mirror: %w", err)
		}
		return f, nil
	default:
		return nil, nil
	}
}
