package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/holister/holister-api/internal/dto"
	"github.com/holister/holister-api/internal/repository"
)

const (
	settingsCacheKey = "store:settings"
	settingsCacheTTL = 5 * time.Minute
)

type SettingsService struct {
	settingsRepo repository.SettingsRepository
	redisClient  *redis.Client
}

func NewSettingsService(settingsRepo repository.SettingsRepository, redisClient *redis.Client) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, redisClient: redisClient}
}

func (s *SettingsService) Get(ctx context.Context) (*dto.SettingsResponse, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, settingsCacheKey).Result(); err == nil {
			var resp dto.SettingsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	resp := &dto.SettingsResponse{Currency: settings.Currency, Timezone: settings.Timezone}

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, settingsCacheKey, data, settingsCacheTTL)
		}
	}
	return resp, nil
}

func (s *SettingsService) Update(ctx context.Context, req dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if req.Currency != nil {
		settings.Currency = *req.Currency
	}
	if req.Timezone != nil {
		settings.Timezone = *req.Timezone
	}
	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	if s.redisClient != nil {
		s.redisClient.Del(ctx, settingsCacheKey)
	}
	return &dto.SettingsResponse{Currency: settings.Currency, Timezone: settings.Timezone}, nil
}
