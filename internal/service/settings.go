package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/Nadarsha111/kakeibo/internal/config"
	"github.com/Nadarsha111/kakeibo/internal/database/repository"
)

// Setting keys the ledger itself reads. Display-only; never part of a
// balance computation.
const (
	SettingCurrencySymbol = "currency_symbol"
	SettingDecimalPlaces  = "decimal_places"
)

// SettingsService provides typed accessors over the app_settings table.
// Reads fall back to the supplied default on any miss or parse failure.
type SettingsService struct {
	log      *slog.Logger
	ui       config.UIConfig
	settings *repository.SettingRepo
}

func NewSettingsService(db *sql.DB, ui config.UIConfig, log *slog.Logger) *SettingsService {
	return &SettingsService{
		log:      log,
		ui:       ui,
		settings: repository.NewSettingRepo(db),
	}
}

func (s *SettingsService) GetString(ctx context.Context, key, fallback string) string {
	row, err := s.settings.Get(ctx, key)
	if err != nil {
		s.log.Warn("read setting failed", "key", key, "error", err)
		return fallback
	}
	if row == nil {
		return fallback
	}
	return row.Value
}

func (s *SettingsService) SetString(ctx context.Context, key, value string) error {
	if err := s.settings.Upsert(ctx, key, value); err != nil {
		s.log.Error("write setting failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (s *SettingsService) GetBool(ctx context.Context, key string, fallback bool) bool {
	row, err := s.settings.Get(ctx, key)
	if err != nil || row == nil {
		if err != nil {
			s.log.Warn("read setting failed", "key", key, "error", err)
		}
		return fallback
	}
	return row.Value == "true" || row.Value == "1"
}

func (s *SettingsService) SetBool(ctx context.Context, key string, value bool) error {
	return s.SetString(ctx, key, strconv.FormatBool(value))
}

func (s *SettingsService) GetInt(ctx context.Context, key string, fallback int) int {
	row, err := s.settings.Get(ctx, key)
	if err != nil || row == nil {
		if err != nil {
			s.log.Warn("read setting failed", "key", key, "error", err)
		}
		return fallback
	}
	n, err := strconv.Atoi(row.Value)
	if err != nil {
		return fallback
	}
	return n
}

func (s *SettingsService) SetInt(ctx context.Context, key string, value int) error {
	return s.SetString(ctx, key, strconv.Itoa(value))
}

func (s *SettingsService) GetFloat(ctx context.Context, key string, fallback float64) float64 {
	row, err := s.settings.Get(ctx, key)
	if err != nil || row == nil {
		if err != nil {
			s.log.Warn("read setting failed", "key", key, "error", err)
		}
		return fallback
	}
	f, err := strconv.ParseFloat(row.Value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (s *SettingsService) SetFloat(ctx context.Context, key string, value float64) error {
	return s.SetString(ctx, key, strconv.FormatFloat(value, 'f', -1, 64))
}

// GetJSON unmarshals the stored value into dest, reporting whether dest was
// populated. Parse failures leave dest untouched.
func (s *SettingsService) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	row, err := s.settings.Get(ctx, key)
	if err != nil || row == nil {
		if err != nil {
			s.log.Warn("read setting failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(row.Value), dest); err != nil {
		s.log.Warn("setting is not valid json", "key", key, "error", err)
		return false
	}
	return true
}

func (s *SettingsService) SetJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.SetString(ctx, key, string(raw))
}

// CurrencySymbol returns the stored display symbol, falling back to config.
func (s *SettingsService) CurrencySymbol(ctx context.Context) string {
	return s.GetString(ctx, SettingCurrencySymbol, s.ui.CurrencySymbol)
}

// DecimalPlaces returns the stored display precision, falling back to config.
func (s *SettingsService) DecimalPlaces(ctx context.Context) int {
	return s.GetInt(ctx, SettingDecimalPlaces, s.ui.DecimalPlaces)
}
