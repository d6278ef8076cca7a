package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nadarsha111/kakeibo/internal/config"
)

func newSettings(t *testing.T) *SettingsService {
	t.Helper()
	db := newTestDB(t)
	ui := config.UIConfig{CurrencySymbol: "Rs.", DecimalPlaces: 2}
	return NewSettingsService(db, ui, testLogger())
}

func TestSettingsTypedAccessors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newSettings(t)

	require.Equal(t, "fallback", svc.GetString(ctx, "theme", "fallback"))
	require.NoError(t, svc.SetString(ctx, "theme", "mocha"))
	require.Equal(t, "mocha", svc.GetString(ctx, "theme", "fallback"))

	// upsert overwrites in place
	require.NoError(t, svc.SetString(ctx, "theme", "latte"))
	require.Equal(t, "latte", svc.GetString(ctx, "theme", "fallback"))

	require.True(t, svc.GetBool(ctx, "notifications", true))
	require.NoError(t, svc.SetBool(ctx, "notifications", false))
	require.False(t, svc.GetBool(ctx, "notifications", true))
	// "1" counts as true
	require.NoError(t, svc.SetString(ctx, "compact_mode", "1"))
	require.True(t, svc.GetBool(ctx, "compact_mode", false))

	require.Equal(t, 7, svc.GetInt(ctx, "history_days", 7))
	require.NoError(t, svc.SetInt(ctx, "history_days", 30))
	require.Equal(t, 30, svc.GetInt(ctx, "history_days", 7))
	// unparsable values fall back
	require.NoError(t, svc.SetString(ctx, "history_days", "not a number"))
	require.Equal(t, 7, svc.GetInt(ctx, "history_days", 7))

	require.NoError(t, svc.SetFloat(ctx, "savings_goal", 0.25))
	require.InDelta(t, 0.25, svc.GetFloat(ctx, "savings_goal", 0), 0.0001)
}

func TestSettingsJSONRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newSettings(t)

	type widgetLayout struct {
		Order  []string `json:"order"`
		Hidden bool     `json:"hidden"`
	}
	in := widgetLayout{Order: []string{"balance", "loans"}, Hidden: true}
	require.NoError(t, svc.SetJSON(ctx, "layout", in))

	var out widgetLayout
	require.True(t, svc.GetJSON(ctx, "layout", &out))
	require.Equal(t, in, out)

	// missing key leaves dest untouched
	out = widgetLayout{Order: []string{"sentinel"}}
	require.False(t, svc.GetJSON(ctx, "missing", &out))
	require.Equal(t, []string{"sentinel"}, out.Order)

	// malformed stored value leaves dest untouched too
	require.NoError(t, svc.SetString(ctx, "broken", "{not json"))
	require.False(t, svc.GetJSON(ctx, "broken", &out))
	require.Equal(t, []string{"sentinel"}, out.Order)
}

func TestDisplaySettingsFallBackToConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newSettings(t)

	require.Equal(t, "Rs.", svc.CurrencySymbol(ctx))
	require.Equal(t, 2, svc.DecimalPlaces(ctx))

	require.NoError(t, svc.SetString(ctx, SettingCurrencySymbol, "$"))
	require.NoError(t, svc.SetInt(ctx, SettingDecimalPlaces, 0))
	require.Equal(t, "$", svc.CurrencySymbol(ctx))
	require.Equal(t, 0, svc.DecimalPlaces(ctx))
}
