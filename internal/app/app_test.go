package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/config"
	"lifecode-recipe/internal/pkg/common"
)

type fixedGenerator struct{ err error }

func (g fixedGenerator) Generate(context.Context, string, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "1. Recipe Name (traditional Tamil): Ragi Kali\n3. Ingredients (with unit quantity):\n• Ragi Flour - 60g\n8. Response:\n1. Cook.", nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:     config.LLMConfig{Provider: config.ProviderOpenRouter, Timeout: time.Second},
		Store:   config.StoreConfig{Driver: config.StoreMemory},
		Catalog: config.CatalogConfig{MatchThreshold: 0.6, PerPersonDivisor: 10},
		Session: config.SessionConfig{TTL: time.Hour},
	}
}

func TestNewWiresComponents(t *testing.T) {
	a, err := New(testConfig(), WithGenerator(fixedGenerator{}), WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "custom", a.ProviderName())
	assert.Nil(t, a.AI)
	assert.Equal(t, 0.6, a.Estimator.Threshold())

	res, err := a.Recipes.Lookup(context.Background(), session.New(""), "Ragi  Kali")
	require.NoError(t, err)
	assert.True(t, res.Fresh)
	assert.Equal(t, 9.2, res.Record.TotalCost)

	rec, err := a.Store.Lookup(context.Background(), res.Record.LookupKey)
	require.NoError(t, err)
	assert.Equal(t, res.Record.ID, rec.ID)
}

func TestNewPropagatesGeneratorFailure(t *testing.T) {
	a, err := New(testConfig(), WithGenerator(fixedGenerator{err: errors.New("quota")}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Recipes.Lookup(context.Background(), session.New(""), "ragi kali")
	assert.ErrorIs(t, err, common.ErrRecipeUnavailable)
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(config.CatalogConfig{File: "does-not-exist.yaml"})
	assert.Error(t, err)

	cat, err := LoadCatalog(config.CatalogConfig{})
	require.NoError(t, err)
	assert.NotZero(t, cat.Len())
}

func TestSweepSessionsStopsOnCancel(t *testing.T) {
	a, err := New(testConfig(), WithGenerator(fixedGenerator{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.SweepSessions(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SweepSessions did not return after cancel")
	}
}
