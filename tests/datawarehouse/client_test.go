package datawarehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stagelink/marketplace-api/internal/config"
	"github.com/stagelink/marketplace-api/internal/datawarehouse"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewClientDisabled(t *testing.T) {
	logger := zap.NewNop()

	client, err := datawarehouse.NewClient(nil, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)

	client, err = datawarehouse.NewClient(&config.WarehouseConfig{Enabled: false}, logger)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewClientMissingCredentials(t *testing.T) {
	cases := []struct {
		name string
		cfg  *config.WarehouseConfig
	}{
		{
			name: "missing URL",
			cfg:  &config.WarehouseConfig{Enabled: true, User: "finance", Password: "secret"},
		},
		{
			name: "missing user",
			cfg:  &config.WarehouseConfig{Enabled: true, URL: "warehouse:1433/settlements", Password: "secret"},
		},
		{
			name: "missing password",
			cfg:  &config.WarehouseConfig{Enabled: true, URL: "warehouse:1433/settlements", User: "finance"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := datawarehouse.NewClient(tc.cfg, zap.NewNop())
			assert.NoError(t, err)
			assert.Nil(t, client)
		})
	}
}

func TestNilClientOperationsAreNoOps(t *testing.T) {
	var client *datawarehouse.Client

	now := time.Now()
	err := client.UpsertSettlement(context.Background(), &datawarehouse.SettlementRow{
		OfferID:     uuid.New(),
		EventID:     uuid.New(),
		OrganizerID: "org-1",
		ProviderID:  "prov-1",
		FinalAmount: 5000,
		AcceptedAt:  &now,
		SignedAt:    &now,
	})
	assert.NoError(t, err)
	assert.NoError(t, client.Close())
}
