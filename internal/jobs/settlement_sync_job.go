package jobs

import (
	"context"
	"time"

	"github.com/stagelink/marketplace-api/internal/datawarehouse"
	"github.com/stagelink/marketplace-api/internal/repository"
	"go.uber.org/zap"
)

// SettlementSyncJob pushes fully signed contracts to the settlement
// warehouse. Upserts make reruns safe, so the job always syncs the full
// settled set instead of tracking a watermark.
type SettlementSyncJob struct {
	offers    *repository.OfferRepository
	warehouse *datawarehouse.Client
	logger    *zap.Logger
}

// NewSettlementSyncJob creates a new settlement sync job
func NewSettlementSyncJob(offers *repository.OfferRepository, warehouse *datawarehouse.Client, logger *zap.Logger) *SettlementSyncJob {
	return &SettlementSyncJob{
		offers:    offers,
		warehouse: warehouse,
		logger:    logger,
	}
}

// Run performs one sync pass
func (j *SettlementSyncJob) Run(ctx context.Context) {
	if j.warehouse == nil {
		return
	}

	start := time.Now()

	settled, err := j.offers.ListSettled(ctx)
	if err != nil {
		j.logger.Error("settlement sync failed to list offers", zap.Error(err))
		return
	}

	var synced, failed int
	for i := range settled {
		offer := &settled[i]
		row := &datawarehouse.SettlementRow{
			OfferID:         offer.ID,
			EventID:         offer.EventID,
			OrganizerID:     offer.OrganizerID,
			ProviderID:      offer.ProviderID,
			ServiceCategory: string(offer.ServiceCategory),
			FinalAmount:     offer.EffectiveAmount(),
			AcceptedAt:      offer.AcceptedAt,
			SignedAt:        offer.ContractSignedAt,
		}
		if err := j.warehouse.UpsertSettlement(ctx, row); err != nil {
			failed++
			j.logger.Error("failed to sync settlement",
				zap.String("offer_id", offer.ID.String()),
				zap.Error(err),
			)
			continue
		}
		synced++
	}

	j.logger.Info("settlement sync completed",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
}
