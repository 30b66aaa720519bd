package detect

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/services"
	"github.com/HerbHall/minerwatch/pkg/models"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// RunScan runs one scan and converts the result into the wire envelope. It
// journals the scan, publishes lifecycle events and keeps the outcome as the
// latest result when it succeeds.
//
// Scan failures are reported inside the outcome (Success false) with a nil
// error. The error is non-nil only when the scan could not start because
// another one is running (ErrScanInProgress).
//
// An empty networkRange uses the stored scan_range setting, then the
// configured default range.
func (m *Module) RunScan(ctx context.Context, networkRange string) (models.ScanOutcome, error) {
	seq, err := m.tracker.begin()
	if err != nil {
		m.metrics.reject("busy")
		return models.ScanOutcome{Error: err.Error()}, err
	}

	prefix := m.orchestrator.ResolveRange(m.effectiveRange(ctx, networkRange))
	rec := &models.ScanRecord{Range: prefix.String()}
	m.journalStart(ctx, rec)
	m.publish(ctx, TopicScanStarted, ScanEvent{ScanID: rec.ID, Range: rec.Range})

	logger := m.logger.With(zap.String("scan_id", rec.ID), zap.String("range", rec.Range))
	logger.Info("scan started")

	started := time.Now()
	result, scanErr := m.orchestrator.ScanPrefix(ctx, prefix)
	elapsed := time.Since(started)

	// The journal and events must still record a scan whose request was
	// cancelled.
	finishCtx := context.WithoutCancel(ctx)

	if scanErr != nil {
		m.tracker.end(seq, nil)
		m.metrics.observeScan(models.ScanStatusFailed, elapsed)
		logger.Error("scan failed", zap.Duration("elapsed", elapsed), zap.Error(scanErr))
		m.journalFinish(finishCtx, rec.ID, models.ScanStatusFailed, 0, 0, scanErr.Error())
		m.publish(finishCtx, TopicScanFailed, ScanEvent{ScanID: rec.ID, Range: rec.Range, Error: scanErr.Error()})
		return models.ScanOutcome{
			ScanID: rec.ID,
			Range:  rec.Range,
			Error:  scanErr.Error(),
		}, nil
	}

	outcome := models.ScanOutcome{
		Success:     true,
		ScanID:      rec.ID,
		Range:       rec.Range,
		CompletedAt: m.now().UTC(),
		Devices:     result.Devices,
		Miners:      result.Miners,
	}
	if m.tracker.end(seq, &outcome) {
		m.metrics.setLatest(len(outcome.Devices), len(outcome.Miners))
	}
	m.metrics.observeScan(models.ScanStatusCompleted, elapsed)
	logger.Info("scan completed",
		zap.Duration("elapsed", elapsed),
		zap.Int("devices", len(outcome.Devices)),
		zap.Int("miners", len(outcome.Miners)),
	)

	m.journalFinish(finishCtx, rec.ID, models.ScanStatusCompleted, len(outcome.Devices), len(outcome.Miners), "")
	m.publish(finishCtx, TopicScanCompleted, ScanEvent{
		ScanID: rec.ID,
		Range:  rec.Range,
		Total:  len(outcome.Devices),
		Miners: len(outcome.Miners),
	})
	for i := range outcome.Miners {
		m.publish(finishCtx, TopicMinerDetected, MinerEvent{ScanID: rec.ID, Device: &outcome.Miners[i]})
	}
	return outcome, nil
}

// Latest returns the newest successful scan outcome.
func (m *Module) Latest() (*models.ScanOutcome, bool) {
	return m.tracker.Latest()
}

func (m *Module) effectiveRange(ctx context.Context, networkRange string) string {
	if strings.TrimSpace(networkRange) != "" {
		return networkRange
	}
	if m.settings == nil {
		return m.cfg.DefaultRange
	}
	v, err := services.StringSetting(ctx, m.settings, services.SettingScanRange, m.cfg.DefaultRange)
	if err != nil {
		m.logger.Warn("failed to read scan range setting", zap.Error(err))
	}
	return v
}

func (m *Module) journalStart(ctx context.Context, rec *models.ScanRecord) {
	if m.scans == nil {
		rec.ID = uuid.New().String()
		return
	}
	if err := m.scans.Create(ctx, rec); err != nil {
		m.logger.Warn("failed to journal scan start", zap.Error(err))
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
	}
}

func (m *Module) journalFinish(ctx context.Context, id, status string, total, miners int, errMsg string) {
	if m.scans == nil {
		return
	}
	if err := m.scans.Finish(ctx, id, status, total, miners, errMsg); err != nil {
		m.logger.Warn("failed to journal scan finish", zap.String("scan_id", id), zap.Error(err))
	}
}

func (m *Module) publish(ctx context.Context, topic string, payload any) {
	if m.bus == nil {
		return
	}
	err := m.bus.Publish(ctx, plugin.Event{
		Topic:     topic,
		Source:    "detect",
		Timestamp: m.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		m.logger.Warn("failed to publish event", zap.String("topic", topic), zap.Error(err))
	}
}
