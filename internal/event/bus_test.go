package event_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HerbHall/minerwatch/internal/detect"
	"github.com/HerbHall/minerwatch/internal/event"
	"github.com/HerbHall/minerwatch/internal/testutil"
	"github.com/HerbHall/minerwatch/pkg/models"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

func scanCompleted(id string, total, miners int) plugin.Event {
	return plugin.Event{
		Topic:     detect.TopicScanCompleted,
		Source:    "detect",
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Payload:   detect.ScanEvent{ScanID: id, Range: "192.168.1.0/24", Total: total, Miners: miners},
	}
}

func minerDetected(id, ip string) plugin.Event {
	minerType := "Antminer S19"
	return plugin.Event{
		Topic:  detect.TopicMinerDetected,
		Source: "detect",
		Payload: detect.MinerEvent{
			ScanID: id,
			Device: &models.Device{IP: ip, IsMiner: true, MinerType: &minerType},
		},
	}
}

func TestBus_DeliversScanCompletedPayload(t *testing.T) {
	bus := event.NewBus(testutil.Logger())

	var got detect.ScanEvent
	bus.Subscribe(detect.TopicScanCompleted, func(_ context.Context, e plugin.Event) {
		got = e.Payload.(detect.ScanEvent)
	})

	require.NoError(t, bus.Publish(context.Background(), scanCompleted("scan-1", 15, 4)))
	assert.Equal(t, "scan-1", got.ScanID)
	assert.Equal(t, 15, got.Total)
	assert.Equal(t, 4, got.Miners)
}

func TestBus_TopicSubscriberIgnoresOtherTopics(t *testing.T) {
	bus := event.NewBus(testutil.Logger())

	var miners, everything atomic.Int32
	bus.Subscribe(detect.TopicMinerDetected, func(context.Context, plugin.Event) { miners.Add(1) })
	bus.SubscribeAll(func(context.Context, plugin.Event) { everything.Add(1) })

	ctx := context.Background()
	for _, topic := range detect.Topics {
		require.NoError(t, bus.Publish(ctx, plugin.Event{Topic: topic, Source: "detect"}))
	}

	assert.Equal(t, int32(1), miners.Load())
	assert.Equal(t, int32(len(detect.Topics)), everything.Load())
}

func TestBus_UnsubscribeStopsMinerAlerts(t *testing.T) {
	bus := event.NewBus(testutil.Logger())

	var seen []string
	unsub := bus.Subscribe(detect.TopicMinerDetected, func(_ context.Context, e plugin.Event) {
		seen = append(seen, e.Payload.(detect.MinerEvent).Device.IP)
	})

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, minerDetected("scan-1", "192.168.1.12")))
	unsub()
	require.NoError(t, bus.Publish(ctx, minerDetected("scan-2", "192.168.1.13")))

	assert.Equal(t, []string{"192.168.1.12"}, seen)
}

func TestBus_UnsubscribeWildcard(t *testing.T) {
	bus := event.NewBus(testutil.Logger())

	var count atomic.Int32
	unsub := bus.SubscribeAll(func(context.Context, plugin.Event) { count.Add(1) })

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, scanCompleted("scan-1", 3, 0)))
	unsub()
	require.NoError(t, bus.Publish(ctx, scanCompleted("scan-2", 3, 0)))

	assert.Equal(t, int32(1), count.Load())
}

func TestBus_PublishAsyncFansOutEveryMiner(t *testing.T) {
	bus := event.NewBus(testutil.Logger())
	ips := []string{"10.0.0.10", "10.0.0.11", "10.0.0.14"}

	var wg sync.WaitGroup
	wg.Add(len(ips) * 2)
	var mu sync.Mutex
	received := map[string]int{}
	record := func(_ context.Context, e plugin.Event) {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		received[e.Payload.(detect.MinerEvent).Device.IP]++
	}
	bus.Subscribe(detect.TopicMinerDetected, record)
	bus.SubscribeAll(record)

	for _, ip := range ips {
		bus.PublishAsync(context.Background(), minerDetected("scan-1", ip))
	}
	wg.Wait()

	for _, ip := range ips {
		assert.Equal(t, 2, received[ip], ip)
	}
}

func TestBus_PanickingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := event.NewBus(testutil.Logger())

	bus.Subscribe(detect.TopicMinerDetected, func(context.Context, plugin.Event) {
		panic("alert sink exploded")
	})
	var got string
	bus.Subscribe(detect.TopicMinerDetected, func(_ context.Context, e plugin.Event) {
		got = e.Payload.(detect.MinerEvent).Device.IP
	})

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(), minerDetected("scan-1", "192.168.1.20"))
	})
	assert.Equal(t, "192.168.1.20", got)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := event.NewBus(testutil.Logger())
	assert.NoError(t, bus.Publish(context.Background(), scanCompleted("scan-1", 0, 0)))
}

func TestBus_SubscribeWhilePublishing(t *testing.T) {
	bus := event.NewBus(testutil.Logger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(detect.TopicScanStarted, func(context.Context, plugin.Event) {})
			unsub()
		}()
		go func() {
			defer wg.Done()
			_ = bus.Publish(ctx, plugin.Event{Topic: detect.TopicScanStarted})
		}()
	}
	wg.Wait()
}
