package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	"github.com/neighborcast/neighborcast-api/internal/mocks"
	"github.com/neighborcast/neighborcast-api/internal/service/configcache"
)

// memBroker is an in-memory shared tier with pub/sub, standing in for Redis
// between cache instances of different processes. TTLs are ignored.
type memBroker struct {
	mu   sync.Mutex
	kv   map[string][]byte
	subs map[string][]func(string)
	// subscribed receives one value per Subscribe call.
	subscribed chan struct{}
}

func newMemBroker() *memBroker {
	return &memBroker{
		kv:         make(map[string][]byte),
		subs:       make(map[string][]func(string)),
		subscribed: make(chan struct{}, 8),
	}
}

func (b *memBroker) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kv[key] = append([]byte(nil), value...)
	return nil
}

func (b *memBroker) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.kv[key], nil
}

func (b *memBroker) Delete(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.kv[key]
	delete(b.kv, key)
	return ok, nil
}

func (b *memBroker) Publish(_ context.Context, channel, payload string) (int64, error) {
	b.mu.Lock()
	handlers := append([]func(string){}, b.subs[channel]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
	return int64(len(handlers)), nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string, handler func(string)) error {
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], handler)
	b.mu.Unlock()
	b.subscribed <- struct{}{}
	<-ctx.Done()
	return nil
}

func (b *memBroker) Health(context.Context) error { return nil }

// entries returns the shared entries holding an active id, keyed by full key.
func (b *memBroker) entries() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string)
	for k, v := range b.kv {
		if strings.HasPrefix(k, configcache.DefaultSharedKey+":") {
			out[k] = string(v)
		}
	}
	return out
}

// memSettings is the durable pointer, counting reads.
type memSettings struct {
	mu    sync.Mutex
	id    string
	reads int
}

func (s *memSettings) GetActiveConfigID(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.id, s.id != "", nil
}

func (s *memSettings) UpsertActiveConfig(_ context.Context, id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return testNow, nil
}

func (s *memSettings) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func TestCutover_ThroughRealCache(t *testing.T) {
	const cfgB = "7a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := newMemBroker()
	settings := &memSettings{id: cfgID}
	newCache := func() *configcache.ActiveConfigCache {
		return configcache.New(configcache.Deps{
			Shared: broker,
			Store:  settings,
			Config: configcache.Config{LocalTTL: time.Hour},
			Logger: quietLogger(),
		})
	}
	writer, reader := newCache(), newCache()

	listening := make(chan error, 1)
	go func() { listening <- reader.Listen(ctx) }()
	select {
	case <-broker.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never subscribed")
	}

	ctrl := gomock.NewController(t)
	configs := mocks.NewMockWeightConfigRepository(ctrl)
	svc, err := NewCutoverService(CutoverServiceOptions{
		Stores: CutoverStores{Settings: settings, Configs: configs},
		Cache:  writer,
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	// Before: the writer fills both tiers, the reader is served by the shared tier.
	id, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfgID, id)
	id, ok, err := reader.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfgID, id)
	assert.Equal(t, 1, settings.readCount(), "reader is served by the shared tier")
	assert.Equal(t, map[string]string{configcache.DefaultSharedKey + ":0": cfgID}, broker.entries())

	gomock.InOrder(
		configs.EXPECT().GetByID(gomock.Any(), cfgB).Return(&model.WeightConfig{ID: cfgB}, nil),
		configs.EXPECT().SetActiveFlag(gomock.Any(), cfgB).Return(nil),
	)
	res, err := svc.Activate(ctx, cfgB, "root")
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	// After: the writer's local tier was dropped, the reader's by broadcast.
	id, err = svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfgB, id)
	id, _, err = reader.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfgB, id)
	assert.Equal(t, 2, settings.readCount(), "one store read after the cutover")

	// The shared tier holds the new id under the bumped version only.
	version, err := broker.Get(ctx, configcache.DefaultVersionKey)
	require.NoError(t, err)
	require.NotEmpty(t, version)
	assert.Equal(t, cfgB, broker.entries()[configcache.DefaultSharedKey+":"+string(version)])

	// A process started after the cutover reads the new id from the shared tier.
	late := newCache()
	id, _, err = late.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfgB, id)
	assert.Equal(t, 2, settings.readCount())

	cancel()
	select {
	case err := <-listening:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}
