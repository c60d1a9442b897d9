package signal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brojonat/cobuy/service/db"
	"github.com/brojonat/cobuy/service/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	info metadata.TokenInfo
}

func (f fakeResolver) Resolve(ctx context.Context, token string) metadata.TokenInfo {
	info := f.info
	info.Address = token
	return info
}

type fakeNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	messages []Message
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

type fakeStore struct {
	err     error
	records []*db.Signal
}

func (f *fakeStore) AppendSignal(ctx context.Context, sig *db.Signal) error {
	if f.err != nil {
		return f.err
	}
	sig.ID = int64(len(f.records) + 1)
	f.records = append(f.records, sig)
	return nil
}

func TestEmit(t *testing.T) {
	store := &fakeStore{}
	tg := &fakeNotifier{name: "telegram"}
	emitter := NewEmitter(fakeResolver{info: testToken()}, store, []Notifier{tg}, EmitterConfig{Timeout: time.Second})
	fired := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	emitter.now = func() time.Time { return fired }

	record, err := emitter.Emit(context.Background(), testSnapshot())
	require.NoError(t, err)

	require.Len(t, tg.messages, 1)
	assert.Contains(t, tg.messages[0].HTML, "3 Wallets Have Bought")
	assert.Equal(t, 3, tg.messages[0].Alert.WalletCount())

	require.Len(t, store.records, 1)
	assert.Equal(t, record, store.records[0])
	assert.Equal(t, "MINT1", record.TokenAddress)
	assert.Equal(t, "Dog <Coin>", record.TokenName)
	assert.Equal(t, 1234567.0, record.MarketCap)
	assert.Equal(t, 3, record.WalletCount)
	assert.Equal(t, fired, record.Timestamp)
}

func TestEmit_UnavailableMarketCapStoredAsZero(t *testing.T) {
	store := &fakeStore{}
	emitter := NewEmitter(fakeResolver{info: metadata.UnknownToken("")}, store, nil, EmitterConfig{})

	record, err := emitter.Emit(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Zero(t, record.MarketCap)
	assert.Equal(t, "Unknown", record.TokenName)
	assert.Equal(t, "???", record.TokenSymbol)
}

func TestEmit_DeliveryFailureDoesNotStopOthers(t *testing.T) {
	store := &fakeStore{}
	broken := &fakeNotifier{name: "broken", err: errors.New("channel down")}
	working := &fakeNotifier{name: "working"}
	emitter := NewEmitter(fakeResolver{info: testToken()}, store, []Notifier{broken, working}, EmitterConfig{})

	_, err := emitter.Emit(context.Background(), testSnapshot())
	require.NoError(t, err)

	assert.Len(t, broken.messages, 1, "delivery is attempted once")
	assert.Len(t, working.messages, 1)
	assert.Len(t, store.records, 1, "record is persisted even when a channel fails")
}

func TestEmit_PersistFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	n := &fakeNotifier{name: "n"}
	emitter := NewEmitter(fakeResolver{info: testToken()}, store, []Notifier{n}, EmitterConfig{})

	record, err := emitter.Emit(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.NotNil(t, record)
	assert.Len(t, n.messages, 1, "alert is delivered before persistence")
}

func TestEmit_NilResolverAndStore(t *testing.T) {
	emitter := NewEmitter(nil, nil, nil, EmitterConfig{})

	record, err := emitter.Emit(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "MINT1", record.TokenAddress)
	assert.Equal(t, "Unknown", record.TokenName)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(testLogger())
	assert.Equal(t, "log", n.Name())
	assert.NoError(t, n.Notify(context.Background(), Render(NewAlert(testSnapshot(), testToken(), time.Now()), "")))
}
