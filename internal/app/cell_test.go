package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelstay/internal/adapters/memkv"
	"hotelstay/internal/app"
	"hotelstay/internal/domain"
)

func sampleHotel() domain.Hotel {
	return domain.Hotel{
		ID: "h-1", Name: "Casa do Rio", City: "Porto", Country: "PT",
		Stars: ptr(4), Rating: ptr(8.7), Amenities: []string{"wifi", "pool"},
	}
}

func sampleBooking() domain.Booking {
	return domain.Booking{
		ID: "b-1", HotelID: "h-1", CheckIn: "2026-11-01T14:00:00Z", CheckOut: "2026-11-03T11:00:00Z",
		Guests: 2, Status: domain.BookingConfirmed,
		Payment: domain.Payment{
			PaidAmount:  decimal.RequireFromString("100"),
			TotalAmount: decimal.RequireFromString("240.5"),
			Status:      domain.PaymentPartial,
		},
		Room: domain.Room{RoomNumber: "204", Type: "double"},
	}
}

func TestHotelStore_SetIsImmediateAndSurvivesRestart(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	s := app.NewHotelStore(kv, nil, time.Second)
	assert.Equal(t, app.Uninitialized, s.State())

	h := sampleHotel()
	p := s.SetCurrent(ctx, &h)
	got, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, h, got)
	assert.Equal(t, app.Populated, s.State())
	require.NoError(t, p.Wait(ctx))

	restarted := app.NewHotelStore(kv, nil, time.Second)
	require.True(t, restarted.InitializeFromStorage(ctx))
	got, ok = restarted.Current()
	require.True(t, ok)
	assert.Equal(t, h, got)
}

func TestBookingStore_RoundTrip(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	s := app.NewBookingStore(kv, nil, time.Second)

	b := sampleBooking()
	require.NoError(t, s.SetCurrent(ctx, &b).Wait(ctx))

	restarted := app.NewBookingStore(kv, nil, time.Second)
	require.True(t, restarted.InitializeFromStorage(ctx))
	got, ok := restarted.Current()
	require.True(t, ok)

	want, _ := json.Marshal(b)
	have, _ := json.Marshal(got)
	assert.JSONEq(t, string(want), string(have))
	assert.True(t, got.Payment.Outstanding().Equal(decimal.RequireFromString("140.5")))
}

func TestCell_SetNilDeletesKey(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	s := app.NewHotelStore(kv, nil, time.Second)
	h := sampleHotel()
	require.NoError(t, s.SetCurrent(ctx, &h).Wait(ctx))
	require.NoError(t, s.SetCurrent(ctx, nil).Wait(ctx))

	_, ok := kv.Raw(domain.KeyHotelDetails)
	assert.False(t, ok, "key must be absent, not a stored null")

	restarted := app.NewHotelStore(kv, nil, time.Second)
	assert.False(t, restarted.InitializeFromStorage(ctx))
	_, ok = restarted.Current()
	assert.False(t, ok)
	assert.Equal(t, app.Empty, restarted.State())
}

func TestGroupStore_IntegerEncoding(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	g := app.NewGroupStore(kv, time.Second)

	require.NoError(t, g.SetCurrentGroup(ctx, ptr(5)).Wait(ctx))
	raw, ok := kv.Raw(domain.KeyGroupID)
	require.True(t, ok)
	assert.Equal(t, "5", raw)

	restarted := app.NewGroupStore(kv, time.Second)
	require.True(t, restarted.InitializeFromStorage(ctx))
	id, ok := restarted.GetCurrentGroup()
	require.True(t, ok)
	assert.Equal(t, 5, id)

	require.NoError(t, restarted.SetCurrentGroup(ctx, nil).Wait(ctx))
	_, ok = kv.Raw(domain.KeyGroupID)
	assert.False(t, ok)
}

func TestHotelIDStore_RawString(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	s := app.NewHotelIDStore(kv, time.Second)
	require.NoError(t, s.SetCurrent(ctx, ptr("12")).Wait(ctx))
	raw, _ := kv.Raw(domain.KeyHotelID)
	assert.Equal(t, "12", raw)
}

func TestCell_InitializeLeavesBadDataAlone(t *testing.T) {
	ctx := context.Background()
	kv := memkv.New()
	kv.Put(domain.KeyGroupID, "five")
	kv.Put(domain.KeyHotelDetails, "<html>")
	writes := 0
	kv.SetErr = func(string, string) error { writes++; return nil }
	kv.DelErr = func(string) error { writes++; return nil }

	g := app.NewGroupStore(kv, time.Second)
	assert.False(t, g.InitializeFromStorage(ctx))
	assert.Equal(t, app.Empty, g.State())

	h := app.NewHotelStore(kv, nil, time.Second)
	assert.False(t, h.InitializeFromStorage(ctx))
	assert.False(t, h.InitializeFromStorage(ctx)) // idempotent

	assert.Zero(t, writes, "no write-back on read failure")
	raw, _ := kv.Raw(domain.KeyGroupID)
	assert.Equal(t, "five", raw)
}

func TestCell_InitializeReadError(t *testing.T) {
	kv := memkv.New()
	kv.Put(domain.KeyBooking, `{"id":"b"}`)
	kv.GetErr = func(string) error { return errors.New("io") }
	s := app.NewBookingStore(kv, nil, time.Second)
	assert.False(t, s.InitializeFromStorage(context.Background()))
	assert.Equal(t, app.Empty, s.State())
}

func TestCell_PersistFailureKeepsMemory(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	boom := errors.New("disk full")
	kv.SetErr = func(string, string) error { return boom }
	kv.DelErr = func(string) error { return boom }
	s := app.NewHotelStore(kv, nil, time.Second)

	h := sampleHotel()
	assert.ErrorIs(t, s.SetCurrent(ctx, &h).Wait(ctx), boom)
	got, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, h.ID, got.ID)

	// clear still resets memory when the delete fails
	assert.ErrorIs(t, s.ClearCurrent(ctx).Wait(ctx), boom)
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Equal(t, app.Empty, s.State())
}

func TestCell_LastWriteWinsWithSlowEarlierWrite(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	kv.BeforeSet = func(key, value string) {
		if value == "1" {
			once.Do(func() { close(entered) })
			<-release
		}
	}
	g := app.NewGroupStore(kv, time.Second)

	p1 := g.SetCurrentGroup(ctx, ptr(1))
	<-entered // first write is stuck in storage
	p2 := g.SetCurrentGroup(ctx, ptr(2))

	cur, _ := g.GetCurrentGroup()
	assert.Equal(t, 2, cur, "memory reflects the latest call immediately")
	assert.Less(t, p1.Seq(), p2.Seq())

	close(release)
	require.NoError(t, p1.Wait(ctx))
	require.NoError(t, p2.Wait(ctx))
	require.NoError(t, g.Flush(ctx))

	raw, _ := kv.Raw(domain.KeyGroupID)
	assert.Equal(t, "2", raw)
}

func TestCell_ConcurrentWritersConverge(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	g := app.NewGroupStore(kv, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.SetCurrentGroup(ctx, ptr(i))
		}(i)
	}
	wg.Wait()
	require.NoError(t, g.Flush(ctx))

	cur, ok := g.GetCurrentGroup()
	require.True(t, ok)
	raw, _ := kv.Raw(domain.KeyGroupID)
	enc, _ := app.IntCodec{}.Encode(cur)
	assert.Equal(t, enc, raw, "durable mirror matches memory")
}

func TestCell_InitializeDoesNotClobberNewerWrite(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	kv.Put(domain.KeyHotelID, "old")
	s := app.NewHotelIDStore(kv, time.Second)
	var once sync.Once
	kv.GetErr = func(string) error {
		once.Do(func() { s.SetCurrent(ctx, ptr("new")) })
		return nil
	}

	assert.False(t, s.InitializeFromStorage(ctx))
	cur, _ := s.Current()
	assert.Equal(t, "new", cur)
}

func TestCell_Watch(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	s := app.NewGroupStore(memkv.New(), time.Second)

	var mu sync.Mutex
	var seen []int
	unsub := s.Watch(func(v int, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		if !ok {
			v = -1
		}
		seen = append(seen, v)
	})
	s.SetCurrentGroup(ctx, ptr(3))
	s.ClearCurrent(ctx)
	unsub()
	s.SetCurrentGroup(ctx, ptr(9))
	require.NoError(t, s.Flush(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, -1}, seen)
}

func TestCell_ReinitializeKeepsPendingWrite(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	kv.Put(domain.KeyHotelID, "old")
	s := app.NewHotelIDStore(kv, time.Second)
	require.True(t, s.InitializeFromStorage(ctx))

	entered := make(chan struct{})
	release := make(chan struct{})
	kv.BeforeSet = func(_, value string) {
		if value == "new" {
			close(entered)
			<-release
		}
	}
	p := s.SetCurrent(ctx, ptr("new"))
	<-entered // durable copy still says "old"

	assert.False(t, s.InitializeFromStorage(ctx))
	cur, _ := s.Current()
	assert.Equal(t, "new", cur)

	close(release)
	require.NoError(t, p.Wait(ctx))
	raw, _ := kv.Raw(domain.KeyHotelID)
	assert.Equal(t, "new", raw)
	cur, _ = s.Current()
	assert.Equal(t, "new", cur, "memory and storage agree")
}

func TestCell_InitializeAfterSetIsNoop(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	kv.Put(domain.KeyGroupID, "1")
	g := app.NewGroupStore(kv, time.Second)

	g.SetCurrentGroup(ctx, ptr(2))
	assert.False(t, g.InitializeFromStorage(ctx))
	cur, _ := g.GetCurrentGroup()
	assert.Equal(t, 2, cur)
	require.NoError(t, g.Flush(ctx))
}

func TestCell_FlushWhileWriting(t *testing.T) {
	ctx, cancel := waitCtx()
	defer cancel()
	kv := memkv.New()
	g := app.NewGroupStore(kv, time.Second)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				g.SetCurrentGroup(ctx, ptr(w*1000+i))
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, g.Flush(ctx))
			}
		}()
	}
	assert.NotPanics(t, wg.Wait)
	require.NoError(t, g.Flush(ctx))

	cur, _ := g.GetCurrentGroup()
	raw, _ := kv.Raw(domain.KeyGroupID)
	enc, _ := app.IntCodec{}.Encode(cur)
	assert.Equal(t, enc, raw)
}
