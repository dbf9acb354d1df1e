package app

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hotelstay/internal/adapters/observability"
	"hotelstay/internal/domain"
)

// Codec turns a cell value into its durable string form and back.
type Codec[T any] interface {
	Encode(v T) (string, error)
	Decode(s string) (T, error)
}

var errUnusable = errors.New("stored value is unusable")

type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (JSONCodec[T]) Decode(s string) (T, error) {
	var v T
	t := strings.TrimSpace(s)
	if t == "" || t == "null" || strings.HasPrefix(t, "<") {
		return v, errUnusable
	}
	err := json.Unmarshal([]byte(t), &v)
	return v, err
}

// StringCodec stores the value verbatim.
type StringCodec struct{}

func (StringCodec) Encode(v string) (string, error) { return v, nil }

func (StringCodec) Decode(s string) (string, error) {
	if s == "" {
		return "", errUnusable
	}
	return s, nil
}

// IntCodec stores integers as their decimal string.
type IntCodec struct{}

func (IntCodec) Encode(v int) (string, error) { return strconv.Itoa(v), nil }

func (IntCodec) Decode(s string) (int, error) { return strconv.Atoi(strings.TrimSpace(s)) }

type CellState int

const (
	Uninitialized CellState = iota
	Empty
	Populated
)

func (s CellState) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case Populated:
		return "POPULATED"
	}
	return "UNINITIALIZED"
}

// Pending tracks the asynchronous durable write started by SetCurrent.
type Pending struct {
	seq  uint64
	done chan struct{}
	err  error
}

// Seq is the cell's write sequence number for this write.
func (p *Pending) Seq() uint64 { return p.seq }

func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the write attempt finished. The returned error is
// informational; the in-memory value is never rolled back.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cell holds one "currently selected" value in memory and mirrors it to a
// single durable key. Memory is authoritative; storage is only read by
// InitializeFromStorage.
type Cell[T any] struct {
	name    string
	key     string
	kv      domain.KV
	codec   Codec[T]
	timeout time.Duration

	mu       sync.RWMutex
	val      T
	has      bool
	state    CellState
	seq      uint64
	watchers map[int]func(T, bool)
	nextW    int
	open     map[uint64]*Pending // writes not yet finished, guarded by mu

	// persistMu orders durable writes; landed is the newest seq attempted.
	persistMu sync.Mutex
	landed    uint64
}

func NewCell[T any](name, key string, kv domain.KV, codec Codec[T], timeout time.Duration) *Cell[T] {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Cell[T]{name: name, key: key, kv: kv, codec: codec, timeout: timeout,
		watchers: map[int]func(T, bool){}, open: map[uint64]*Pending{}}
}

func (c *Cell[T]) Name() string { return c.name }

func (c *Cell[T]) Key() string { return c.key }

// Current returns the live value.
func (c *Cell[T]) Current() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val, c.has
}

func (c *Cell[T]) State() CellState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Watch registers fn to be called after every change. fn must not block.
func (c *Cell[T]) Watch(fn func(v T, ok bool)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextW
	c.nextW++
	c.watchers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// SetCurrent updates memory immediately, then persists in the background:
// a value is encoded and written, nil deletes the key.
func (c *Cell[T]) SetCurrent(ctx context.Context, v *T) *Pending {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if v == nil {
		var zero T
		c.val, c.has, c.state = zero, false, Empty
	} else {
		c.val, c.has, c.state = *v, true, Populated
	}
	val, has := c.val, c.has
	p := &Pending{seq: seq, done: make(chan struct{})}
	c.open[seq] = p
	fns := make([]func(T, bool), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(val, has)
	}

	go c.persist(context.WithoutCancel(ctx), p, val, has)
	return p
}

// ClearCurrent resets memory first, then deletes the durable key.
func (c *Cell[T]) ClearCurrent(ctx context.Context) *Pending {
	return c.SetCurrent(ctx, nil)
}

func (c *Cell[T]) persist(ctx context.Context, p *Pending, val T, has bool) {
	defer func() {
		c.mu.Lock()
		delete(c.open, p.seq)
		c.mu.Unlock()
		close(p.done)
	}()

	c.persistMu.Lock()
	defer c.persistMu.Unlock()
	if p.seq < c.landed {
		// a newer write already reached storage
		observability.StoreOps.WithLabelValues(c.name, "persist", "skip").Inc()
		return
	}
	c.landed = p.seq

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	op := "set"
	if has {
		var raw string
		raw, p.err = c.codec.Encode(val)
		if p.err == nil {
			p.err = c.kv.Set(ctx, c.key, raw)
		}
	} else {
		op = "delete"
		p.err = c.kv.Delete(ctx, c.key)
	}
	if p.err != nil {
		log.Error().Err(p.err).Str("store", c.name).Str("key", c.key).Uint64("seq", p.seq).Str("op", op).
			Msg("persist failed; keeping in-memory value")
	}
	observability.ObserveStore(c.name, op, p.err == nil)
}

// Flush waits for every persistence attempt started before the call. Writes
// started while flushing are not waited for.
func (c *Cell[T]) Flush(ctx context.Context) error {
	c.mu.RLock()
	pending := make([]*Pending, 0, len(c.open))
	for _, p := range c.open {
		pending = append(pending, p)
	}
	c.mu.RUnlock()

	for _, p := range pending {
		select {
		case <-p.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// InitializeFromStorage loads the durable value into memory. Missing or
// unreadable data leaves the cell empty and nothing is written back. It only
// loads once: after a load or any SetCurrent, memory is authoritative and
// later calls are no-ops. A write made while loading wins over the loaded
// value. Reports whether memory was populated from storage by this call.
func (c *Cell[T]) InitializeFromStorage(ctx context.Context) bool {
	c.mu.RLock()
	before, state := c.seq, c.state
	c.mu.RUnlock()
	if state != Uninitialized || before > 0 {
		return false
	}

	raw, ok, err := c.kv.Get(ctx, c.key)
	var v T
	if err != nil {
		log.Warn().Err(err).Str("store", c.name).Str("key", c.key).Msg("initialize: read failed")
		ok = false
	} else if ok {
		if v, err = c.codec.Decode(raw); err != nil {
			log.Warn().Err(err).Str("store", c.name).Str("key", c.key).Msg("initialize: ignoring unparseable value")
			ok = false
		}
	}

	c.mu.Lock()
	if c.seq != before || c.state != Uninitialized {
		c.mu.Unlock()
		return false
	}
	if !ok {
		if c.state == Uninitialized {
			c.state = Empty
		}
		c.mu.Unlock()
		observability.ObserveStore(c.name, "init", err == nil)
		return false
	}
	c.val, c.has, c.state = v, true, Populated
	fns := make([]func(T, bool), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v, true)
	}
	observability.ObserveStore(c.name, "init", true)
	return true
}
