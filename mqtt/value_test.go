package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	options WriteOptions
	payload string
}

type recordingWriter struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (r *recordingWriter) WriteTopic(_ context.Context, topic string, options WriteOptions, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, published{topic: topic, options: options, payload: string(value)})
	return r.err
}

func TestValue(t *testing.T) {
	ctx := context.Background()

	t.Run("Write", func(t *testing.T) {
		w := &recordingWriter{}
		sut := NewValueWithOptions[uint]("brightness", UintMarshaler, WriteOptions{Retain: true})

		_, ok := sut.Get()
		require.False(t, ok)

		require.NoError(t, sut.Write(ctx, w, "magichome/porch", 42))

		v, ok := sut.Get()
		assert.True(t, ok)
		assert.EqualValues(t, 42, v)
		assert.Equal(t, []published{{topic: "magichome/porch/brightness", options: WriteOptions{Retain: true}, payload: "42"}}, w.msgs)
	})

	t.Run("Write Failure Keeps Value", func(t *testing.T) {
		boom := errors.New("boom")
		sut := NewValue[string]("state", StringMarshaler)

		require.ErrorIs(t, sut.Write(ctx, &recordingWriter{err: boom}, "", "ON"), boom)

		v, ok := sut.Get()
		assert.True(t, ok)
		assert.Equal(t, "ON", v)
	})

	t.Run("No Marshaler", func(t *testing.T) {
		require.ErrorIs(t, NewValue[string]("state", nil).Write(ctx, &recordingWriter{}, "", "ON"), ErrNoMarshaler)
	})

	t.Run("Nil Value", func(t *testing.T) {
		var sut *Value[string]

		assert.Empty(t, sut.FullyQualifiedTopic("foo"))
		assert.NoError(t, sut.Write(ctx, &recordingWriter{}, "", "ON"))
		assert.NoError(t, sut.Republish(ctx, &recordingWriter{}, ""))
	})

	t.Run("Republish", func(t *testing.T) {
		w := &recordingWriter{}
		sut := NewValue[string]("state", StringMarshaler)

		require.ErrorIs(t, sut.Republish(ctx, w, "p"), ErrNeverWritten)

		require.NoError(t, sut.Write(ctx, w, "p", "OFF"))
		require.NoError(t, sut.Republish(ctx, w, "p"))

		require.Len(t, w.msgs, 2)
		assert.Equal(t, w.msgs[0], w.msgs[1])
	})
}

func TestRemoteValue(t *testing.T) {
	t.Run("Ignores Other Topics", func(t *testing.T) {
		sut := NewRemoteValue[string]("command", StringUnmarshaler)
		sut.ServeMQTT(nil, "other", []byte("ON"))

		_, ok := sut.Get()
		require.False(t, ok)
	})

	t.Run("Watch And Unwatch", func(t *testing.T) {
		sut := NewRemoteValue[uint]("brightness/set", UintUnmarshaler)

		var first, second []uint
		id := sut.Watch(func(v uint) { first = append(first, v) })
		sut.Watch(func(v uint) { second = append(second, v) })

		sut.ServeMQTT(nil, "brightness/set", []byte("10"))
		sut.Unwatch(id)
		sut.ServeMQTT(nil, "brightness/set", []byte("20"))

		assert.Equal(t, []uint{10}, first)
		assert.Equal(t, []uint{10, 20}, second)

		v, ok := sut.Get()
		assert.True(t, ok)
		assert.EqualValues(t, 20, v)
	})

	t.Run("Bad Payload", func(t *testing.T) {
		sut := NewRemoteValue[uint]("brightness/set", UintUnmarshaler)

		called := false
		sut.Watch(func(uint) { called = true })
		sut.ServeMQTT(nil, "brightness/set", []byte("bright"))

		assert.False(t, called)
		_, ok := sut.Get()
		assert.False(t, ok)
	})

	t.Run("Subscriptions", func(t *testing.T) {
		var nilValue *RemoteValue[string]
		sut := NewRemoteValueWithOptions[string]("command", StringUnmarshaler, ReadOptions{QoS: QOSAtLeastOnce})

		got := nilValue.AppendSubscriptions(nil, "p")
		got = sut.AppendSubscriptions(got, "p")

		assert.Equal(t, []Subscription{{Topic: "p/command", Options: ReadOptions{QoS: QOSAtLeastOnce}}}, got)
	})

	t.Run("Nil Value", func(t *testing.T) {
		var sut *RemoteValue[string]

		require.NotPanics(t, func() {
			id := sut.Watch(func(string) { t.Fatal("nil value should never call watchers") })
			sut.Unwatch(id)
		})

		_, ok := sut.Get()
		assert.False(t, ok)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := sut.Await(ctx, DesiredValue("online"))
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Await", func(t *testing.T) {
		sut := NewRemoteValue[string]("status", StringUnmarshaler)

		go func() {
			time.Sleep(10 * time.Millisecond)
			sut.ServeMQTT(nil, "status", []byte("offline"))
			sut.ServeMQTT(nil, "status", []byte("online"))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		got, err := sut.Await(ctx, DesiredValue("online"))
		require.NoError(t, err)
		assert.Equal(t, "online", got)
	})

	t.Run("Await Current Value", func(t *testing.T) {
		sut := NewRemoteValue[string]("status", StringUnmarshaler)
		sut.ServeMQTT(nil, "status", []byte("online"))

		got, err := sut.Await(context.Background(), DesiredValue("online"))
		require.NoError(t, err)
		assert.Equal(t, "online", got)
	})

	t.Run("Await Cancelled", func(t *testing.T) {
		sut := NewRemoteValue[string]("status", StringUnmarshaler)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := sut.Await(ctx, DesiredValue("online"))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestUintUnmarshaler(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    uint
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "100", want: 100},
		{in: " 42\n", want: 42},
		{in: "42.0", want: 42},
		{in: "42.5", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "bright", wantErr: true},
	} {
		t.Run(tt.in, func(t *testing.T) {
			got, err := UintUnmarshaler([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
