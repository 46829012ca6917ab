package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockSender) Name() string {
	return m.Called().String(0)
}

type panicSender struct{}

func (panicSender) Send(context.Context, Notification) error { panic("boom") }
func (panicSender) Name() string                             { return "panic" }

func TestNotificationBuilders(t *testing.T) {
	n := Success("Car deleted successfully").ForCar("c1").To("alice")
	assert.Equal(t, LevelSuccess, n.Level)
	assert.Equal(t, "c1", n.CarID)
	assert.Equal(t, "alice", n.Audience)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.CreatedAt.IsZero())

	f := Failure("Failed to delete car")
	assert.Equal(t, LevelError, f.Level)
	assert.NotEqual(t, n.ID, f.ID)
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("sync delivers to every sender", func(t *testing.T) {
		a, b := new(MockSender), new(MockSender)
		n := Success("ok")
		a.On("Send", mock.Anything, n).Return(nil)
		b.On("Send", mock.Anything, n).Return(errors.New("unreachable"))
		b.On("Name").Return("b")

		NewDispatcher(false, a, b).Dispatch(context.Background(), n)

		a.AssertExpectations(t)
		b.AssertExpectations(t)
	})

	t.Run("async waits", func(t *testing.T) {
		flash := NewFlash()
		d := NewDispatcher(true, flash)
		d.Dispatch(context.Background(), Success("ok").To("bob"))
		d.Wait()

		assert.Len(t, flash.Drain("bob"), 1)
	})

	t.Run("canceled caller context does not cancel sends", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("Send", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), mock.Anything).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		NewDispatcher(false, sender).Dispatch(ctx, Success("ok"))

		sender.AssertExpectations(t)
	})

	t.Run("recovers from panicking sender", func(t *testing.T) {
		flash := NewFlash()
		d := NewDispatcher(false, panicSender{}, flash)

		assert.NotPanics(t, func() {
			d.Dispatch(context.Background(), Failure("nope"))
		})
		assert.Len(t, flash.Drain(""), 1)
	})
}

func TestDispatcher_Unregister(t *testing.T) {
	flash := NewFlash()
	d := NewDispatcher(false, flash, NewLogSender())
	d.Unregister("flash")

	d.Dispatch(context.Background(), Success("ok"))
	assert.Empty(t, flash.Drain(""))
}

// blockingSender holds every send until release is closed
type blockingSender struct {
	release chan struct{}
	sent    chan Notification
}

func (b *blockingSender) Send(_ context.Context, n Notification) error {
	<-b.release
	b.sent <- n
	return nil
}

func (b *blockingSender) Name() string { return "blocking" }

func TestDispatcher_NestedAsync(t *testing.T) {
	slow := &blockingSender{release: make(chan struct{}), sent: make(chan Notification, 1)}
	background := NewDispatcher(true, slow)
	flash := NewFlash()
	d := NewDispatcher(false, flash, background)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), Success("Car deleted successfully").To("alice"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("synchronous dispatch waited for the async sender")
	}
	assert.Len(t, flash.Drain("alice"), 1)

	close(slow.release)
	background.Wait()
	n := <-slow.sent
	assert.Equal(t, "Car deleted successfully", n.Message)
}

func TestFlash(t *testing.T) {
	f := NewFlash()
	ctx := context.Background()

	for i := 0; i < maxFlashPerAudience+5; i++ {
		require.NoError(t, f.Send(ctx, Success("ok").To("alice")))
	}
	require.NoError(t, f.Send(ctx, Failure("bad").To("bob")))

	alice := f.Drain("alice")
	assert.Len(t, alice, maxFlashPerAudience)
	assert.Empty(t, f.Drain("alice"))

	bob := f.Drain("bob")
	require.Len(t, bob, 1)
	assert.Equal(t, LevelError, bob[0].Level)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&log.JSONFormatter{})

	s := &LogSender{Logger: logger}
	require.NoError(t, s.Send(context.Background(), Failure("Failed to delete car").ForCar("c9")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "Failed to delete car", entry["msg"])
	assert.Equal(t, "c9", entry["car_id"])
}

// fakeToken is an mqtt.Token completed up front or never
type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, completed bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if completed {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakePublisher struct {
	mu       sync.Mutex
	topic    string
	qos      byte
	payloads [][]byte
	token    mqtt.Token
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.qos = qos
	p.payloads = append(p.payloads, payload.([]byte))
	return p.token
}

func TestMQTTSender_Send(t *testing.T) {
	t.Run("publishes JSON", func(t *testing.T) {
		pub := &fakePublisher{token: newFakeToken(nil, true)}
		s := &MQTTSender{client: pub, topic: "carrental/notifications"}

		n := Success("Car deleted successfully").ForCar("c1")
		require.NoError(t, s.Send(context.Background(), n))

		assert.Equal(t, "carrental/notifications", pub.topic)
		assert.Equal(t, byte(1), pub.qos)
		require.Len(t, pub.payloads, 1)

		var got Notification
		require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "c1", got.CarID)
	})

	t.Run("broker error", func(t *testing.T) {
		pub := &fakePublisher{token: newFakeToken(errors.New("not authorized"), true)}
		s := &MQTTSender{client: pub, topic: "t"}

		assert.EqualError(t, s.Send(context.Background(), Success("ok")), "not authorized")
	})

	t.Run("context ends before ack", func(t *testing.T) {
		pub := &fakePublisher{token: newFakeToken(nil, false)}
		s := &MQTTSender{client: pub, topic: "t"}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.Send(ctx, Success("ok")), context.DeadlineExceeded)
	})

	t.Run("close without connection", func(t *testing.T) {
		s := &MQTTSender{}
		assert.Error(t, s.Close())
	})
}
