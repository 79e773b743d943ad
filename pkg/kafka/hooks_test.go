package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceHookCopiesHeader(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: HeaderTraceID, Value: []byte("abc")}}}
	ctx, _, _, err := TraceHook{}.BeforeHandle(context.Background(), "t", km, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", TraceIDFrom(ctx))
	_, ok := ctx.Value(CtxStartTime).(time.Time)
	assert.True(t, ok)
}

func TestJSONHookRejectsNonObjects(t *testing.T) {
	tests := []struct {
		payload string
		wantErr bool
	}{
		{`{"round_id":"r"}`, false},
		{`[1,2]`, true},
		{`not json`, true},
	}
	for _, tt := range tests {
		_, _, _, err := JSONHook{}.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte(tt.payload))
		if !tt.wantErr {
			assert.NoError(t, err, tt.payload)
			continue
		}
		var he *HookError
		require.True(t, errors.As(err, &he), tt.payload)
		assert.Equal(t, "ERR_VALIDATION", he.Code)
	}
}

func TestHookChainOrderAndPanicSafety(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(d, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))
	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	chain.AfterHandle(ctx, "t", km, data, nil)
	assert.Equal(t, "xab", string(data))
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, order)

	var errSeen error
	panicky := HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
		Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { errSeen = err },
	}
	_, _, _, err = NewHookChain(panicky).BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, err, errSeen)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	// the floor applies when min is unset
	assert.LessOrEqual(t, backoffWithJitter(0, 0, 1), 50*time.Millisecond)
}
