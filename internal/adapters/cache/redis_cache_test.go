package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

type fakeRedis struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	switch v, ok := f.data[key]; {
	case f.err != nil:
		cmd.SetErr(f.err)
	case !ok:
		cmd.SetErr(redis.Nil)
	default:
		cmd.SetVal(string(v))
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.data[key] = value.([]byte)
	f.ttls[key] = ttl
	cmd.SetVal("OK")
	return cmd
}

func TestRedisReportCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := &RedisReportCache{client: client, namespace: "ledger"}

	var miss domain.TrialBalance
	hit, err := c.Get(ctx, "report:trial-balance:USD:2024-03-31:seq=4", &miss)
	require.NoError(t, err)
	assert.False(t, hit)

	tb := domain.TrialBalance{BaseCurrency: "USD", TotalDebit: 500, TotalCredit: 500}
	require.NoError(t, c.Set(ctx, "report:trial-balance:USD:2024-03-31:seq=4", tb, time.Minute))
	assert.Equal(t, time.Minute, client.ttls["ledger:report:trial-balance:USD:2024-03-31:seq=4"])

	var got domain.TrialBalance
	hit, err = c.Get(ctx, "report:trial-balance:USD:2024-03-31:seq=4", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(500), got.TotalDebit)
}

func TestRedisReportCache_Errors(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	c := &RedisReportCache{client: client}

	client.data["bad"] = []byte("{not json")
	var dst domain.TrialBalance
	_, err := c.Get(ctx, "bad", &dst)
	assert.Error(t, err)

	client.err = errors.New("connection refused")
	_, err = c.Get(ctx, "any", &dst)
	assert.ErrorContains(t, err, "connection refused")
	assert.Error(t, c.Set(ctx, "any", dst, time.Minute))
}
