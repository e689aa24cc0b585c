package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/school-dashboard-api/pkg/errors"
)

// memoryRedis answers the commands the cache repository issues without a server. It is installed
// as a process hook so every command stops before a connection is dialled.
type memoryRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newRedisFixture(t *testing.T) (*CacheRepository, *memoryRedis) {
	t.Helper()
	store := &memoryRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(store)
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, zap.NewNop()), store
}

func (m *memoryRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("unexpected dial to %s", addr)
	}
}

func (m *memoryRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (m *memoryRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			value, ok := m.values[argString(args[1])]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(value)
		case *redis.StatusCmd:
			if strings.EqualFold(cmd.Name(), "set") {
				key := argString(args[1])
				m.values[key] = argString(args[2])
				if len(args) > 4 {
					if ttl, ok := args[4].(int64); ok {
						m.ttls[key] = time.Duration(ttl) * time.Second
					}
				}
				c.SetVal("OK")
				return nil
			}
			c.SetVal("PONG")
		case *redis.ScanCmd:
			var pattern string
			for i := 0; i+1 < len(args); i++ {
				if strings.EqualFold(argString(args[i]), "match") {
					pattern = argString(args[i+1])
				}
			}
			var keys []string
			for key := range m.values {
				if ok, _ := path.Match(pattern, key); ok {
					keys = append(keys, key)
				}
			}
			c.SetVal(keys, 0)
		case *redis.IntCmd:
			var n int64
			for _, arg := range args[1:] {
				key := argString(arg)
				if _, ok := m.values[key]; ok {
					delete(m.values, key)
					n++
				}
			}
			c.SetVal(n)
		default:
			return fmt.Errorf("unexpected command %s", cmd.Name())
		}
		return nil
	}
}

func argString(arg interface{}) string {
	switch v := arg.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func TestCacheRepositoryStoresRawJSONOnce(t *testing.T) {
	repo, store := newRedisFixture(t)
	ctx := context.Background()

	record := json.RawMessage(`{"id":4,"name":"4B"}`)
	require.NoError(t, repo.Set(ctx, "entity:classes:4", record, time.Minute))
	assert.JSONEq(t, `{"id":4,"name":"4B"}`, store.values["entity:classes:4"])
	assert.Equal(t, time.Minute, store.ttls["entity:classes:4"])

	var cached json.RawMessage
	require.NoError(t, repo.Get(ctx, "entity:classes:4", &cached))
	assert.JSONEq(t, `{"id":4,"name":"4B"}`, string(cached))
}

func TestCacheRepositoryEncodesStructs(t *testing.T) {
	repo, _ := newRedisFixture(t)
	ctx := context.Background()

	type classView struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, repo.Set(ctx, "entity:classes:5", classView{ID: 5, Name: "5A"}, 0))

	var got classView
	require.NoError(t, repo.Get(ctx, "entity:classes:5", &got))
	assert.Equal(t, classView{ID: 5, Name: "5A"}, got)
}

func TestCacheRepositoryMiss(t *testing.T) {
	repo, _ := newRedisFixture(t)

	var cached json.RawMessage
	err := repo.Get(context.Background(), "entity:exams:1", &cached)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, store := newRedisFixture(t)
	ctx := context.Background()
	store.values["entity:classes:1"] = `{}`
	store.values["entity:classes:2"] = `{}`
	store.values["entity:students:1"] = `{}`

	require.NoError(t, repo.DeleteByPattern(ctx, "entity:classes:*"))
	assert.Equal(t, map[string]string{"entity:students:1": `{}`}, store.values)

	require.NoError(t, repo.Delete(ctx, "entity:students:1"))
	assert.Empty(t, store.values)
	assert.NoError(t, repo.Ping(ctx))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, "k", json.RawMessage(`{}`), 0))
	var cached json.RawMessage
	assert.ErrorIs(t, repo.Get(ctx, "k", &cached), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.DeleteByPattern(ctx, "k*"))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
