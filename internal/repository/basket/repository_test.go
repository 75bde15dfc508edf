package basket

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopbasket/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool { return x.Equal(y) })

func sampleCart(user string) domain.Cart {
	return domain.Cart{
		UserName: user,
		Items: []domain.CartItem{
			{ProductID: "p1", ProductName: "Iphone X", Color: "Black", UnitPrice: decimal.RequireFromString("950.00"), Quantity: 1},
			{ProductID: "p2", ProductName: "Samsung 10", UnitPrice: decimal.RequireFromString("840.50"), Quantity: 2},
		},
	}
}

// rawWriter lets contract tests plant payloads that bypass encoding.
type rawWriter func(t *testing.T, userName string, payload []byte)

func newRedisFixture(t *testing.T) (Repository, rawWriter) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewRedis(client, WithKeyPrefix("basket:"))
	return repo, func(t *testing.T, userName string, payload []byte) {
		require.NoError(t, srv.Set("basket:"+userName, string(payload)))
	}
}

func newMemoryFixture(t *testing.T) (Repository, rawWriter) {
	t.Helper()
	repo := NewMemory()
	return repo, func(_ *testing.T, userName string, payload []byte) {
		repo.mu.Lock()
		repo.entries[userName] = payload
		repo.mu.Unlock()
	}
}

func TestRepositoryContract(t *testing.T) {
	fixtures := map[string]func(t *testing.T) (Repository, rawWriter){
		"redis":  newRedisFixture,
		"memory": newMemoryFixture,
	}
	for name, fixture := range fixtures {
		t.Run(name, func(t *testing.T) {
			t.Run("missing key is a miss", func(t *testing.T) {
				repo, _ := fixture(t)
				cart, err := repo.Get(context.Background(), "nobody")
				require.NoError(t, err)
				assert.Nil(t, cart)
			})

			t.Run("set then get round trips", func(t *testing.T) {
				repo, _ := fixture(t)
				in := sampleCart("alice")
				require.NoError(t, repo.Set(context.Background(), in))

				got, err := repo.Get(context.Background(), "alice")
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Empty(t, cmp.Diff(in, *got, decimalComparer))
			})

			t.Run("set overwrites wholesale", func(t *testing.T) {
				repo, _ := fixture(t)
				require.NoError(t, repo.Set(context.Background(), sampleCart("alice")))
				smaller := domain.Cart{UserName: "alice", Items: []domain.CartItem{{ProductName: "Mug", UnitPrice: decimal.NewFromInt(5), Quantity: 3}}}
				require.NoError(t, repo.Set(context.Background(), smaller))

				got, err := repo.Get(context.Background(), "alice")
				require.NoError(t, err)
				require.Len(t, got.Items, 1)
				assert.Equal(t, "Mug", got.Items[0].ProductName)
			})

			t.Run("nil items stored as empty", func(t *testing.T) {
				repo, _ := fixture(t)
				require.NoError(t, repo.Set(context.Background(), domain.Cart{UserName: "bob"}))
				got, err := repo.Get(context.Background(), "bob")
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.NotNil(t, got.Items)
				assert.Empty(t, got.Items)
			})

			t.Run("remove is idempotent", func(t *testing.T) {
				repo, _ := fixture(t)
				require.NoError(t, repo.Set(context.Background(), sampleCart("alice")))
				require.NoError(t, repo.Remove(context.Background(), "alice"))
				require.NoError(t, repo.Remove(context.Background(), "alice"))

				got, err := repo.Get(context.Background(), "alice")
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("empty and null payloads are misses", func(t *testing.T) {
				repo, write := fixture(t)
				write(t, "empty", []byte(""))
				write(t, "blank", []byte(" \n\t "))
				write(t, "null", []byte("null"))
				for _, user := range []string{"empty", "blank", "null"} {
					got, err := repo.Get(context.Background(), user)
					require.NoError(t, err, user)
					assert.Nil(t, got, user)
				}
			})

			t.Run("garbage payload is corruption", func(t *testing.T) {
				repo, write := fixture(t)
				payloads := map[string]string{
					"not json":      "{not json",
					"no owner":      "{}",
					"foreign owner": `{"userName":"mallory","items":[{"productName":"Mug","price":"3","quantity":1}]}`,
				}
				for name, payload := range payloads {
					write(t, "carol", []byte(payload))
					cart, err := repo.Get(context.Background(), "carol")
					assert.Nil(t, cart, name)
					assert.True(t, errors.Is(err, domain.ErrCorruptBasket), "%s: got %v", name, err)
				}
			})
		})
	}
}

func TestRedisRepoAppliesTTLAndPrefix(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	repo := NewRedis(client, WithKeyPrefix("basket:"), WithTTL(time.Hour))
	require.NoError(t, repo.Set(context.Background(), sampleCart("alice")))

	assert.True(t, srv.Exists("basket:alice"))
	assert.False(t, srv.Exists("alice"))
	assert.Equal(t, time.Hour, srv.TTL("basket:alice"))

	srv.FastForward(2 * time.Hour)
	got, err := repo.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisRepoSurfacesTransportErrors(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	defer client.Close()
	repo := NewRedis(client)

	srv.Close()
	_, err := repo.Get(context.Background(), "alice")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrCorruptBasket))
}

func TestMemoryRepoHonoursCancelledContext(t *testing.T) {
	repo := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Set(ctx, sampleCart("alice"))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.Get(context.Background(), "alice")
	require.NoError(t, err)
}
