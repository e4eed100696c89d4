package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.rolebot/internal/lock"
	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/repository"
)

// 注意：这些测试需要一个运行中的 Redis 实例
// 如果没有 Redis，测试将被跳过

func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // 使用测试专用数据库
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: redis unavailable: %v", err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() { client.Close() })

	return client
}

func newTestStore(t *testing.T) *Store {
	client := getTestRedisClient(t)
	return NewStore(client, lock.NewRedisLocker(client, time.Second, 5*time.Millisecond))
}

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, found, err := s.FindUsername(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Upsert(ctx, &model.User{Id: 1, Username: "ann"}))
	require.NoError(t, s.Upsert(ctx, &model.User{Id: 1, Username: "anna"}))

	name, found, err := s.FindUsername(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "anna", name)
}

func TestStore_UpdateSaveAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saveIds := func(ids ...int64) repository.UpdateFunc {
		return func(current *model.Role) (*model.Role, repository.Mutation) {
			return &model.Role{MemberIds: ids}, repository.MutationSave
		}
	}

	require.NoError(t, s.Update(ctx, 100, "zeta", saveIds(1)))
	require.NoError(t, s.Update(ctx, 100, "alpha", saveIds()))
	require.NoError(t, s.Update(ctx, 100, "zeta", saveIds(1, 2)))

	roles, err := s.ListByChat(ctx, 100)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "zeta", roles[0].Name)
	assert.Equal(t, []int64{1, 2}, roles[0].MemberIds)
	assert.Equal(t, "alpha", roles[1].Name)
	assert.Empty(t, roles[1].MemberIds)

	require.NoError(t, s.Update(ctx, 100, "zeta", func(current *model.Role) (*model.Role, repository.Mutation) {
		require.NotNil(t, current)
		return nil, repository.MutationDelete
	}))

	_, err = s.Find(ctx, 100, "zeta")
	assert.ErrorIs(t, err, repository.ErrRoleNotFound)

	roles, err = s.ListByChat(ctx, 100)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "alpha", roles[0].Name)
}

func TestStore_ConcurrentUpdatesSerialized(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const n = 20
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			err := s.Update(ctx, 100, "devs", func(current *model.Role) (*model.Role, repository.Mutation) {
				if current == nil {
					current = &model.Role{}
				}
				current.MemberIds = append(current.MemberIds, id)
				return current, repository.MutationSave
			})
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	role, err := s.Find(ctx, 100, "devs")
	require.NoError(t, err)
	assert.Len(t, role.MemberIds, n)

	roles, err := s.ListByChat(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, roles, 1)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "rolebot:user:7", BuildUserKey(7))
	assert.Equal(t, "rolebot:chat:-100:roles", BuildChatRolesKey(-100))
	assert.Equal(t, "rolebot:chat:-100:role:devs", BuildRoleKey(-100, "devs"))
	assert.Equal(t, "rolebot:lock:-100:devs", BuildRoleLockKey(-100, "devs"))
}
