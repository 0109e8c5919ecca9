package cachemanager_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modelreg/internal/cachemanager"
	"github.com/zjrosen/modelreg/internal/mocks"
)

type wrappedInput struct {
	Id int
}

func loader(calls *int) func(ctx context.Context, input wrappedInput) ([]*cachemanager.ExampleStruct, error) {
	return func(ctx context.Context, input wrappedInput) ([]*cachemanager.ExampleStruct, error) {
		*calls++
		return []*cachemanager.ExampleStruct{{ID: input.Id}}, nil
	}
}

func TestReadThroughCache_Get_WithCacheDisabled(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	calls := 0

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](managerMock, loader(&calls), true)

	examples, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*cachemanager.ExampleStruct{{ID: 1}}, examples)

	examples, err = readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 2}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*cachemanager.ExampleStruct{{ID: 2}}, examples)
	require.Equal(t, 2, calls)

	// Invalidation never touches a disabled cache.
	readThroughCache.Invalidate(context.Background(), "key")
	readThroughCache.InvalidatePrefix(context.Background(), "k")
}

func TestReadThroughCache_Get_WithValueInCache(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	managerMock.EXPECT().Get(mock.Anything, "key").Return([]*cachemanager.ExampleStruct{{ID: 1, Name: "Example"}}, true)
	calls := 0

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](managerMock, loader(&calls), false)

	examples, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*cachemanager.ExampleStruct{{ID: 1, Name: "Example"}}, examples)
	require.Zero(t, calls)
}

func TestReadThroughCache_Get_EmptyCache(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	managerMock.EXPECT().Get(mock.Anything, "key").Return([]*cachemanager.ExampleStruct{}, false)
	managerMock.EXPECT().Set(mock.Anything, "key", []*cachemanager.ExampleStruct{{ID: 1}}, time.Minute).Return()
	calls := 0

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](managerMock, loader(&calls), false)

	examples, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*cachemanager.ExampleStruct{{ID: 1}}, examples)
	require.Equal(t, 1, calls)
}

func TestReadThroughCache_Get_LoaderError(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	managerMock.EXPECT().Get(mock.Anything, "key").Return([]*cachemanager.ExampleStruct{}, false)

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](
		managerMock,
		func(ctx context.Context, input wrappedInput) ([]*cachemanager.ExampleStruct, error) {
			return nil, errors.New("failed to get data")
		},
		false,
	)

	_, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.EqualError(t, err, "failed to get data")
	managerMock.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadThroughCache_GetWithRefresh_WithValueInCache(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	managerMock.EXPECT().GetWithRefresh(mock.Anything, "key", time.Minute).Return([]*cachemanager.ExampleStruct{{ID: 3}}, true)
	calls := 0

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](managerMock, loader(&calls), false)

	examples, err := readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*cachemanager.ExampleStruct{{ID: 3}}, examples)
	require.Zero(t, calls)
}

func TestReadThroughCache_GetWithRefresh_EmptyCache(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	managerMock.EXPECT().GetWithRefresh(mock.Anything, "key", time.Minute).Return(nil, false)
	managerMock.EXPECT().Set(mock.Anything, "key", []*cachemanager.ExampleStruct{{ID: 1}}, time.Minute).Return()
	calls := 0

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](managerMock, loader(&calls), false)

	examples, err := readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*cachemanager.ExampleStruct{{ID: 1}}, examples)
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []*cachemanager.ExampleStruct](t)
	managerMock.EXPECT().Delete(mock.Anything, "a", "b").Return(nil)
	managerMock.EXPECT().DeletePrefix(mock.Anything, "list:").Return(3)
	calls := 0

	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](managerMock, loader(&calls), false)
	readThroughCache.Invalidate(context.Background(), "a", "b")
	readThroughCache.InvalidatePrefix(context.Background(), "list:")
}

func TestReadThroughCache_WithInMemoryCache(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cache := cachemanager.NewInMemoryCacheManager[string, []*cachemanager.ExampleStruct]("examples", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	readThroughCache := cachemanager.NewReadThroughCache[string, []*cachemanager.ExampleStruct, wrappedInput](cache, loader(&calls), false)

	for range 3 {
		_, err := readThroughCache.Get(ctx, "key", wrappedInput{Id: 1}, time.Minute)
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)

	readThroughCache.Invalidate(ctx, "key")
	_, err := readThroughCache.Get(ctx, "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}
