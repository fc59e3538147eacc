// Package mocks provides test doubles for the serper client.
package mocks

import (
	"context"

	serper "github.com/kavir10/lead-scoring/pkg/serper"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Maps provides a mock function with given fields: ctx, query, location
func (_m *MockClient) Maps(ctx context.Context, query string, location string) ([]serper.Place, error) {
	ret := _m.Called(ctx, query, location)

	if len(ret) == 0 {
		panic("no return value specified for Maps")
	}

	var r0 []serper.Place
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) ([]serper.Place, error)); ok {
		return rf(ctx, query, location)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]serper.Place)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Search provides a mock function with given fields: ctx, query, num
func (_m *MockClient) Search(ctx context.Context, query string, num int) ([]serper.OrganicResult, error) {
	ret := _m.Called(ctx, query, num)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []serper.OrganicResult
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]serper.OrganicResult, error)); ok {
		return rf(ctx, query, num)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]serper.OrganicResult)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Reviews provides a mock function with given fields: ctx, cid, num
func (_m *MockClient) Reviews(ctx context.Context, cid string, num int) ([]serper.Review, error) {
	ret := _m.Called(ctx, cid, num)

	if len(ret) == 0 {
		panic("no return value specified for Reviews")
	}

	var r0 []serper.Review
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]serper.Review, error)); ok {
		return rf(ctx, cid, num)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]serper.Review)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
