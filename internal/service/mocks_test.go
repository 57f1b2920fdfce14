package service

import (
	"context"
	"time"

	"quote_api/internal/model"

	"github.com/stretchr/testify/mock"
)

type mockQuoteRepository struct {
	mock.Mock
}

func newMockQuoteRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockQuoteRepository {
	m := &mockQuoteRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockQuoteRepository) FindAll(ctx context.Context) ([]model.Quote, error) {
	args := m.Called(ctx)
	quotes, _ := args.Get(0).([]model.Quote)
	return quotes, args.Error(1)
}

func (m *mockQuoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*model.Quote)
	return q, args.Error(1)
}

func (m *mockQuoteRepository) Create(ctx context.Context, q *model.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *mockQuoteRepository) Update(ctx context.Context, id string, req model.UpdateQuoteRequest, now time.Time) (*model.Quote, error) {
	args := m.Called(ctx, id, req, now)
	q, _ := args.Get(0).(*model.Quote)
	return q, args.Error(1)
}

func (m *mockQuoteRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockUserRepository struct {
	mock.Mock
}

func newMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockUserRepository {
	m := &mockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	args := m.Called(ctx, email, username)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
