package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockToken is a mock implementation of the mqtt.Token interface
type MockToken struct {
	mock.Mock
}

// NewCompletedToken returns a token whose Wait succeeds immediately and whose Error reports err.
func NewCompletedToken(err error) *MockToken {
	token := new(MockToken)
	token.On("Wait").Return(true)
	token.On("WaitTimeout", mock.Anything).Return(true)
	token.On("Error").Return(err)
	return token
}

func (m *MockToken) Error() error {
	return m.Called().Error(0)
}

func (m *MockToken) Wait() bool {
	return m.Called().Bool(0)
}

func (m *MockToken) WaitTimeout(timeout time.Duration) bool {
	return m.Called(timeout).Bool(0)
}

func (m *MockToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
