package errortypes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFailure(t *testing.T) {
	err := NewStatusFailure("http://b.test/imp", 500)

	assert.Equal(t, TrackingFailureReason, err.Reason)
	assert.Equal(t, 500, err.StatusCode)
	assert.Equal(t, "http://b.test/imp", err.URL)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "http://b.test/imp")
	assert.Equal(t, TrackingFailureErrorCode, ReadCode(err))
	assert.False(t, err.IsTimeout())
	assert.Nil(t, errors.Unwrap(err))
}

func TestTransportFailure(t *testing.T) {
	cause := &Timeout{Message: "deadline exceeded"}
	err := NewTransportFailure("http://a.test/imp", cause)

	assert.Equal(t, 0, err.StatusCode)
	assert.True(t, err.IsTimeout())
	assert.Contains(t, err.Error(), "deadline exceeded")
	assert.Contains(t, err.Error(), "http://a.test/imp")

	var timeout *Timeout
	assert.True(t, errors.As(err, &timeout))
}

func TestReadCode(t *testing.T) {
	testCases := []struct {
		description string
		err         error
		expected    int
	}{
		{
			description: "bad input",
			err:         &BadInput{Message: "nil trackers"},
			expected:    BadInputErrorCode,
		},
		{
			description: "queue full",
			err:         &QueueFull{Message: "full"},
			expected:    QueueFullErrorCode,
		},
		{
			description: "plain error",
			err:         errors.New("plain"),
			expected:    UnknownErrorCode,
		},
	}

	for _, test := range testCases {
		assert.Equal(t, test.expected, ReadCode(test.err), test.description)
	}
}

func TestContainsFatalError(t *testing.T) {
	assert.False(t, ContainsFatalError(nil))
	assert.True(t, ContainsFatalError([]error{NewStatusFailure("http://a.test", 404)}))
	assert.True(t, ContainsFatalError([]error{errors.New("uncoded")}))
	assert.False(t, IsWarning(&BadInput{Message: "x"}))
}
