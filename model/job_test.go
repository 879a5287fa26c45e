package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus(t *testing.T) {
	tests := []struct {
		status      JobStatus
		valid       bool
		finished    bool
		cancellable bool
	}{
		{JobStatusPending, true, false, true},
		{JobStatusRunning, true, false, true},
		{JobStatusCancelling, true, false, false},
		{JobStatusCompleted, true, true, false},
		{JobStatusFailed, true, true, false},
		{JobStatusCancelled, true, true, false},
		{JobStatus("paused"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.finished, tt.status.Finished())
			assert.Equal(t, tt.cancellable, tt.status.Cancellable())
		})
	}
}

func TestJobProgressPercentage(t *testing.T) {
	assert.Zero(t, (&JobProgress{}).GetProgressPercentage())
	assert.Equal(t, 50.0, (&JobProgress{Current: 2, Total: 4}).GetProgressPercentage())
}
