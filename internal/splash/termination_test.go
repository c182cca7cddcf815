package splash

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminationDetectorDeclaresCompletionWhenAllSleep(t *testing.T) {
	d := newTerminationDetector(2)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.beginSleepCriticalSection(0)
		results[0] = d.endSleepCriticalSection(0)
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		d.beginSleepCriticalSection(1)
		results[1] = d.endSleepCriticalSection(1)
	}()

	waitOrTimeout(t, &wg)
	assert.True(t, results[0])
	assert.True(t, results[1])
}

func TestTerminationDetectorNewJobInvalidatesSleeper(t *testing.T) {
	d := newTerminationDetector(2)

	d.beginSleepCriticalSection(0)

	done := make(chan bool, 1)
	go func() {
		done <- d.endSleepCriticalSection(0)
	}()

	time.Sleep(10 * time.Millisecond)
	d.newJob(0)

	select {
	case result := <-done:
		assert.False(t, result)
	case <-time.After(time.Second):
		t.Fatal("endSleepCriticalSection did not return after newJob")
	}
}

func TestTerminationDetectorCancelWithdrawsAnnouncement(t *testing.T) {
	d := newTerminationDetector(2)
	d.beginSleepCriticalSection(0)
	d.cancelSleepCriticalSection(0)

	// Worker 1 alone sleeping should not trigger termination, since 0
	// withdrew.
	go func() {
		time.Sleep(10 * time.Millisecond)
		d.newJob(1) // wake it back up so the test does not hang
	}()
	d.beginSleepCriticalSection(1)
	result := d.endSleepCriticalSection(1)
	assert.False(t, result)
}

func TestTerminationDetectorReset(t *testing.T) {
	d := newTerminationDetector(1)
	d.beginSleepCriticalSection(0)
	require.True(t, d.endSleepCriticalSection(0))

	d.reset()
	assert.False(t, d.terminated)
	assert.Empty(t, d.inCS)
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for goroutines")
	}
}
