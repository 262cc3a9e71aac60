package barrier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReleasesAllParticipants(t *testing.T) {
	bank := Init(1, 3)
	defer bank.Term()

	var wg sync.WaitGroup
	done := make([]bool, 3)
	for r := 0; r < 3; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := bank.Wait(B0, r)
			done[r] = err == nil
		}()
	}

	waitTimeout(t, &wg, time.Second)
	for r, ok := range done {
		assert.True(t, ok, "rank %d must be released", r)
	}
}

func TestWaitCyclesAcrossGenerations(t *testing.T) {
	bank := Init(1, 2)
	defer bank.Term()

	for round := 0; round < 3; round++ {
		var wg sync.WaitGroup
		for r := 0; r < 2; r++ {
			r := r
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(t, bank.Wait(B0, r))
			}()
		}
		waitTimeout(t, &wg, time.Second)
	}
}

func TestSetParticipantsRejectsWhileWaiting(t *testing.T) {
	bank := Init(1, 2)
	defer bank.Term()

	released := make(chan struct{})
	go func() {
		_ = bank.Wait(B0, 0)
		close(released)
	}()
	time.Sleep(20 * time.Millisecond) // let rank 0 block inside Wait

	err := bank.SetParticipants(B0, 3)
	assert.Error(t, err, "reconfiguring a slot with a blocked caller must fail")

	require.NoError(t, bank.Wait(B0, 1))
	<-released
}

func TestTermUnblocksWaiters(t *testing.T) {
	bank := Init(1, 2)
	errc := make(chan error, 1)
	go func() {
		errc <- bank.Wait(B0, 0)
	}()
	time.Sleep(20 * time.Millisecond)
	bank.Term()
	select {
	case err := <-errc:
		assert.Error(t, err, "a torn-down slot must release waiters with a SystemError")
	case <-time.After(time.Second):
		t.Fatal("Term did not unblock a waiting caller")
	}
}

func TestGroupSlotAddressing(t *testing.T) {
	assert.Equal(t, PerGroupBase, GroupSlot(0, 0))
	assert.Equal(t, PerGroupBase+1, GroupSlot(0, 1))
	assert.Equal(t, PerGroupBase+PerGroupSlots, GroupSlot(1, 0))
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for barrier participants to be released")
	}
}
