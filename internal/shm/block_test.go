package shm

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mukuyev/elevator-control/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCounter int64

func uniqueName(t *testing.T) string {
	t.Helper()
	n := atomic.AddInt64(&testCounter, 1)
	return fmt.Sprintf("Test%d_%d", time.Now().UnixNano()%1_000_000, n)
}

func TestCreate_InitializesDefaults(t *testing.T) {
	name := uniqueName(t)
	b, err := Create(name)
	require.NoError(t, err)
	defer b.Destroy()

	snap := b.Observe()
	assert.Equal(t, domain.StatusClosed, snap.Status)
	assert.Equal(t, 1, snap.CurrentFloor.Value())
	assert.Equal(t, 1, snap.DestinationFloor.Value())
	assert.False(t, snap.EmergencyMode)
	assert.False(t, snap.OpenButton)
}

func TestAttach_FailsWhenAbsent(t *testing.T) {
	_, err := Attach(uniqueName(t))
	require.Error(t, err)
}

func TestAttach_SucceedsAfterCreate(t *testing.T) {
	name := uniqueName(t)
	owner, err := Create(name)
	require.NoError(t, err)
	defer owner.Destroy()

	reader, err := Attach(name)
	require.NoError(t, err)
	defer reader.Detach()

	snap := reader.Observe()
	assert.Equal(t, domain.StatusClosed, snap.Status)
}

func TestMutate_UpdatesFieldsAndBumpsGeneration(t *testing.T) {
	name := uniqueName(t)
	b, err := Create(name)
	require.NoError(t, err)
	defer b.Destroy()

	gen0 := b.Generation()

	b.Mutate(func(s *Snapshot) {
		s.OpenButton = true
	})

	snap := b.Observe()
	assert.True(t, snap.OpenButton)
	assert.Greater(t, b.Generation(), gen0)
}

func TestMutate_SettingServiceModeClearsEmergency(t *testing.T) {
	name := uniqueName(t)
	b, err := Create(name)
	require.NoError(t, err)
	defer b.Destroy()

	b.Mutate(func(s *Snapshot) {
		s.EmergencyMode = true
	})

	b.Mutate(func(s *Snapshot) {
		s.IndividualServiceMode = true
	})

	snap := b.Observe()
	assert.True(t, snap.IndividualServiceMode)
	assert.False(t, snap.EmergencyMode)
}

func TestWaitForChange_ReturnsOnMutation(t *testing.T) {
	name := uniqueName(t)
	b, err := Create(name)
	require.NoError(t, err)
	defer b.Destroy()

	gen0 := b.Generation()

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Mutate(func(s *Snapshot) {
			s.CloseButton = true
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	snap, gen, err := b.WaitForChange(ctx, gen0, 5*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, snap.CloseButton)
	assert.Greater(t, gen, gen0)
}

func TestWaitForChange_RespectsContextCancellation(t *testing.T) {
	name := uniqueName(t)
	b, err := Create(name)
	require.NoError(t, err)
	defer b.Destroy()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err = b.WaitForChange(ctx, b.Generation(), 5*time.Millisecond)
	require.Error(t, err)
}

func TestMutate_InvalidStatusSurvivesRoundTrip(t *testing.T) {
	name := uniqueName(t)
	b, err := Create(name)
	require.NoError(t, err)
	defer b.Destroy()

	b.Mutate(func(s *Snapshot) {
		s.Status = domain.Status("Asdfghj")
	})

	snap := b.Observe()
	assert.Equal(t, domain.Status("Asdfghj"), snap.Status)
	assert.False(t, snap.Status.IsValid())
}

func TestSnapshot_IsConsistent(t *testing.T) {
	valid := Snapshot{
		Status:           domain.StatusClosed,
		CurrentFloor:     domain.NewFloor(1),
		DestinationFloor: domain.NewFloor(1),
	}
	assert.True(t, valid.IsConsistent())

	badStatus := valid
	badStatus.Status = domain.Status("Asdfghj")
	assert.False(t, badStatus.IsConsistent())

	badObstruction := valid
	badObstruction.Status = domain.StatusClosed
	badObstruction.DoorObstruction = true
	assert.False(t, badObstruction.IsConsistent())

	okObstruction := valid
	okObstruction.Status = domain.StatusClosing
	okObstruction.DoorObstruction = true
	assert.True(t, okObstruction.IsConsistent())
}
