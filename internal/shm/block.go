// Package shm realizes the shared car state block: named, process-shared
// memory with mutual exclusion and change notification. Go has no portable
// binding for pthread_mutexattr_setpshared/pthread_condattr_setpshared, so
// this package substitutes a file-backed mmap plus a companion flock for
// mutual exclusion, and a generation counter inside the mapped region that
// waiters poll instead of a true cross-process condition variable wait.
package shm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mukuyev/elevator-control/internal/constants"
	"github.com/mukuyev/elevator-control/internal/domain"
)

// blockSize is the fixed size, in bytes, of the mapped region. It is larger
// than the encoded fields require so the layout can grow without an
// incompatible resize of existing segments.
const blockSize = 64

// statusWidth is the fixed width, in bytes, reserved for the ASCII-encoded
// status field. Per spec.md §9, status is kept as its ASCII encoding rather
// than a small tagged byte so a value the safety monitor doesn't recognize
// (a data-consistency violation, not just an enum it hasn't seen) survives
// the store/load round-trip instead of collapsing to a default status.
const statusWidth = 16

// Field byte offsets within the mapped region.
const (
	offGeneration            = 0 // uint64
	offStatus                = 8 // statusWidth bytes, NUL-padded ASCII
	offCurrentFloor          = offStatus + statusWidth
	offDestinationFloor      = offCurrentFloor + 4
	offOpenButton            = offDestinationFloor + 4
	offCloseButton           = offOpenButton + 1
	offDoorObstruction       = offCloseButton + 1
	offOverload              = offDoorObstruction + 1
	offEmergencyStop         = offOverload + 1
	offIndividualServiceMode = offEmergencyStop + 1
	offEmergencyMode         = offIndividualServiceMode + 1
)

// Snapshot is a point-in-time, lock-free copy of a car's shared state.
type Snapshot struct {
	Status                domain.Status
	CurrentFloor          domain.Floor
	DestinationFloor      domain.Floor
	OpenButton            bool
	CloseButton           bool
	DoorObstruction       bool
	Overload              bool
	EmergencyStop         bool
	IndividualServiceMode bool
	EmergencyMode         bool
}

// IsConsistent reports whether the snapshot satisfies the invariants a
// safety monitor must enforce: every boolean field really is 0/1 (trivially
// true in Go's bool), status is one of the five legal values, both floors
// are legal, and a door obstruction can only be observed while the doors are
// cycling.
func (s Snapshot) IsConsistent() bool {
	if !s.Status.IsValid() {
		return false
	}
	if !s.CurrentFloor.IsValidAbsolute() || !s.DestinationFloor.IsValidAbsolute() {
		return false
	}
	if s.DoorObstruction && !s.Status.IsDoorCycling() {
		return false
	}
	return true
}

// Block is an attached shared car state block, backed by a memory-mapped
// file under /dev/shm.
type Block struct {
	path     string
	lockPath string
	file     *os.File
	lockFile *os.File
	data     []byte
	owner    bool
}

// Name returns the POSIX-style shared memory name for a car, "/carNAME",
// matching the original's shm_open convention.
func Name(carName string) string {
	return fmt.Sprintf("%s%s", constants.ShmNamePrefix, carName)
}

func shmPath(name string) string {
	return "/dev/shm" + name
}

// Create unlinks any prior block of this name, creates and sizes a fresh
// one, maps it read-write, and initializes it: sensor and button fields
// zeroed, status Closed, current and destination floor both "1". The
// calling car process owns the block's lifecycle; Destroy unlinks it.
func Create(name string) (*Block, error) {
	path := shmPath(name)
	_ = os.Remove(path)
	_ = os.Remove(path + ".lock")

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, domain.NewInternalError("failed to create shared memory segment", err).
			WithContext("name", name)
	}
	if err := file.Truncate(blockSize); err != nil {
		file.Close()
		return nil, domain.NewInternalError("failed to size shared memory segment", err).
			WithContext("name", name)
	}

	lockFile, err := os.OpenFile(path+".lock", os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		file.Close()
		return nil, domain.NewInternalError("failed to create shared memory lock file", err).
			WithContext("name", name)
	}

	b, err := mapBlock(path, file, lockFile, true)
	if err != nil {
		return nil, err
	}

	one, _ := domain.ParseFloor("1")
	b.writeSnapshot(Snapshot{
		Status:           domain.StatusClosed,
		CurrentFloor:     one,
		DestinationFloor: one,
	}, 0)
	return b, nil
}

// Attach opens an existing shared block by name and maps it read-write. It
// fails if the block does not exist.
func Attach(name string) (*Block, error) {
	path := shmPath(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, domain.NewNotFoundError("shared memory segment does not exist for car", err).
			WithContext("name", name)
	}

	lockFile, err := os.OpenFile(path+".lock", os.O_RDWR, 0o600)
	if err != nil {
		file.Close()
		return nil, domain.NewNotFoundError("shared memory segment does not exist for car", err).
			WithContext("name", name)
	}

	return mapBlock(path, file, lockFile, false)
}

func mapBlock(path string, file, lockFile *os.File, owner bool) (*Block, error) {
	data, err := unix.Mmap(int(file.Fd()), 0, blockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		lockFile.Close()
		return nil, domain.NewInternalError("failed to mmap shared memory segment", err).
			WithContext("path", path)
	}

	return &Block{
		path:     path,
		lockPath: path + ".lock",
		file:     file,
		lockFile: lockFile,
		data:     data,
		owner:    owner,
	}, nil
}

// Detach unmaps the block without removing its backing file.
func (b *Block) Detach() error {
	if err := unix.Munmap(b.data); err != nil {
		return domain.NewInternalError("failed to munmap shared memory segment", err)
	}
	b.file.Close()
	b.lockFile.Close()
	return nil
}

// Destroy unmaps and unlinks the block. Only the owning car process should
// call this.
func (b *Block) Destroy() error {
	if err := b.Detach(); err != nil {
		return err
	}
	_ = os.Remove(b.path)
	_ = os.Remove(b.lockPath)
	return nil
}

func (b *Block) lock() error {
	return unix.Flock(int(b.lockFile.Fd()), unix.LOCK_EX)
}

func (b *Block) unlock() error {
	return unix.Flock(int(b.lockFile.Fd()), unix.LOCK_UN)
}

// Observe acquires the lock, reads a full snapshot, releases the lock, and
// returns it.
func (b *Block) Observe() Snapshot {
	_ = b.lock()
	defer b.unlock()
	return b.readSnapshot()
}

// Generation returns the current change-counter value without taking a full
// snapshot, for use by waiters polling for updates.
func (b *Block) Generation() uint64 {
	_ = b.lock()
	defer b.unlock()
	return binary.BigEndian.Uint64(b.data[offGeneration:])
}

// Mutate acquires the lock, applies fn to a copy of the current snapshot,
// writes the result back, bumps the generation counter (the broadcast
// substitute), and releases the lock. Setting IndividualServiceMode to true
// additionally clears EmergencyMode, mirroring the original's block setter.
func (b *Block) Mutate(fn func(*Snapshot)) Snapshot {
	_ = b.lock()
	defer b.unlock()

	snap := b.readSnapshot()
	wasService := snap.IndividualServiceMode
	fn(&snap)
	if snap.IndividualServiceMode && !wasService {
		snap.EmergencyMode = false
	}

	gen := binary.BigEndian.Uint64(b.data[offGeneration:])
	b.writeSnapshot(snap, gen+1)
	return snap
}

// WaitForChange blocks until the generation counter differs from
// lastGeneration or ctx is done, polling at the given interval. It returns
// the new snapshot and generation. This is the condition-variable
// substitute described in the package doc: change notification degrades
// from a blocking wake to a short poll loop because Go has no cross-process
// sync.Cond.
func (b *Block) WaitForChange(ctx context.Context, lastGeneration uint64, interval time.Duration) (Snapshot, uint64, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		gen := b.Generation()
		if gen != lastGeneration {
			return b.Observe(), gen, nil
		}
		select {
		case <-ctx.Done():
			return Snapshot{}, lastGeneration, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (b *Block) readSnapshot() Snapshot {
	return Snapshot{
		Status:                readStatus(b.data[offStatus : offStatus+statusWidth]),
		CurrentFloor:          domain.NewFloor(int(int32(binary.BigEndian.Uint32(b.data[offCurrentFloor:])))),
		DestinationFloor:      domain.NewFloor(int(int32(binary.BigEndian.Uint32(b.data[offDestinationFloor:])))),
		OpenButton:            b.data[offOpenButton] != 0,
		CloseButton:           b.data[offCloseButton] != 0,
		DoorObstruction:       b.data[offDoorObstruction] != 0,
		Overload:              b.data[offOverload] != 0,
		EmergencyStop:         b.data[offEmergencyStop] != 0,
		IndividualServiceMode: b.data[offIndividualServiceMode] != 0,
		EmergencyMode:         b.data[offEmergencyMode] != 0,
	}
}

func (b *Block) writeSnapshot(s Snapshot, generation uint64) {
	binary.BigEndian.PutUint64(b.data[offGeneration:], generation)
	writeStatus(b.data[offStatus:offStatus+statusWidth], s.Status)
	binary.BigEndian.PutUint32(b.data[offCurrentFloor:], uint32(int32(s.CurrentFloor.Value())))
	binary.BigEndian.PutUint32(b.data[offDestinationFloor:], uint32(int32(s.DestinationFloor.Value())))
	b.data[offOpenButton] = boolByte(s.OpenButton)
	b.data[offCloseButton] = boolByte(s.CloseButton)
	b.data[offDoorObstruction] = boolByte(s.DoorObstruction)
	b.data[offOverload] = boolByte(s.Overload)
	b.data[offEmergencyStop] = boolByte(s.EmergencyStop)
	b.data[offIndividualServiceMode] = boolByte(s.IndividualServiceMode)
	b.data[offEmergencyMode] = boolByte(s.EmergencyMode)
}

// writeStatus copies s into buf as NUL-padded ASCII, truncating to len(buf)
// if s is longer. Storing the raw text (rather than mapping through a small
// enum) means a status the rest of the system has never heard of is
// preserved across the store/load round-trip instead of silently defaulting
// to a legal value, so the safety monitor can actually observe it.
func writeStatus(buf []byte, s domain.Status) {
	clear(buf)
	copy(buf, []byte(s))
}

// readStatus decodes the NUL-padded ASCII status field back into a Status.
// It does not validate the result; an unrecognized value is returned as-is
// so Status.IsValid can detect it.
func readStatus(buf []byte) domain.Status {
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		n = len(buf)
	}
	return domain.Status(buf[:n])
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
