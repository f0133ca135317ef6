package baseband

import (
	"context"
	"sync/atomic"
)

// DoubleBuffer hands two sample blocks back and forth between a producer
// (the sample source) and a consumer (the pipeline). When the consumer still
// owns both blocks the producer writes into a scratch block that is thrown
// away, so a slow pipeline drops data instead of applying backpressure.
type DoubleBuffer struct {
	blocks   [2][]ComplexS8
	scratch  []ComplexS8
	free     chan int
	ready    chan int
	overruns atomic.Uint64
}

// Scratch is the index Fill returns when no block is free.
const Scratch = -1

func NewDoubleBuffer(blockSize int) *DoubleBuffer {
	d := &DoubleBuffer{
		scratch: make([]ComplexS8, blockSize),
		free:    make(chan int, 2),
		ready:   make(chan int, 2),
	}
	for i := range d.blocks {
		d.blocks[i] = make([]ComplexS8, blockSize)
		d.free <- i
	}
	return d
}

// Fill returns the index of a block the producer may write into.
func (d *DoubleBuffer) Fill() int {
	select {
	case i := <-d.free:
		return i
	default:
		return Scratch
	}
}

func (d *DoubleBuffer) Block(index int) []ComplexS8 {
	if index == Scratch {
		return d.scratch
	}
	return d.blocks[index]
}

// Commit marks a filled block as complete. Committing the scratch block
// counts an overrun.
func (d *DoubleBuffer) Commit(index int) {
	if index == Scratch {
		d.overruns.Add(1)
		return
	}
	d.ready <- index
}

// Ready delivers the index of each completed block in order.
func (d *DoubleBuffer) Ready() <-chan int {
	return d.ready
}

// WaitForCompletedBuffer blocks until a completed block is available. The
// caller must Release the index once it is done with the block.
func (d *DoubleBuffer) WaitForCompletedBuffer(ctx context.Context) (int, []ComplexS8, error) {
	select {
	case <-ctx.Done():
		return Scratch, nil, ctx.Err()
	case i := <-d.ready:
		return i, d.blocks[i], nil
	}
}

// Release returns a completed block to the producer.
func (d *DoubleBuffer) Release(index int) {
	if index == Scratch {
		return
	}
	d.free <- index
}

// Reset hands every completed but unprocessed block back to the producer.
// Only call it while the producer is stopped.
func (d *DoubleBuffer) Reset() {
	for {
		select {
		case i := <-d.ready:
			d.free <- i
		default:
			return
		}
	}
}

func (d *DoubleBuffer) Overruns() uint64 {
	return d.overruns.Load()
}
