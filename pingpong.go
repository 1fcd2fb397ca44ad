package windgl

// PingPong is a two-slot resource where one slot is read while the
// other is written. Swap flips the roles, so a pass never samples the
// target it renders into.
type PingPong[T any] struct {
	slots   [2]T
	readIdx int
}

// NewPingPong returns a pair reading from a and writing to b.
func NewPingPong[T any](a, b T) *PingPong[T] {
	return &PingPong[T]{slots: [2]T{a, b}}
}

// Read returns the slot passes sample from.
func (p *PingPong[T]) Read() T { return p.slots[p.readIdx] }

// Write returns the slot passes render into.
func (p *PingPong[T]) Write() T { return p.slots[1-p.readIdx] }

// Swap makes the write slot the read slot.
func (p *PingPong[T]) Swap() { p.readIdx = 1 - p.readIdx }

// Slots returns both slots in allocation order.
func (p *PingPong[T]) Slots() [2]T { return p.slots }
