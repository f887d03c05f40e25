package ddk

import (
	"sync"

	"github.com/ddkcore/kernel/internal/irq"
)

// FrameContext is the opaque interrupt frame pointer an interrupt handler
// receives; the kernel export ABI never interprets its contents, only
// passes it through.
type FrameContext struct {
	Vector uint8
	Data   [16]uint64
}

// InterruptController is the stateful side of the Kernel_* interrupt
// exports: handler registration by vector, interrupt enable/disable, and
// the IRQ allocator wired from internal/irq.
type InterruptController struct {
	mu       sync.RWMutex
	handlers map[uint8]func(*FrameContext)
	enabled  bool
	irqs     *irq.Allocator
}

// NewInterruptController returns a controller with interrupts disabled and
// no handlers registered.
func NewInterruptController() *InterruptController {
	return &InterruptController{
		handlers: make(map[uint8]func(*FrameContext)),
		irqs:     irq.NewAllocator(),
	}
}

// RegisterInterruptHandler installs handler for vector, replacing any
// previous handler, and reports success.
func (c *InterruptController) RegisterInterruptHandler(vector uint8, handler func(*FrameContext)) bool {
	if handler == nil {
		return false
	}
	c.mu.Lock()
	c.handlers[vector] = handler
	c.mu.Unlock()
	return true
}

// UnregisterInterruptHandler removes the handler for vector, if any.
func (c *InterruptController) UnregisterInterruptHandler(vector uint8) {
	c.mu.Lock()
	delete(c.handlers, vector)
	c.mu.Unlock()
}

// Dispatch invokes the handler registered for vector with frame, used by
// test harnesses and the hypervisor glue that would otherwise live outside
// this module. It is a no-op if nothing is registered.
func (c *InterruptController) Dispatch(vector uint8, frame *FrameContext) {
	c.mu.RLock()
	h := c.handlers[vector]
	c.mu.RUnlock()
	if h != nil {
		h(frame)
	}
}

// SendEOI is a placeholder for the local-APIC EOI write; tracked here only
// so callers have a single export surface, no in-process state changes.
func (c *InterruptController) SendEOI(vector uint8) {}

// EnableInterrupts and DisableInterrupts flip the controller's enabled
// flag; InterruptsEnabled reports its current value.
func (c *InterruptController) EnableInterrupts() {
	c.mu.Lock()
	c.enabled = true
	c.mu.Unlock()
}

func (c *InterruptController) DisableInterrupts() {
	c.mu.Lock()
	c.enabled = false
	c.mu.Unlock()
}

func (c *InterruptController) InterruptsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// AllocateIRQ and FreeIRQ forward to the wired IRQ allocator; AllocateIRQ
// returns -1 on exhaustion, matching the ABI's int8 return convention
// rather than a Go error (spec section 8 scenario 6).
func (c *InterruptController) AllocateIRQ() int {
	v, err := c.irqs.AllocateIRQ()
	if err != nil {
		return -1
	}
	return int(v)
}

func (c *InterruptController) FreeIRQ(vector uint8) bool {
	return c.irqs.FreeIRQ(vector) == nil
}

// SetIRQAffinity forwards a target-CPU bitmask to the IRQ allocator.
func (c *InterruptController) SetIRQAffinity(vector uint8, cpuMask uint64) bool {
	return c.irqs.SetAffinity(vector, cpuMask) == nil
}
