package irqasync

import (
	"errors"
	"fmt"
	"strings"
)

// Errors wrapped by a [Fault]. Use [errors.Is] to tell them apart.
var (
	ErrSlotsExhausted = errors.New("no free interrupt-wait slot")
	ErrTaskCompleted  = errors.New("task completed")
	ErrStaleFuture    = errors.New("stale interrupt future")
	ErrUnknownLine    = errors.New("unknown line")
	ErrConfig         = errors.New("invalid configuration")
)

// FaultKind classifies a [Fault].
type FaultKind uint8

const (
	_ FaultKind = iota
	FaultSlotsExhausted
	FaultTaskCompleted
	FaultStaleFuture
	FaultUnknownLine
	FaultConfig
)

func (k FaultKind) String() string {
	switch k {
	case FaultSlotsExhausted:
		return "slots exhausted"
	case FaultTaskCompleted:
		return "task completed"
	case FaultStaleFuture:
		return "stale future"
	case FaultUnknownLine:
		return "unknown line"
	case FaultConfig:
		return "config"
	default:
		return "unknown"
	}
}

func (k FaultKind) err() error {
	switch k {
	case FaultSlotsExhausted:
		return ErrSlotsExhausted
	case FaultTaskCompleted:
		return ErrTaskCompleted
	case FaultStaleFuture:
		return ErrStaleFuture
	case FaultUnknownLine:
		return ErrUnknownLine
	case FaultConfig:
		return ErrConfig
	default:
		return nil
	}
}

// A Fault is an unrecoverable contract violation.
//
// The executor and the bridge panic with a *Fault; there is nothing to
// recover into on the target, which is expected to be reset externally.
// Host tools may recover it and inspect it with [errors.Is] and [errors.As].
type Fault struct {
	Kind   FaultKind
	Op     string // e.g. "Executor.Step", "Bridge.Reserve"
	Task   int    // task index, or -1
	IRQ    IRQ    // interrupt number, if any
	Line   Line   // logical line, for FaultUnknownLine
	Detail string
}

func newFault(k FaultKind, op, detail string) *Fault {
	return &Fault{Kind: k, Op: op, Task: -1, IRQ: NoIRQ, Detail: detail}
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString("irqasync(")
	b.WriteString(f.Op)
	b.WriteString("): ")
	if err := f.Kind.err(); err != nil {
		b.WriteString(err.Error())
	} else {
		b.WriteString(f.Kind.String())
	}
	if f.Task >= 0 {
		fmt.Fprintf(&b, " (task %d)", f.Task)
	}
	if f.IRQ != NoIRQ {
		fmt.Fprintf(&b, " (irq %d)", f.IRQ)
	}
	if f.Kind == FaultUnknownLine {
		fmt.Fprintf(&b, " (line %d)", f.Line)
	}
	if f.Detail != "" {
		b.WriteString(": ")
		b.WriteString(f.Detail)
	}
	return b.String()
}

func (f *Fault) Unwrap() error {
	return f.Kind.err()
}
