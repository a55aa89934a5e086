package mixer

import (
	"errors"
	"fmt"
)

// ErrNotNegotiated is returned by Aggregate before a first successful
// negotiation has produced an output format.
var ErrNotNegotiated = errors.New("mixer: output format not negotiated")

// ErrMissingTimestamp marks a malformed input buffer: the scheduler
// requires every buffer to carry a presentation timestamp.
var ErrMissingTimestamp = errors.New("mixer: timestamped buffers required")

// ErrNegativeRate is returned for seek rates the mixer does not support.
var ErrNegativeRate = errors.New("mixer: negative rates not supported")

// NegotiationReason classifies why negotiation failed.
type NegotiationReason int

const (
	// ReasonNoCommonFormat: no format satisfies both inputs and downstream.
	ReasonNoCommonFormat NegotiationReason = iota
	// ReasonAlphaLoss: an input carries alpha but the negotiated output
	// format cannot represent it.
	ReasonAlphaLoss
	// ReasonNoConversionPath: an input cannot be converted to the output.
	ReasonNoConversionPath
	// ReasonNoKernels: no compositing kernels exist for the output format.
	ReasonNoKernels
)

func (r NegotiationReason) String() string {
	switch r {
	case ReasonAlphaLoss:
		return "alpha-loss"
	case ReasonNoConversionPath:
		return "no-conversion-path"
	case ReasonNoKernels:
		return "no-kernels"
	default:
		return "no-common-format"
	}
}

// NegotiationError is fatal to the stream graph: the current input set and
// downstream constraints admit no valid output format. It is surfaced, not
// retried.
type NegotiationError struct {
	Reason NegotiationReason
	Detail string
	Err    error
}

func (e *NegotiationError) Error() string {
	msg := fmt.Sprintf("mixer: negotiation failed (%s)", e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *NegotiationError) Unwrap() error { return e.Err }
