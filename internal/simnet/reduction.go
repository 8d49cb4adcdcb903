package simnet

import (
	"encoding/binary"
	"math"

	collective "github.com/opencube-horizon/collective"
)

// ReductionKernel is a reference ReductionKernel over Uint32, Uint64 and
// Float64, enough to drive every collective cmd/collsim demonstrates.
type ReductionKernel struct{}

func (ReductionKernel) DatatypeSize(dt collective.Datatype) int {
	switch dt {
	case collective.Uint8:
		return 1
	case collective.Uint32, collective.Int32, collective.Float32:
		return 4
	case collective.Uint64, collective.Int64, collective.Float64:
		return 8
	default:
		return 0
	}
}

func (ReductionKernel) Supports(dt collective.Datatype, op collective.ReduceOp) bool {
	switch dt {
	case collective.Uint32, collective.Uint64:
		return op == collective.OpBAND || op == collective.OpSum || op == collective.OpMax || op == collective.OpMin
	case collective.Float64:
		return op == collective.OpSum || op == collective.OpMax || op == collective.OpMin
	default:
		return false
	}
}

func (rk ReductionKernel) Reduce(op collective.ReduceOp, dt collective.Datatype, inout, in []byte, count int) error {
	switch dt {
	case collective.Uint32:
		for i := 0; i < count; i++ {
			o := i * 4
			a := binary.LittleEndian.Uint32(inout[o : o+4])
			b := binary.LittleEndian.Uint32(in[o : o+4])
			binary.LittleEndian.PutUint32(inout[o:o+4], reduceUint32(op, a, b))
		}
	case collective.Uint64:
		for i := 0; i < count; i++ {
			o := i * 8
			a := binary.LittleEndian.Uint64(inout[o : o+8])
			b := binary.LittleEndian.Uint64(in[o : o+8])
			binary.LittleEndian.PutUint64(inout[o:o+8], reduceUint64(op, a, b))
		}
	case collective.Float64:
		for i := 0; i < count; i++ {
			o := i * 8
			a := math.Float64frombits(binary.LittleEndian.Uint64(inout[o : o+8]))
			b := math.Float64frombits(binary.LittleEndian.Uint64(in[o : o+8]))
			binary.LittleEndian.PutUint64(inout[o:o+8], math.Float64bits(reduceFloat64(op, a, b)))
		}
	default:
		return collective.ErrUnsupported
	}
	return nil
}

func reduceUint32(op collective.ReduceOp, a, b uint32) uint32 {
	switch op {
	case collective.OpBAND:
		return a & b
	case collective.OpSum:
		return a + b
	case collective.OpMax:
		if b > a {
			return b
		}
		return a
	case collective.OpMin:
		if b < a {
			return b
		}
		return a
	}
	return a
}

func reduceUint64(op collective.ReduceOp, a, b uint64) uint64 {
	switch op {
	case collective.OpBAND:
		return a & b
	case collective.OpSum:
		return a + b
	case collective.OpMax:
		if b > a {
			return b
		}
		return a
	case collective.OpMin:
		if b < a {
			return b
		}
		return a
	}
	return a
}

func reduceFloat64(op collective.ReduceOp, a, b float64) float64 {
	switch op {
	case collective.OpSum:
		return a + b
	case collective.OpMax:
		if b > a {
			return b
		}
		return a
	case collective.OpMin:
		if b < a {
			return b
		}
		return a
	}
	return a
}
