package arm

import "math/bits"

// Data processing arithmetic. Every operation has a plain form and a flag
// setting form writing N, Z, C and V. Logical operations only write N and Z:
// their carry comes from the shifter.

func setNZ(r *Registers, result uint32) {
	r.PutN(result>>31 != 0)
	r.PutZ(result == 0)
}

func addOverflows(lhs, rhs uint32) bool {
	_, overflow := addInt32(int32(lhs), int32(rhs))
	return overflow
}

func subOverflows(lhs, rhs uint32) bool {
	_, overflow := subInt32(int32(lhs), int32(rhs))
	return overflow
}

func addInt32(lhs, rhs int32) (int32, bool) {
	result := lhs + rhs
	return result, (lhs >= 0) == (rhs >= 0) && (result >= 0) != (lhs >= 0)
}

func subInt32(lhs, rhs int32) (int32, bool) {
	result := lhs - rhs
	return result, (lhs >= 0) != (rhs >= 0) && (result >= 0) != (lhs >= 0)
}

func setAddFlags(r *Registers, lhs, rhs uint32) uint32 {
	result, carry := bits.Add32(lhs, rhs, 0)
	setNZ(r, result)
	r.PutC(carry != 0)
	r.PutV(addOverflows(lhs, rhs))
	return result
}

// setSubFlags sets C when no borrow happens, the opposite of the x86 carry
func setSubFlags(r *Registers, lhs, rhs uint32) uint32 {
	result := lhs - rhs
	setNZ(r, result)
	r.PutC(lhs >= rhs)
	r.PutV(subOverflows(lhs, rhs))
	return result
}

func carryIn(r *Registers) uint32 {
	if r.GetC() {
		return 1
	}
	return 0
}

func aluAnd(lhs, rhs uint32) uint32 { return lhs & rhs }
func aluEor(lhs, rhs uint32) uint32 { return lhs ^ rhs }
func aluOrr(lhs, rhs uint32) uint32 { return lhs | rhs }
func aluBic(lhs, rhs uint32) uint32 { return lhs &^ rhs }
func aluMov(_, rhs uint32) uint32 { return rhs }
func aluMvn(_, rhs uint32) uint32 { return ^rhs }
func aluAdd(lhs, rhs uint32) uint32 { return lhs + rhs }
func aluSub(lhs, rhs uint32) uint32 { return lhs - rhs }
func aluRsb(lhs, rhs uint32) uint32 { return rhs - lhs }

func aluAnds(r *Registers, lhs, rhs uint32) uint32 { return logical(r, lhs&rhs) }
func aluEors(r *Registers, lhs, rhs uint32) uint32 { return logical(r, lhs^rhs) }
func aluOrrs(r *Registers, lhs, rhs uint32) uint32 { return logical(r, lhs|rhs) }
func aluBics(r *Registers, lhs, rhs uint32) uint32 { return logical(r, lhs&^rhs) }
func aluMovs(r *Registers, _, rhs uint32) uint32 { return logical(r, rhs) }
func aluMvns(r *Registers, _, rhs uint32) uint32 { return logical(r, ^rhs) }

func logical(r *Registers, result uint32) uint32 {
	setNZ(r, result)
	return result
}

func aluAdds(r *Registers, lhs, rhs uint32) uint32 { return setAddFlags(r, lhs, rhs) }
func aluSubs(r *Registers, lhs, rhs uint32) uint32 { return setSubFlags(r, lhs, rhs) }
func aluRsbs(r *Registers, lhs, rhs uint32) uint32 { return setSubFlags(r, rhs, lhs) }

func aluAdc(r *Registers, lhs, rhs uint32) uint32 {
	return lhs + rhs + carryIn(r)
}

// aluAdcs folds the carry in as a second addition, carry and overflow are
// the union of both stages
func aluAdcs(r *Registers, lhs, rhs uint32) uint32 {
	c := carryIn(r)

	partial, carry1 := bits.Add32(lhs, rhs, 0)
	overflow1 := addOverflows(lhs, rhs)
	result, carry2 := bits.Add32(partial, c, 0)
	overflow2 := addOverflows(partial, c)

	setNZ(r, result)
	r.PutC(carry1|carry2 != 0)
	r.PutV(overflow1 || overflow2)
	return result
}

func aluSbc(r *Registers, lhs, rhs uint32) uint32 {
	return lhs - rhs - (1 - carryIn(r))
}

func aluRsc(r *Registers, lhs, rhs uint32) uint32 {
	return aluSbc(r, rhs, lhs)
}

func aluSbcs(r *Registers, lhs, rhs uint32) uint32 {
	notCarry := 1 - carryIn(r)
	result := lhs - rhs - notCarry

	setNZ(r, result)
	r.PutC(uint64(lhs) >= uint64(rhs)+uint64(notCarry))
	r.PutV(((lhs^rhs)&(lhs^result))>>31 != 0)
	return result
}

func aluRscs(r *Registers, lhs, rhs uint32) uint32 {
	return aluSbcs(r, rhs, lhs)
}

// compare operations only write flags

func aluTst(r *Registers, lhs, rhs uint32) { setNZ(r, lhs&rhs) }
func aluTeq(r *Registers, lhs, rhs uint32) { setNZ(r, lhs^rhs) }
func aluCmp(r *Registers, lhs, rhs uint32) { setSubFlags(r, lhs, rhs) }
func aluCmn(r *Registers, lhs, rhs uint32) { setAddFlags(r, lhs, rhs) }

// multiplyCycles returns the internal cycles the multiplier array spends on
// a multiplier operand: one per significant byte, where the leading bytes
// being all zeros or all ones makes them insignificant.
func multiplyCycles(rs uint32) Cycles {
	switch {
	case rs&0xFFFFFF00 == 0 || rs&0xFFFFFF00 == 0xFFFFFF00:
		return 1
	case rs&0xFFFF0000 == 0 || rs&0xFFFF0000 == 0xFFFF0000:
		return 2
	case rs&0xFF000000 == 0 || rs&0xFF000000 == 0xFF000000:
		return 3
	default:
		return 4
	}
}
