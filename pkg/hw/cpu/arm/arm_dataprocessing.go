package arm

type shiftFunc func(r *Registers, value, amount uint32) uint32

// operandMode is one of the 9 ways of computing the second operand of a
// data processing instruction
type operandMode struct {
	name string
	// plain leaves the carry alone, flags writes the shifter carry out
	plain, flags shiftFunc
	// amount taken from the bottom byte of Rs
	register  bool
	immediate bool
}

const (
	operandLLI = iota
	operandLLR
	operandLRI
	operandLRR
	operandARI
	operandARR
	operandRRI
	operandRRR
	operandIMM
)

var operandModes = [...]operandMode{
	operandLLI: {name: "lli", plain: aluLLI, flags: aluLLIS},
	operandLLR: {name: "llr", plain: aluLLR, flags: aluLLRS, register: true},
	operandLRI: {name: "lri", plain: aluLRI, flags: aluLRIS},
	operandLRR: {name: "lrr", plain: aluLRR, flags: aluLRRS, register: true},
	operandARI: {name: "ari", plain: aluARI, flags: aluARIS},
	operandARR: {name: "arr", plain: aluARR, flags: aluARRS, register: true},
	operandRRI: {name: "rri", plain: aluRRI, flags: aluRRIS},
	operandRRR: {name: "rrr", plain: aluRRR, flags: aluRRRS, register: true},
	operandIMM: {name: "imm", plain: aluImm, flags: aluImmS, immediate: true},
}

type aluFunc func(r *Registers, lhs, rhs uint32) uint32

// aluOperation is a data processing opcode
type aluOperation struct {
	name  string
	plain aluFunc
	flags aluFunc
	// logical operations take their carry from the shifter
	logical bool
	// compare operations always set flags and never write Rd
	test bool
}

func plainALU(f func(lhs, rhs uint32) uint32) aluFunc {
	return func(_ *Registers, lhs, rhs uint32) uint32 {
		return f(lhs, rhs)
	}
}

func testALU(f func(r *Registers, lhs, rhs uint32)) aluFunc {
	return func(r *Registers, lhs, rhs uint32) uint32 {
		f(r, lhs, rhs)
		return 0
	}
}

var aluOperations = [16]*aluOperation{
	{name: "and", plain: plainALU(aluAnd), flags: aluAnds, logical: true},
	{name: "eor", plain: plainALU(aluEor), flags: aluEors, logical: true},
	{name: "sub", plain: plainALU(aluSub), flags: aluSubs},
	{name: "rsb", plain: plainALU(aluRsb), flags: aluRsbs},
	{name: "add", plain: plainALU(aluAdd), flags: aluAdds},
	{name: "adc", plain: aluAdc, flags: aluAdcs},
	{name: "sbc", plain: aluSbc, flags: aluSbcs},
	{name: "rsc", plain: aluRsc, flags: aluRscs},
	{name: "tst", flags: testALU(aluTst), logical: true, test: true},
	{name: "teq", flags: testALU(aluTeq), logical: true, test: true},
	{name: "cmp", flags: testALU(aluCmp), test: true},
	{name: "cmn", flags: testALU(aluCmn), test: true},
	{name: "orr", plain: plainALU(aluOrr), flags: aluOrrs, logical: true},
	{name: "mov", plain: plainALU(aluMov), flags: aluMovs, logical: true},
	{name: "bic", plain: plainALU(aluBic), flags: aluBics, logical: true},
	{name: "mvn", plain: plainALU(aluMvn), flags: aluMvns, logical: true},
}

// armDataProcessing builds the handler of one data processing opcode with
// one operand mode. With S set and Rd = PC the instruction returns from an
// exception: the SPSR is copied to the CPSR instead of setting flags.
func armDataProcessing(alu *aluOperation, mode *operandMode, s bool) armInstruction {
	setFlags := s || alu.test

	return func(c *CPU, m Memory, op uint32) {
		r := &c.Registers
		rd := int(op>>12) & 0xF
		rn := int(op>>16) & 0xF

		exceptionReturn := s && !alu.test && rd == PC
		flags := setFlags && !exceptionReturn
		shift := mode.plain
		if flags && alu.logical {
			shift = mode.flags
		}

		lhs := r.Read(rn)
		var rhs uint32
		switch {
		case mode.immediate:
			rhs = shift(r, op&0xFF, (op>>8)&0xF)
		case mode.register:
			// the extra internal cycle moves the PC one more word ahead
			rm := int(op) & 0xF
			value := r.Read(rm)
			if rm == PC {
				value += 4
			}
			if rn == PC {
				lhs += 4
			}
			rhs = shift(r, value, r.Read(int(op>>8)&0xF)&0xFF)
			c.internal(1)
		default:
			rhs = shift(r, r.Read(int(op)&0xF), (op>>7)&0x1F)
		}

		if flags {
			result := alu.flags(r, lhs, rhs)
			if !alu.test {
				c.writeRegister(rd, result, m)
			}
			return
		}

		result := alu.plain(r, lhs, rhs)
		if exceptionReturn {
			r.WriteCPSR(r.ReadSPSR())
		}
		c.writeRegister(rd, result, m)
	}
}
