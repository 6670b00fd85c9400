package x86

import (
	"strconv"
	"strings"

	"github.com/gunmetal313/medusa/pkg/arch"
	"github.com/gunmetal313/medusa/pkg/bitvec"
	"github.com/gunmetal313/medusa/pkg/cpu"
	"github.com/gunmetal313/medusa/pkg/expr"
)

// lift pattern-matches insn.Mnemonic/insn.OpStr (already filled in by
// capstone) into expr.Make... semantics, and sets insn.SubType. Anything
// outside the supported subset decodes successfully but lifts to no
// semantics, matching spec.md §4.3 step 8's "if empty, log a warning and
// continue" path rather than failing the whole instruction.
func lift(insn *arch.Instruction, info *cpu.Information) {
	ops := splitOperands(insn.OpStr)
	switch insn.Mnemonic {
	case "nop":
		// no semantics

	case "mov":
		if len(ops) != 2 {
			return
		}
		dst, ok := regOperand(ops[0], info)
		if !ok {
			return
		}
		src, ok := operandExpr(ops[1], info)
		if !ok {
			return
		}
		insn.Semantics = []expr.Expression{expr.MakeAssignment(dst, src)}

	case "add", "sub", "xor":
		if len(ops) != 2 {
			return
		}
		dst, ok := regOperand(ops[0], info)
		if !ok {
			return
		}
		src, ok := operandExpr(ops[1], info)
		if !ok {
			return
		}
		op := map[string]expr.BinaryOp{"add": expr.BinaryAdd, "sub": expr.BinarySub, "xor": expr.BinaryXor}[insn.Mnemonic]
		insn.Semantics = []expr.Expression{
			expr.MakeAssignment(dst, expr.MakeBinaryOp(op, dst, src)),
		}

	case "cmp":
		if len(ops) != 2 {
			return
		}
		left, ok := regOperand(ops[0], info)
		if !ok {
			return
		}
		right, ok := operandExpr(ops[1], info)
		if !ok {
			return
		}
		zf := id(RegZF, info)
		insn.Semantics = []expr.Expression{
			expr.MakeAssignment(zf, expr.MakeTernaryCondition(
				expr.CmpEq, left, right, expr.MakeBoolean(true), expr.MakeBoolean(false),
			)),
		}

	case "push":
		if len(ops) != 1 {
			return
		}
		src, ok := regOperand(ops[0], info)
		if !ok {
			return
		}
		esp := id(RegESP, info)
		insn.Semantics = []expr.Expression{
			expr.MakeBind(
				expr.MakeAssignment(esp, expr.MakeBinaryOp(expr.BinarySub, esp, expr.MakeBitVector(bitvec.New(32, 4)))),
				expr.MakeAssignment(expr.MakeMemory(nil, esp, 32, true), src),
			),
		}

	case "pop":
		if len(ops) != 1 {
			return
		}
		dst, ok := regOperand(ops[0], info)
		if !ok {
			return
		}
		esp := id(RegESP, info)
		insn.Semantics = []expr.Expression{
			expr.MakeBind(
				expr.MakeAssignment(dst, expr.MakeMemory(nil, esp, 32, true)),
				expr.MakeAssignment(esp, expr.MakeBinaryOp(expr.BinaryAdd, esp, expr.MakeBitVector(bitvec.New(32, 4)))),
			),
		}

	case "ret":
		insn.SubType = arch.SubReturn
		esp := id(RegESP, info)
		eip := id(RegEIP, info)
		insn.Semantics = []expr.Expression{
			expr.MakeBind(
				expr.MakeAssignment(eip, expr.MakeMemory(nil, esp, 32, true)),
				expr.MakeAssignment(esp, expr.MakeBinaryOp(expr.BinaryAdd, esp, expr.MakeBitVector(bitvec.New(32, 4)))),
			),
		}

	case "jmp", "jz", "je", "jnz", "jne":
		if len(ops) != 1 {
			return
		}
		target, ok := parseImm(ops[0])
		if !ok {
			return
		}
		insn.SubType = arch.SubBranch
		eip := id(RegEIP, info)
		jump := expr.MakeAssignment(eip, expr.MakeBitVector(bitvec.New(32, target)))
		switch insn.Mnemonic {
		case "jmp":
			insn.Semantics = []expr.Expression{jump}
		case "jz", "je":
			zf := id(RegZF, info)
			insn.Semantics = []expr.Expression{
				expr.MakeIfElseCondition(expr.CmpEq, zf, expr.MakeBoolean(true), jump, nil),
			}
		case "jnz", "jne":
			zf := id(RegZF, info)
			insn.Semantics = []expr.Expression{
				expr.MakeIfElseCondition(expr.CmpEq, zf, expr.MakeBoolean(false), jump, nil),
			}
		}

	case "int":
		insn.Semantics = []expr.Expression{
			expr.MakeSystem("int0x80", expr.Address{Offset: insn.Address, OffsetSize: 32}),
		}
	}
}

func id(regID uint32, info *cpu.Information) expr.Expression {
	return expr.MakeIdentifier(regID, info)
}

func regOperand(s string, info *cpu.Information) (expr.Expression, bool) {
	id32, ok := regByName[strings.TrimSpace(s)]
	if !ok {
		return nil, false
	}
	return id(id32, info), true
}

func operandExpr(s string, info *cpu.Information) (expr.Expression, bool) {
	if e, ok := regOperand(s, info); ok {
		return e, true
	}
	if v, ok := parseImm(s); ok {
		return expr.MakeBitVector(bitvec.New(32, v)), true
	}
	return nil, false
}

func parseImm(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

func splitOperands(opStr string) []string {
	opStr = strings.TrimSpace(opStr)
	if opStr == "" {
		return nil
	}
	parts := strings.Split(opStr, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
