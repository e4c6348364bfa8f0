package codegen

import (
	"fmt"
	"strings"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

// ARMEmitter implements Visitor by emitting naive aarch32 (AAPCS)
// assembly: spill everything. Every SSA value, not just every alloca,
// gets its own fixed stack slot; every instruction loads its operands
// from their slots, computes into a scratch register, and stores the
// result straight back. spec.md's own Non-goals sanction exactly this
// ("not a register allocator... may be as naive as spilling every
// value"), so no live range ever survives past the instruction that
// produced it. A struct passed by value occupies multiple consecutive
// words in its slot and is moved with an unrolled byte copy rather
// than a single ldr/str, since its fields need not be register-width
// or register-aligned.
type ARMEmitter struct {
	data strings.Builder
	text strings.Builder

	fn    *ir.Function
	block *ir.BasicBlock

	slotBase   map[*ir.Value]int
	slotSize   map[*ir.Value]int
	allocaBase map[*ir.Alloca]int
	tmp        int
}

func NewARMEmitter() *ARMEmitter { return &ARMEmitter{} }

// String returns the assembled .s text once Generate has finished
// driving this emitter.
func (e *ARMEmitter) String() string {
	return ".data\n" + e.data.String() + "\n.text\n" + e.text.String()
}

func (e *ARMEmitter) VisitGlobal(g *ir.GlobalVar) {
	fmt.Fprintf(&e.data, "g_%s:\n", g.Name)
	if init := g.Init.Value(); init != nil {
		e.emitDataInit(init)
		return
	}
	fmt.Fprintf(&e.data, "    .space %d\n", maxInt(g.ElemType.Size(), 4))
}

func (e *ARMEmitter) emitDataInit(v *ir.Value) {
	switch n := v.Node().(type) {
	case *ir.ConstInt:
		if v.Type.Size() == 1 {
			fmt.Fprintf(&e.data, "    .byte %d\n", uint8(n.IntVal))
		} else {
			fmt.Fprintf(&e.data, "    .word %d\n", int32(n.IntVal))
		}
	case *ir.ConstZero:
		fmt.Fprintf(&e.data, "    .space %d\n", maxInt(v.Type.Size(), 4))
	case *ir.ConstStr:
		fmt.Fprintf(&e.data, "    .asciz %q\n", n.Str)
	case *ir.ConstStruct:
		for _, el := range n.Elems {
			e.emitDataInit(el.Value())
		}
	case *ir.ConstArray:
		for _, el := range n.Elems {
			e.emitDataInit(el.Value())
		}
	default:
		fmt.Fprintf(&e.data, "    .space %d\n", maxInt(v.Type.Size(), 4))
	}
}

// EnterFunction assigns every alloca's backing storage and every
// value-producing instruction (plus every parameter) a fixed,
// non-overlapping byte range below fp, then emits the standard
// push-fp/mov-fp/sub-sp prologue and spills incoming register
// arguments into their slots.
func (e *ARMEmitter) EnterFunction(fn *ir.Function) {
	e.fn = fn
	e.slotBase = map[*ir.Value]int{}
	e.slotSize = map[*ir.Value]int{}
	e.allocaBase = map[*ir.Alloca]int{}

	depth := 0
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			if a, ok := inst.(*ir.Alloca); ok {
				sz := roundUp4(maxInt(a.ElemType.Size(), 4))
				e.allocaBase[a] = depth
				depth += sz
			}
		}
	}
	for _, arg := range fn.Args {
		sz := roundUp4(maxInt(arg.Val().Type.Size(), 4))
		e.slotBase[arg.Val()] = depth
		e.slotSize[arg.Val()] = sz
		depth += sz
	}
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instrs {
			v := inst.Val()
			if v.Type == nil {
				continue
			}
			sz := roundUp4(maxInt(v.Type.Size(), 4))
			e.slotBase[v] = depth
			e.slotSize[v] = sz
			depth += sz
		}
	}
	frameSize := roundUp(depth+4, 8)

	fmt.Fprintf(&e.text, ".global %s\n%s:\n", fn.Name, fn.Name)
	e.text.WriteString("    push {fp, lr}\n    mov fp, sp\n")
	fmt.Fprintf(&e.text, "    sub sp, sp, #%d\n", frameSize)
	e.spillArgs(fn)
}

func (e *ARMEmitter) spillArgs(fn *ir.Function) {
	regWord, stackWord := 0, 0
	for _, arg := range fn.Args {
		words := e.slotSize[arg.Val()] / 4
		for w := 0; w < words; w++ {
			dst := e.addr(e.slotBase[arg.Val()], w*4)
			if regWord < 4 {
				fmt.Fprintf(&e.text, "    str r%d, %s\n", regWord, dst)
				regWord++
			} else {
				fmt.Fprintf(&e.text, "    ldr r4, [fp, #%d]\n", 8+stackWord*4)
				fmt.Fprintf(&e.text, "    str r4, %s\n", dst)
				stackWord++
			}
		}
	}
}

func (e *ARMEmitter) ExitFunction(fn *ir.Function) {
	e.text.WriteString("\n")
	e.fn = nil
}

func (e *ARMEmitter) EnterBlock(bb *ir.BasicBlock) {
	e.block = bb
	fmt.Fprintf(&e.text, "%s:\n", labelName(bb))
}

// addr spells the fp-relative operand for byte byteOff within the slot
// based at base: word w of a slot lies 4*w bytes further below fp than
// word 0, and the bytes inside each word ascend from its low address.
// The constant +4 keeps every slot strictly below the saved fp/lr pair
// the prologue just pushed.
func (e *ARMEmitter) addr(base, byteOff int) string {
	return fmt.Sprintf("[fp, #-%d]", base+4+4*(byteOff/4)-byteOff%4)
}

// loadWord loads word wordIdx of v into reg: a literal/global/constant
// load for word 0 of a non-slot value, or an ldr from its stack slot
// otherwise (every ArgRef and instruction result has one).
func (e *ARMEmitter) loadWord(v *ir.Value, wordIdx int, reg string) {
	if wordIdx == 0 {
		switch n := v.Node().(type) {
		case *ir.ConstInt:
			fmt.Fprintf(&e.text, "    ldr %s, =%d\n", reg, int32(n.IntVal))
			return
		case *ir.ConstZero, *ir.Undef:
			fmt.Fprintf(&e.text, "    mov %s, #0\n", reg)
			return
		case *ir.GlobalVar:
			fmt.Fprintf(&e.text, "    ldr %s, =g_%s\n", reg, n.Name)
			return
		case *ir.Function:
			fmt.Fprintf(&e.text, "    ldr %s, =%s\n", reg, n.Name)
			return
		}
	}
	base, ok := e.slotBase[v]
	if !ok {
		panic("codegen: arm: value has no stack slot")
	}
	fmt.Fprintf(&e.text, "    ldr %s, %s\n", reg, e.addr(base, wordIdx*4))
}

func (e *ARMEmitter) loadOperand(v *ir.Value, reg string) { e.loadWord(v, 0, reg) }

func (e *ARMEmitter) storeWord(v *ir.Value, wordIdx int, reg string) {
	fmt.Fprintf(&e.text, "    str %s, %s\n", reg, e.addr(e.slotBase[v], wordIdx*4))
}

func (e *ARMEmitter) storeResult(v *ir.Value, reg string) { e.storeWord(v, 0, reg) }

func (e *ARMEmitter) VisitAlloca(i *ir.Alloca) {
	base := e.allocaBase[i]
	sz := roundUp4(maxInt(i.ElemType.Size(), 4))
	fmt.Fprintf(&e.text, "    sub r0, fp, #%d\n", base+sz)
	e.storeResult(i.Val(), "r0")
}

func (e *ARMEmitter) VisitLoad(i *ir.Load) {
	e.loadOperand(i.Addr.Value(), "r0")
	t := i.Val().Type
	if isAggregate(t) {
		e.copyMemToSlot("r0", i.Val(), t.Size())
		return
	}
	if t.Size() == 1 {
		if t.Signed() {
			e.text.WriteString("    ldrsb r1, [r0]\n")
		} else {
			e.text.WriteString("    ldrb r1, [r0]\n")
		}
	} else {
		e.text.WriteString("    ldr r1, [r0]\n")
	}
	e.storeResult(i.Val(), "r1")
}

func (e *ARMEmitter) VisitStore(i *ir.Store) {
	e.loadOperand(i.Addr.Value(), "r0")
	valType := i.Value.Value().Type
	if isAggregate(valType) {
		e.copySlotToMem(i.Value.Value(), "r0", valType.Size())
		return
	}
	e.loadOperand(i.Value.Value(), "r1")
	if valType.Size() == 1 {
		e.text.WriteString("    strb r1, [r0]\n")
	} else {
		e.text.WriteString("    str r1, [r0]\n")
	}
}

func (e *ARMEmitter) copySlotToMem(v *ir.Value, addrReg string, size int) {
	base := e.slotBase[v]
	for b := 0; b < size; b++ {
		fmt.Fprintf(&e.text, "    ldrb r2, %s\n", e.addr(base, b))
		fmt.Fprintf(&e.text, "    strb r2, [%s, #%d]\n", addrReg, b)
	}
}

func (e *ARMEmitter) copyMemToSlot(addrReg string, v *ir.Value, size int) {
	base := e.slotBase[v]
	for b := 0; b < size; b++ {
		fmt.Fprintf(&e.text, "    ldrb r2, [%s, #%d]\n", addrReg, b)
		fmt.Fprintf(&e.text, "    strb r2, %s\n", e.addr(base, b))
	}
}

func (e *ARMEmitter) VisitPtrAccess(i *ir.PtrAccess) {
	e.loadOperand(i.Ptr.Value(), "r0")
	e.loadOperand(i.Index.Value(), "r1")
	elemSize := i.Val().Type.Elem().Size()
	fmt.Fprintf(&e.text, "    mov r2, #%d\n    mul r1, r1, r2\n    add r0, r0, r1\n", elemSize)
	e.storeResult(i.Val(), "r0")
}

func (e *ARMEmitter) VisitElemAccess(i *ir.ElemAccess) {
	pointee := i.Ptr.Value().Type.Elem()
	e.loadOperand(i.Ptr.Value(), "r0")
	if pointee != nil && pointee.Unwrap().IsStruct() {
		idx := constIntOf(i.Index.Value())
		off := pointee.Unwrap().FieldOffset(idx)
		fmt.Fprintf(&e.text, "    add r0, r0, #%d\n", off)
	} else {
		e.loadOperand(i.Index.Value(), "r1")
		fmt.Fprintf(&e.text, "    mov r2, #%d\n    mul r1, r1, r2\n    add r0, r0, r1\n", i.ElemType.Size())
	}
	e.storeResult(i.Val(), "r0")
}

func (e *ARMEmitter) VisitBinary(i *ir.Binary) {
	e.loadOperand(i.Left.Value(), "r0")
	e.loadOperand(i.Right.Value(), "r1")
	e.emitBinOp(i.Op, "r0", "r1")
	e.storeResult(i.Val(), "r0")
}

func (e *ARMEmitter) emitBinOp(op ir.BinOp, a, b string) {
	if op.IsComparison() {
		fmt.Fprintf(&e.text, "    cmp %s, %s\n    mov %s, #0\n    mov%s %s, #1\n", a, b, a, armCond(op), a)
		return
	}
	switch op {
	case ir.OpAdd:
		fmt.Fprintf(&e.text, "    add %s, %s, %s\n", a, a, b)
	case ir.OpSub:
		fmt.Fprintf(&e.text, "    sub %s, %s, %s\n", a, a, b)
	case ir.OpMul:
		fmt.Fprintf(&e.text, "    mul %s, %s, %s\n", a, a, b)
	case ir.OpSDiv:
		fmt.Fprintf(&e.text, "    sdiv %s, %s, %s\n", a, a, b)
	case ir.OpUDiv:
		fmt.Fprintf(&e.text, "    udiv %s, %s, %s\n", a, a, b)
	case ir.OpSRem:
		fmt.Fprintf(&e.text, "    sdiv r3, %s, %s\n    mul r3, r3, %s\n    sub %s, %s, r3\n", a, b, b, a, a)
	case ir.OpURem:
		fmt.Fprintf(&e.text, "    udiv r3, %s, %s\n    mul r3, r3, %s\n    sub %s, %s, r3\n", a, b, b, a, a)
	case ir.OpAnd:
		fmt.Fprintf(&e.text, "    and %s, %s, %s\n", a, a, b)
	case ir.OpOr:
		fmt.Fprintf(&e.text, "    orr %s, %s, %s\n", a, a, b)
	case ir.OpXor:
		fmt.Fprintf(&e.text, "    eor %s, %s, %s\n", a, a, b)
	case ir.OpShl:
		fmt.Fprintf(&e.text, "    lsl %s, %s, %s\n", a, a, b)
	case ir.OpLShr:
		fmt.Fprintf(&e.text, "    lsr %s, %s, %s\n", a, a, b)
	case ir.OpAShr:
		fmt.Fprintf(&e.text, "    asr %s, %s, %s\n", a, a, b)
	}
}

func armCond(op ir.BinOp) string {
	switch op {
	case ir.OpEq:
		return "eq"
	case ir.OpNeq:
		return "ne"
	case ir.OpSLess:
		return "lt"
	case ir.OpULess:
		return "lo"
	case ir.OpSLessEq:
		return "le"
	case ir.OpULessEq:
		return "ls"
	case ir.OpSGreater:
		return "gt"
	case ir.OpUGreater:
		return "hi"
	case ir.OpSGreaterEq:
		return "ge"
	default:
		return "hs"
	}
}

func (e *ARMEmitter) VisitUnary(i *ir.Unary) {
	e.loadOperand(i.X.Value(), "r0")
	switch i.Op {
	case ir.OpNeg:
		e.text.WriteString("    rsb r0, r0, #0\n")
	case ir.OpNot:
		e.text.WriteString("    mvn r0, r0\n")
	default: // OpLogicNot
		e.text.WriteString("    cmp r0, #0\n    moveq r0, #1\n    movne r0, #0\n")
	}
	e.storeResult(i.Val(), "r0")
}

func (e *ARMEmitter) VisitCast(i *ir.Cast) {
	e.loadOperand(i.X.Value(), "r0")
	to, from := i.Val().Type, i.X.Value().Type
	switch {
	case to.Size() < from.Size():
		e.text.WriteString("    and r0, r0, #0xff\n")
	case to.Size() > from.Size():
		if from.Signed() {
			e.text.WriteString("    sxtb r0, r0\n")
		} else {
			e.text.WriteString("    uxtb r0, r0\n")
		}
	}
	e.storeResult(i.Val(), "r0")
}

// VisitCall moves up to four argument words into r0-r3 per AAPCS,
// pushing the remainder (in reverse order) just below the call and
// popping them off again afterward; a struct-by-value argument
// contributes one word per 4 bytes of its own slot, in order.
func (e *ARMEmitter) VisitCall(i *ir.Call) {
	type argWord struct {
		val *ir.Value
		idx int
	}
	var words []argWord
	for a := range i.Args {
		v := i.Args[a].Value()
		n := wordsOf(v.Type)
		for w := 0; w < n; w++ {
			words = append(words, argWord{v, w})
		}
	}
	regWord := 0
	var extra []argWord
	for _, aw := range words {
		if regWord < 4 {
			e.loadWord(aw.val, aw.idx, fmt.Sprintf("r%d", regWord))
			regWord++
		} else {
			extra = append(extra, aw)
		}
	}
	for k := len(extra) - 1; k >= 0; k-- {
		e.loadWord(extra[k].val, extra[k].idx, "r4")
		e.text.WriteString("    push {r4}\n")
	}
	fmt.Fprintf(&e.text, "    bl %s\n", i.Callee.Name)
	if len(extra) > 0 {
		fmt.Fprintf(&e.text, "    add sp, sp, #%d\n", len(extra)*4)
	}
	if i.Val().Type != nil {
		e.storeResult(i.Val(), "r0")
	}
}

// VisitPhi emits nothing: every predecessor writes this phi's slot
// directly (see assignPhisForSucc) before transferring control here.
func (e *ARMEmitter) VisitPhi(i *ir.Phi) {}

func (e *ARMEmitter) VisitSelect(i *ir.Select) {
	e.loadOperand(i.Cond.Value(), "r0")
	e.loadOperand(i.True.Value(), "r1")
	e.loadOperand(i.False.Value(), "r2")
	e.text.WriteString("    cmp r0, #0\n    moveq r1, r2\n")
	e.storeResult(i.Val(), "r1")
}

func (e *ARMEmitter) VisitBranch(i *ir.Branch) {
	trueBB := asBlock(i.TrueTo.Value())
	falseBB := asBlock(i.FalseTo.Value())
	e.tmp++
	elseLbl := fmt.Sprintf(".Lelse%d", e.tmp)
	e.loadOperand(i.Cond.Value(), "r0")
	fmt.Fprintf(&e.text, "    cmp r0, #0\n    beq %s\n", elseLbl)
	e.assignPhisForSucc(trueBB)
	fmt.Fprintf(&e.text, "    b %s\n%s:\n", labelName(trueBB), elseLbl)
	e.assignPhisForSucc(falseBB)
	fmt.Fprintf(&e.text, "    b %s\n", labelName(falseBB))
}

func (e *ARMEmitter) VisitJump(i *ir.Jump) {
	target := asBlock(i.Target.Value())
	e.assignPhisForSucc(target)
	fmt.Fprintf(&e.text, "    b %s\n", labelName(target))
}

func (e *ARMEmitter) assignPhisForSucc(succ *ir.BasicBlock) {
	for _, inst := range succ.Instrs {
		phi, ok := inst.(*ir.Phi)
		if !ok {
			continue
		}
		op := phi.Operand(e.block)
		if op == nil {
			continue
		}
		e.loadOperand(op.Value.Value(), "r0")
		e.storeResult(phi.Val(), "r0")
	}
}

func (e *ARMEmitter) VisitReturn(i *ir.Return) {
	if i.Value.Value() != nil {
		e.loadOperand(i.Value.Value(), "r0")
	}
	e.text.WriteString("    mov sp, fp\n    pop {fp, lr}\n    bx lr\n")
}

func isAggregate(t *types.Type) bool {
	u := t.Unwrap()
	return u.IsStruct() || (u.IsArray() && u.Len() >= 0)
}

func wordsOf(t *types.Type) int {
	return roundUp4(maxInt(t.Size(), 4)) / 4
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func roundUp4(n int) int { return roundUp(n, 4) }

func roundUp(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}
