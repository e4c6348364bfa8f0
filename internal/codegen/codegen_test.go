package codegen

import (
	"strings"
	"testing"

	"sysycc/internal/ast"
	"sysycc/internal/ir"
	"sysycc/internal/types"
)

var noPos = ast.Position{}

// buildAbsFunction builds int abs(int a) { if (a < 0) return -a; return a; }
// directly through ir.Builder, the same hand-built-IR style
// internal/pass's own tests use, so Generate's BFS walk and each back
// end's phi/branch lowering can be exercised without the front end. The
// join's phi comes out of the builder's own Braun/Buchwald
// WriteVariable/ReadVariable machinery, the same surface mem2reg drives,
// rather than a hand-poked Phi/PhiOperand pair.
func buildAbsFunction() (*ir.Module, *ir.Function) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	i32 := m.Types.I32()

	fn := b.CreateFunction("abs", []*types.Type{i32}, i32, false, false)
	entry := b.CreateBlock(fn, "entry")
	neg := b.CreateBlock(fn, "neg")
	done := b.CreateBlock(fn, "done")
	b.Seal(entry) // no predecessors ever arrive here

	b.SetInsertPoint(fn, entry, nil)
	zero := b.ConstInt(0, i32)
	cmp := b.CreateBinary(ir.OpSLess, fn.Args[0].Val(), zero, i32, noPos)
	b.WriteVariable("result", entry, fn.Args[0].Val())
	b.CreateBranch(cmp.Val(), neg, done, noPos)
	b.Seal(neg) // entry is neg's only predecessor, now known

	b.SetInsertPoint(fn, neg, nil)
	negated := b.CreateUnary(ir.OpNeg, fn.Args[0].Val(), i32, noPos)
	b.WriteVariable("result", neg, negated.Val())
	b.CreateJump(done, noPos)
	b.Seal(done) // both of done's predecessors (entry, neg) are now known

	b.SetInsertPoint(fn, done, nil)
	result := b.ReadVariable("result", done, i32)
	b.CreateReturn(result, noPos)

	return m, fn
}

func TestGenerateVisitsEveryBlockOnce(t *testing.T) {
	m, fn := buildAbsFunction()
	var seen []string
	rec := &recordingVisitor{onBlock: func(bb *ir.BasicBlock) { seen = append(seen, bb.Label) }}
	Generate(m, rec)
	if len(seen) != 3 {
		t.Fatalf("expected 3 blocks visited, got %v", seen)
	}
	if seen[0] != fn.Entry().Label {
		t.Errorf("expected entry visited first, got %v", seen)
	}
}

func TestCEmitterProducesGotoStructuredFunction(t *testing.T) {
	m, _ := buildAbsFunction()
	e := NewCEmitter(m)
	Generate(m, e)
	out := e.String()

	for _, want := range []string{
		"int32_t abs(int32_t a0)",
		"goto L_neg",
		"goto L_done",
		"L_done:;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected emitted C to contain %q, got:\n%s", want, out)
		}
	}
}

func TestCEmitterPhiAssignedByBothPredecessors(t *testing.T) {
	m, _ := buildAbsFunction()
	e := NewCEmitter(m)
	Generate(m, e)
	out := e.String()

	// the phi's own declared variable must be assigned once per
	// predecessor block, before each transfers control into "done".
	if strings.Count(out, " = a0;")+strings.Count(out, " = v") < 2 {
		t.Errorf("expected the phi to be assigned from both predecessors, got:\n%s", out)
	}
}

func TestARMEmitterEmitsPrologueAndBranch(t *testing.T) {
	m, _ := buildAbsFunction()
	e := NewARMEmitter()
	Generate(m, e)
	out := e.String()

	for _, want := range []string{
		".global abs",
		"push {fp, lr}",
		"mov fp, sp",
		"cmp r0, #0",
		"bx lr",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected emitted ARM to contain %q, got:\n%s", want, out)
		}
	}
}

func TestARMEmitterStructByValueCopiesByte(t *testing.T) {
	m := ir.NewModule("t")
	b := ir.NewBuilder(m)
	i8 := m.Types.I8()
	st := m.Types.Struct("point", []types.Field{{Name: "x", Type: i8}, {Name: "y", Type: i8}})

	fn := b.CreateFunction("f", []*types.Type{st}, m.Types.Void(), false, false)
	entry := b.CreateBlock(fn, "entry")
	b.Seal(entry)
	b.SetInsertPoint(fn, entry, nil)
	slot := b.CreateAlloca(st, noPos)
	b.CreateStore(fn.Args[0].Val(), slot.Val(), noPos)
	b.CreateReturn(nil, noPos)

	e := NewARMEmitter()
	Generate(m, e)
	out := e.String()
	if !strings.Contains(out, "ldrb") {
		t.Errorf("expected a byte-copy loop for the struct-by-value store, got:\n%s", out)
	}
}

// recordingVisitor is a minimal Visitor used only to check Generate's
// own traversal order; every method besides onBlock is a no-op.
type recordingVisitor struct {
	onBlock func(bb *ir.BasicBlock)
}

func (r *recordingVisitor) VisitGlobal(g *ir.GlobalVar)      {}
func (r *recordingVisitor) EnterFunction(fn *ir.Function)    {}
func (r *recordingVisitor) ExitFunction(fn *ir.Function)     {}
func (r *recordingVisitor) EnterBlock(bb *ir.BasicBlock)     { r.onBlock(bb) }
func (r *recordingVisitor) VisitAlloca(i *ir.Alloca)         {}
func (r *recordingVisitor) VisitLoad(i *ir.Load)             {}
func (r *recordingVisitor) VisitStore(i *ir.Store)           {}
func (r *recordingVisitor) VisitPtrAccess(i *ir.PtrAccess)   {}
func (r *recordingVisitor) VisitElemAccess(i *ir.ElemAccess) {}
func (r *recordingVisitor) VisitBinary(i *ir.Binary)         {}
func (r *recordingVisitor) VisitUnary(i *ir.Unary)           {}
func (r *recordingVisitor) VisitCast(i *ir.Cast)             {}
func (r *recordingVisitor) VisitCall(i *ir.Call)             {}
func (r *recordingVisitor) VisitPhi(i *ir.Phi)               {}
func (r *recordingVisitor) VisitSelect(i *ir.Select)         {}
func (r *recordingVisitor) VisitBranch(i *ir.Branch)         {}
func (r *recordingVisitor) VisitJump(i *ir.Jump)             {}
func (r *recordingVisitor) VisitReturn(i *ir.Return)         {}
