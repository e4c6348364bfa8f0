package pass

import (
	"testing"

	"sysycc/internal/ir"
	"sysycc/internal/types"
)

func TestLoopConvRecognizesZeroingIdiom(t *testing.T) {
	m, b := newTestModule()
	i32 := m.Types.I32()
	ptrI32 := m.Types.Pointer(i32)
	fn := b.CreateFunction("f", []*types.Type{ptrI32, i32}, i32, false, false)
	basePtr, n := fn.Args[0].Val(), fn.Args[1].Val()

	preheader := b.CreateBlock(fn, "preheader")
	header := b.CreateBlock(fn, "header")
	body := b.CreateBlock(fn, "body")
	exit := b.CreateBlock(fn, "exit")

	b.Seal(preheader)
	b.SetInsertPoint(fn, preheader, nil)
	zeroInit := b.ConstInt(0, i32)
	b.WriteVariable("i", preheader, zeroInit)
	b.CreateJump(header, noPos)

	b.SetInsertPoint(fn, header, nil)
	iv := b.ReadVariable("i", header, i32)
	cond := b.CreateBinary(ir.OpSLess, iv, n, i32, noPos)
	b.CreateBranch(cond.Val(), body, exit, noPos)
	b.Seal(body)

	b.SetInsertPoint(fn, body, nil)
	ivBody := b.ReadVariable("i", body, i32)
	access := b.CreateElemAccess(basePtr, ivBody, i32, noPos)
	zeroStore := b.ConstInt(0, i32)
	b.CreateStore(zeroStore, access.Val(), noPos)
	one := b.ConstInt(1, i32)
	step := b.CreateBinary(ir.OpAdd, ivBody, one, i32, noPos)
	b.WriteVariable("i", body, step.Val())
	b.CreateJump(header, noPos)
	b.Seal(header)

	b.Seal(exit)
	b.SetInsertPoint(fn, exit, nil)
	b.CreateReturn(nil, noPos)

	pm := NewManager(m, 2)
	if changed := (LoopConv{}).RunOnFunction(fn, pm); !changed {
		t.Fatal("expected loop_conv to recognize the zeroing idiom")
	}

	if len(fn.Blocks) != 2 {
		t.Fatalf("expected the loop's header/body to be excised, leaving 2 blocks, got %d", len(fn.Blocks))
	}
	memset := m.FindFunction("memset")
	if memset == nil {
		t.Fatal("expected loop_conv to materialize a memset extern")
	}
	var call *ir.Call
	for _, inst := range preheader.Instrs {
		if c, ok := inst.(*ir.Call); ok {
			call = c
		}
	}
	if call == nil {
		t.Fatal("expected a memset call in the preheader")
	}
	if call.Callee != memset {
		t.Error("the call should target the memset extern")
	}
	if len(call.Args) != 3 || call.Args[0].Value() != basePtr || call.Args[2].Value() != n {
		t.Errorf("expected memset(base, 0, n), got %v", call.Args)
	}
	jmp, ok := preheader.Terminator().(*ir.Jump)
	if !ok || valAsBlockPublic(jmp.Target.Value()) != exit {
		t.Error("expected the preheader to jump straight to exit after conversion")
	}
}
