package irgen

import (
	"fmt"

	"sysycc/internal/ast"
	"sysycc/internal/ir"
)

func (g *Generator) lowerFuncBody(fn *ast.FuncDecl) {
	irFn := g.funcs[fn.Name]
	g.fn = irFn
	g.scope = newLexScope(nil)
	g.breakStack = nil
	g.continueStack = nil

	entry := g.b.CreateBlock(irFn, "entry")
	g.setBlock(entry)

	for i, p := range fn.Params {
		t := decay(g.resolveType(p.Type), g.reg)
		addr := g.b.CreateAlloca(t, p.Position)
		g.b.CreateStore(irFn.Args[i].Val(), addr.Val(), p.Position)
		g.scope.declare(p.Name, binding{addr: addr.Val(), typ: t})
	}

	for _, s := range fn.Body.Stmts {
		g.lowerStmt(s)
	}

	g.terminateOpenBlocks(irFn, fn.Position)
	g.fn = nil
	g.block = nil
	g.scope = nil
}

func (g *Generator) setBlock(bb *ir.BasicBlock) {
	g.block = bb
	g.b.SetInsertPoint(g.fn, bb, nil)
}

// terminateOpenBlocks gives every block the function accumulated that
// is still missing a terminator a trap return, covering blocks that
// turn out unreachable (e.g. the merge block after an if/else whose
// arms both always return) without needing a separate reachability
// pass at lowering time.
func (g *Generator) terminateOpenBlocks(fn *ir.Function, p ast.Position) {
	for _, bb := range fn.Blocks {
		if bb.Terminator() != nil {
			continue
		}
		g.setBlock(bb)
		if fn.ReturnType.IsVoid() {
			g.b.CreateReturn(nil, p)
		} else {
			g.b.CreateReturn(g.b.ConstZero(fn.ReturnType), p)
		}
	}
}

// openDeadBlock opens a fresh block after an instruction that
// terminates the current one mid-statement-list (return/break/continue
// followed by more statements that are unreachable but still need
// somewhere to lower into).
func (g *Generator) openDeadBlock() {
	bb := g.b.CreateBlock(g.fn, "unreachable")
	g.setBlock(bb)
}

func (g *Generator) lowerBlock(b *ast.BlockStmt) {
	parent := g.scope
	g.scope = newLexScope(parent)
	for _, s := range b.Stmts {
		g.lowerStmt(s)
	}
	g.scope = parent
}

func (g *Generator) lowerStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		g.lowerBlock(n)
	case *ast.VarDecl:
		g.lowerLocalDecl(n)
	case *ast.ExprStmt:
		g.lowerExprRValue(n.X)
	case *ast.IfStmt:
		g.lowerIf(n)
	case *ast.WhileStmt:
		g.lowerWhile(n)
	case *ast.ForStmt:
		g.lowerFor(n)
	case *ast.BreakStmt:
		g.b.CreateJump(g.breakStack[len(g.breakStack)-1], n.Position)
		g.openDeadBlock()
	case *ast.ContinueStmt:
		g.b.CreateJump(g.continueStack[len(g.continueStack)-1], n.Position)
		g.openDeadBlock()
	case *ast.ReturnStmt:
		g.lowerReturn(n)
	default:
		panic(fmt.Sprintf("irgen: unhandled statement %T", s))
	}
}

func (g *Generator) lowerReturn(n *ast.ReturnStmt) {
	var val *ir.Value
	if n.Value != nil {
		rv := g.lowerExprRValue(n.Value)
		val = g.coerce(rv, g.fn.ReturnType, n.Position)
	}
	g.b.CreateReturn(val, n.Position)
	g.openDeadBlock()
}

func (g *Generator) lowerIf(n *ast.IfStmt) {
	thenBB := g.b.CreateBlock(g.fn, "if.then")
	mergeBB := g.b.CreateBlock(g.fn, "if.end")
	elseTarget := mergeBB
	var elseBB *ir.BasicBlock
	if n.Else != nil {
		elseBB = g.b.CreateBlock(g.fn, "if.else")
		elseTarget = elseBB
	}

	cond := g.toBool(g.lowerExprRValue(n.Cond), n.Position)
	g.b.CreateBranch(cond, thenBB, elseTarget, n.Position)

	g.setBlock(thenBB)
	g.lowerStmt(n.Then)
	if g.block.Terminator() == nil {
		g.b.CreateJump(mergeBB, n.Position)
	}

	if n.Else != nil {
		g.setBlock(elseBB)
		g.lowerStmt(n.Else)
		if g.block.Terminator() == nil {
			g.b.CreateJump(mergeBB, n.Position)
		}
	}

	g.setBlock(mergeBB)
}

func (g *Generator) lowerWhile(n *ast.WhileStmt) {
	condBB := g.b.CreateBlock(g.fn, "while.cond")
	bodyBB := g.b.CreateBlock(g.fn, "while.body")
	endBB := g.b.CreateBlock(g.fn, "while.end")

	g.b.CreateJump(condBB, n.Position)

	g.setBlock(condBB)
	cond := g.toBool(g.lowerExprRValue(n.Cond), n.Position)
	g.b.CreateBranch(cond, bodyBB, endBB, n.Position)

	g.setBlock(bodyBB)
	g.breakStack = append(g.breakStack, endBB)
	g.continueStack = append(g.continueStack, condBB)
	g.lowerStmt(n.Body)
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
	g.continueStack = g.continueStack[:len(g.continueStack)-1]
	if g.block.Terminator() == nil {
		g.b.CreateJump(condBB, n.Position)
	}

	g.setBlock(endBB)
}

// lowerFor special-cases an ast.BlockStmt found in Init (the
// comma-declared-locals case grammar/convert.go documents): those
// declarations join the loop's own scope directly instead of opening
// a further nested one, so Cond/Post/Body see them exactly as they
// would a single declarator.
func (g *Generator) lowerFor(n *ast.ForStmt) {
	parent := g.scope
	g.scope = newLexScope(parent)

	switch init := n.Init.(type) {
	case nil:
	case *ast.BlockStmt:
		for _, s := range init.Stmts {
			g.lowerStmt(s)
		}
	default:
		g.lowerStmt(init)
	}

	condBB := g.b.CreateBlock(g.fn, "for.cond")
	bodyBB := g.b.CreateBlock(g.fn, "for.body")
	postBB := g.b.CreateBlock(g.fn, "for.post")
	endBB := g.b.CreateBlock(g.fn, "for.end")

	g.b.CreateJump(condBB, n.Position)

	g.setBlock(condBB)
	if n.Cond != nil {
		cond := g.toBool(g.lowerExprRValue(n.Cond), n.Position)
		g.b.CreateBranch(cond, bodyBB, endBB, n.Position)
	} else {
		g.b.CreateJump(bodyBB, n.Position)
	}

	g.setBlock(bodyBB)
	g.breakStack = append(g.breakStack, endBB)
	g.continueStack = append(g.continueStack, postBB)
	g.lowerStmt(n.Body)
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
	g.continueStack = g.continueStack[:len(g.continueStack)-1]
	if g.block.Terminator() == nil {
		g.b.CreateJump(postBB, n.Position)
	}

	g.setBlock(postBB)
	if n.Post != nil {
		g.lowerExprRValue(n.Post)
	}
	g.b.CreateJump(condBB, n.Position)

	g.setBlock(endBB)
	g.scope = parent
}

func (g *Generator) lowerLocalDecl(n *ast.VarDecl) {
	t := g.resolveType(n.Type)
	if n.Init != nil {
		t = g.inferArrayLen(t, n.Init)
	}
	addr := g.b.CreateAlloca(t, n.Position)
	g.scope.declare(n.Name, binding{addr: addr.Val(), typ: t})
	if n.Init != nil {
		g.lowerInit(addr.Val(), t, n.Init)
	} else {
		g.b.CreateStore(g.b.Undef(t), addr.Val(), n.Position)
	}
}
