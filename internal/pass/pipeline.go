package pass

// RegisterStandard wires every concrete pass this package implements
// into pm in one call, the single pipeline a driver should build
// against instead of enumerating passes by hand. Register's own
// MinOptLevel gating decides what actually runs at pm.OptLevel, so
// registering a pass here unconditionally is safe at every -O level.
func RegisterStandard(pm *Manager) {
	pm.Register(Mem2Reg{})
	pm.Register(Reg2Mem{})

	pm.Register(DeadGlobalElim{})
	pm.Register(GvarInliner{})

	pm.Register(ADCE{})
	pm.Register(BlockMerge{})
	pm.Register(BranchSimp{})
	pm.Register(DCE{})
	pm.Register(DSE{})
	pm.Register(GlobalOpt{})
	pm.Register(Inliner{})
	pm.Register(InstCombine{})
	pm.Register(LICM{})
	pm.Register(LocalProm{})
	pm.Register(LoopConv{})
	pm.Register(LoopNorm{})
	pm.Register(LoopReduce{})
	pm.Register(NaiveUnroll{Factor: 4})
	pm.Register(PhiSimp{})
	pm.Register(SCCP{})
	pm.Register(StoreComb{})
	pm.Register(UndefProp{})

	pm.Register(DirtyConv{})
}
