package compiler

// controlFrame is one open structured-control-flow block, per the
// "control flow in the compiler" design note: a merge-block id is
// allocated at IF/WHILE time and remembered here until the matching
// ENDIF/ENDLOOP/ELSE transition.
type controlFrame struct {
	isLoop     bool
	headerID   uint32 // loop only; back-edge target
	mergeID    uint32
	continueID uint32 // loop only
	elseID     uint32 // if only; consumed once ELSE is seen
	sawElse    bool
}

// controlStack tracks nested IF/WHILE blocks while lowering a Kernel's
// instruction stream.
type controlStack struct {
	frames []controlFrame
}

func newControlStack() *controlStack { return &controlStack{} }

func (s *controlStack) empty() bool { return len(s.frames) == 0 }
func (s *controlStack) depth() int  { return len(s.frames) }

func (s *controlStack) push(f controlFrame) { s.frames = append(s.frames, f) }

func (s *controlStack) pop() (controlFrame, bool) {
	if len(s.frames) == 0 {
		return controlFrame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

func (s *controlStack) top() (*controlFrame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return &s.frames[len(s.frames)-1], true
}

// beginIf opens an IF_LOGICALZ/IF_LOGICALNZ block: allocates the then/else/
// merge labels up front (per the forward-reference design note), emits the
// selection-merge/branch-conditional pair, and enters the then-block.
func (cs *compilerState) beginIf(ctrl *controlStack, condition uint32, zero bool) {
	thenID := cs.mod.AllocID()
	elseID := cs.mod.AllocID()
	mergeID := cs.mod.AllocID()

	cs.mod.AddSelectionMerge(mergeID)
	if zero {
		cs.mod.AddBranchConditional(condition, elseID, thenID)
	} else {
		cs.mod.AddBranchConditional(condition, thenID, elseID)
	}
	cs.mod.EmitLabel(thenID)

	ctrl.push(controlFrame{isLoop: false, mergeID: mergeID, elseID: elseID})
}

// doElse transitions the active IF block's then-branch into its
// else-branch.
func (cs *compilerState) doElse(ctrl *controlStack) {
	frame, ok := ctrl.top()
	if !ok || frame.isLoop {
		cs.sink.Warnf("compiler: ELSE with no matching IF")
		return
	}
	cs.mod.AddBranch(frame.mergeID)
	cs.mod.EmitLabel(frame.elseID)
	frame.sawElse = true
}

// endIf closes the active IF block.
func (cs *compilerState) endIf(ctrl *controlStack) {
	frame, ok := ctrl.pop()
	if !ok || frame.isLoop {
		cs.sink.Warnf("compiler: ENDIF with no matching IF")
		return
	}
	if !frame.sawElse {
		cs.mod.AddBranch(frame.mergeID)
		cs.mod.EmitLabel(frame.elseID)
	}
	cs.mod.AddBranch(frame.mergeID)
	cs.mod.EmitLabel(frame.mergeID)
}

// beginWhile opens a WHILE block: header/body/continue/merge labels plus
// the loop-merge instruction, per structured-control-flow requirements.
// OpLoopMerge must be immediately followed by the branch into the loop
// body, so a dedicated body label is allocated and entered here.
func (cs *compilerState) beginWhile(ctrl *controlStack) {
	headerID := cs.mod.AllocID()
	bodyID := cs.mod.AllocID()
	continueID := cs.mod.AllocID()
	mergeID := cs.mod.AllocID()

	cs.mod.AddBranch(headerID)
	cs.mod.EmitLabel(headerID)
	cs.mod.AddLoopMerge(mergeID, continueID)
	cs.mod.AddBranch(bodyID)
	cs.mod.EmitLabel(bodyID)

	ctrl.push(controlFrame{isLoop: true, headerID: headerID, mergeID: mergeID, continueID: continueID})
}

// endLoop closes the active WHILE block: terminates the body into the
// continue block, then branches back to the header so the loop actually
// repeats, before opening the merge label.
func (cs *compilerState) endLoop(ctrl *controlStack) {
	frame, ok := ctrl.pop()
	if !ok || !frame.isLoop {
		cs.sink.Warnf("compiler: ENDLOOP with no matching WHILE")
		return
	}
	cs.mod.AddBranch(frame.continueID)
	cs.mod.EmitLabel(frame.continueID)
	cs.mod.AddBranch(frame.headerID)
	cs.mod.EmitLabel(frame.mergeID)
}

// doBreak/doContinue jump to the innermost loop's merge/continue target.
func (cs *compilerState) doBreak(ctrl *controlStack) {
	for i := len(ctrl.frames) - 1; i >= 0; i-- {
		if ctrl.frames[i].isLoop {
			cs.mod.AddBranch(ctrl.frames[i].mergeID)
			return
		}
	}
	cs.sink.Warnf("compiler: BREAK outside any loop")
}

func (cs *compilerState) doContinue(ctrl *controlStack) {
	for i := len(ctrl.frames) - 1; i >= 0; i-- {
		if ctrl.frames[i].isLoop {
			cs.mod.AddBranch(ctrl.frames[i].continueID)
			return
		}
	}
	cs.sink.Warnf("compiler: CONTINUE outside any loop")
}
