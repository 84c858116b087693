package mir

// Block is a straight-line run of statements closed by one terminator.
type Block struct {
	ID    BlockID
	Stmts []Statement
	Term  Terminator
}

// Terminated reports whether the block has a terminator. A nil block counts
// as terminated so validation reports it only once, as a bad target.
func (b *Block) Terminated() bool {
	return b == nil || b.Term.Kind != TermNone
}

// Successors returns the blocks control may reach from b's terminator, in
// terminator order. Out-of-range targets are kept; callers filter them.
func (b *Block) Successors() []BlockID {
	term := &b.Term
	switch term.Kind {
	case TermGoto:
		return []BlockID{term.Goto.Target}
	case TermSwitchInt:
		out := make([]BlockID, 0, len(term.SwitchInt.Cases)+1)
		for _, c := range term.SwitchInt.Cases {
			out = append(out, c.Target)
		}
		return append(out, term.SwitchInt.Otherwise)
	case TermCall:
		if term.Call.Target == NoBlockID {
			return nil
		}
		return []BlockID{term.Call.Target}
	default:
		// TermReturn, TermUnreachable, TermNone have no successors
		return nil
	}
}

// Reachable marks the blocks reachable from the entry.
func (f *Func) Reachable() []bool {
	reachable := make([]bool, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || reachable[id] {
			return
		}
		reachable[id] = true
		for _, succ := range f.Blocks[id].Successors() {
			visit(succ)
		}
	}

	visit(f.Entry)
	return reachable
}

// ReversePostorder lists the reachable blocks so that every block comes
// before its successors, except along back edges.
func (f *Func) ReversePostorder() []BlockID {
	seen := make([]bool, len(f.Blocks))
	post := make([]BlockID, 0, len(f.Blocks))

	var visit func(id BlockID)
	visit = func(id BlockID) {
		if id < 0 || int(id) >= len(f.Blocks) || seen[id] {
			return
		}
		seen[id] = true
		for _, succ := range f.Blocks[id].Successors() {
			visit(succ)
		}
		post = append(post, id)
	}
	visit(f.Entry)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// Predecessors returns, for each block, the reachable blocks jumping to it.
// Duplicate edges (a switch with two arms to one block) are collapsed.
func (f *Func) Predecessors() [][]BlockID {
	preds := make([][]BlockID, len(f.Blocks))
	reachable := f.Reachable()
	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		from := BlockID(i) //nolint:gosec // block count fits BlockID
		for _, succ := range f.Blocks[i].Successors() {
			if succ < 0 || int(succ) >= len(f.Blocks) {
				continue
			}
			if n := len(preds[succ]); n > 0 && preds[succ][n-1] == from {
				continue
			}
			preds[succ] = append(preds[succ], from)
		}
	}
	return preds
}
