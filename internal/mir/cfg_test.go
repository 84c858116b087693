package mir

import (
	"slices"
	"testing"
)

func gotoBlock(id, target BlockID) Block {
	return Block{ID: id, Term: Terminator{Kind: TermGoto, Goto: GotoTerm{Target: target}}}
}

func switchBlock(id BlockID, targets ...BlockID) Block {
	term := Terminator{Kind: TermSwitchInt}
	for i, tgt := range targets[:len(targets)-1] {
		term.SwitchInt.Cases = append(term.SwitchInt.Cases, SwitchCase{Value: int64(i), Target: tgt})
	}
	term.SwitchInt.Otherwise = targets[len(targets)-1]
	return Block{ID: id, Term: term}
}

func returnBlock(id BlockID) Block {
	return Block{ID: id, Term: Terminator{Kind: TermReturn}}
}

func TestReversePostorder_Diamond(t *testing.T) {
	f := &Func{Blocks: []Block{
		switchBlock(0, 1, 2),
		gotoBlock(1, 3),
		gotoBlock(2, 3),
		returnBlock(3),
	}}
	rpo := f.ReversePostorder()
	if rpo[0] != 0 || rpo[len(rpo)-1] != 3 {
		t.Fatalf("entry first and join last expected, got %v", rpo)
	}
	if len(rpo) != 4 {
		t.Fatalf("all blocks reachable, got %v", rpo)
	}
	preds := f.Predecessors()
	if !slices.Equal(preds[3], []BlockID{1, 2}) {
		t.Fatalf("preds of bb3: %v", preds[3])
	}
}

func TestReversePostorder_LoopAndDeadBlock(t *testing.T) {
	f := &Func{Blocks: []Block{
		gotoBlock(0, 1),
		switchBlock(1, 2, 3), // loop header
		gotoBlock(2, 1),      // back edge
		returnBlock(3),
		gotoBlock(4, 3), // unreachable
	}}
	rpo := f.ReversePostorder()
	if slices.Contains(rpo, 4) {
		t.Fatalf("unreachable block in rpo: %v", rpo)
	}
	pos := func(id BlockID) int { return slices.Index(rpo, id) }
	if pos(0) > pos(1) || pos(1) > pos(2) || pos(1) > pos(3) {
		t.Fatalf("rpo order violated: %v", rpo)
	}
	reach := f.Reachable()
	if reach[4] || !reach[2] {
		t.Fatalf("reachability wrong: %v", reach)
	}
	if preds := f.Predecessors(); !slices.Equal(preds[1], []BlockID{0, 2}) || len(preds[3]) != 1 {
		t.Fatalf("preds: %v", preds)
	}
}

func TestSwitchDuplicateEdgesCollapse(t *testing.T) {
	f := &Func{Blocks: []Block{
		switchBlock(0, 1, 1, 1),
		returnBlock(1),
	}}
	if preds := f.Predecessors(); len(preds[1]) != 1 {
		t.Fatalf("duplicate edges must collapse: %v", preds[1])
	}
}

func TestCallWithoutTargetHasNoSuccessors(t *testing.T) {
	b := Block{Term: Terminator{Kind: TermCall, Call: CallTerm{Target: NoBlockID}}}
	if succ := b.Successors(); len(succ) != 0 {
		t.Fatalf("diverging call: %v", succ)
	}
}
