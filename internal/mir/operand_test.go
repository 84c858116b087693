package mir

import "testing"

func TestConstOperandKinds(t *testing.T) {
	if op := IntConst(3); op.Kind != OperandConst || op.Const.Kind != ConstInt || op.Const.Int != 3 {
		t.Errorf("IntConst(3) = %+v", op)
	}
	if op := NullConst(); op.Kind != OperandConst || op.Const.Kind != ConstNull {
		t.Errorf("NullConst() = %+v", op)
	}
}
