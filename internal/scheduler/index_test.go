package scheduler

import "testing"

func TestDimsBijection(t *testing.T) {
	cases := []Dims{
		{Nurses: 1, Shifts: 1, Days: 1},
		{Nurses: 2, Shifts: 1, Days: 2},
		{Nurses: 3, Shifts: 2, Days: 4},
		{Nurses: 20, Shifts: 3, Days: 14},
	}

	for _, dims := range cases {
		total := dims.VariableCount()
		seen := make(map[int]bool, total)

		for i := 0; i < dims.Nurses; i++ {
			for j := 0; j < dims.Shifts; j++ {
				for k := 0; k < dims.Days; k++ {
					id := dims.XID(i, j, k)
					if id < 0 || id >= total {
						t.Fatalf("XID(%d,%d,%d) = %d 超出 [0, %d)", i, j, k, id, total)
					}
					if seen[id] {
						t.Fatalf("XID(%d,%d,%d) = %d 与已有编号冲突", i, j, k, id)
					}
					seen[id] = true
				}
			}
		}

		for i := 0; i < dims.Nurses; i++ {
			id := dims.OID(i)
			if id < 0 || id >= total {
				t.Fatalf("OID(%d) = %d 超出 [0, %d)", i, id, total)
			}
			if seen[id] {
				t.Fatalf("OID(%d) = %d 与已有编号冲突", i, id)
			}
			seen[id] = true
		}

		if len(seen) != total {
			t.Errorf("dims %+v: 共有 %d 个编号被使用，应为 %d", dims, len(seen), total)
		}
	}
}

func TestDimsOrdering(t *testing.T) {
	dims := Dims{Nurses: 3, Shifts: 2, Days: 4}

	// 护士优先、班次次之、日期最次
	if got := dims.XID(0, 0, 0); got != 0 {
		t.Errorf("XID(0,0,0) = %d, 应为 0", got)
	}
	if got := dims.XID(0, 0, 1); got != 1 {
		t.Errorf("XID(0,0,1) = %d, 应为 1", got)
	}
	if got := dims.XID(0, 1, 0); got != 4 {
		t.Errorf("XID(0,1,0) = %d, 应为 4", got)
	}
	if got := dims.XID(1, 0, 0); got != 8 {
		t.Errorf("XID(1,0,0) = %d, 应为 8", got)
	}

	// o 变量紧跟在所有 x 变量之后
	if got := dims.OID(0); got != dims.XCount() {
		t.Errorf("OID(0) = %d, 应为 %d", got, dims.XCount())
	}
	if got := dims.OID(2); got != dims.VariableCount()-1 {
		t.Errorf("OID(2) = %d, 应为 %d", got, dims.VariableCount()-1)
	}

	// 同一 (护士, 班次) 的日期编号必须连续
	for k := 0; k+1 < dims.Days; k++ {
		if dims.XID(1, 1, k+1)-dims.XID(1, 1, k) != 1 {
			t.Fatalf("XID(1,1,%d) 与 XID(1,1,%d) 不连续", k, k+1)
		}
	}
}
