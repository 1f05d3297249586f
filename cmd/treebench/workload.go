package main

import (
	"math/rand"

	"github.com/btree-query-bench/treewright/internal/refindex"
)

// WorkloadType names a mixed access pattern driven against a
// refindex.Index.
type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10)"
	OLAP      WorkloadType = "OLAP (10/90)"
	Reporting WorkloadType = "Reporting (Range)"
)

// ExecuteWorkload drives ops operations of wType against idx, keys
// drawn from [0, ops).
func ExecuteWorkload(idx refindex.Index, wType WorkloadType, ops int) {
	for i := 0; i < ops; i++ {
		choice := rand.Intn(100)
		key := uint16(rand.Intn(ops))

		switch wType {
		case OLTP:
			if choice < 90 {
				_, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case OLAP:
			if choice < 10 {
				_, _ = idx.Get(key)
			} else {
				_ = idx.Insert(key, []byte("x"))
			}
		case Reporting:
			it, err := idx.Range(key, key+100)
			if err != nil || it == nil {
				continue
			}
			for it.Next() {
			}
			it.Close()
		}
	}
}
