// Command treeprint walks an existing index file and prints one line
// per node block, in file (append) order.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/afero"

	"github.com/btree-query-bench/treewright/internal/bptree"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <index-file>\n", os.Args[0])
		os.Exit(2)
	}

	fs := afero.NewOsFs()
	tr, err := bptree.Open(fs, os.Args[1])
	if err != nil {
		log.Fatalf("treeprint: open: %v", err)
	}
	defer tr.Close()

	fmt.Printf("root=%d\n", tr.RootOffset())
	if err := tr.Walk(func(r bptree.Record) error {
		fmt.Println(r.String())
		return nil
	}); err != nil {
		log.Fatalf("treeprint: walk: %v", err)
	}
}
