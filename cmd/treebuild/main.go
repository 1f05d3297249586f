// Command treebuild is an interactive shell over internal/bptree, with
// the commands create/open/close/insert/search/quit typed as full
// words; single-letter abbreviations are not accepted.
package main

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/afero"

	"github.com/btree-query-bench/treewright/internal/bptree"
)

func main() {
	rl, err := readline.New("treebuild> ")
	if err != nil {
		log.Fatalf("treebuild: readline: %v", err)
	}
	defer rl.Close()

	shell := &shell{fs: afero.NewOsFs(), rl: rl}
	shell.run()
}

type shell struct {
	fs   afero.Fs
	rl   *readline.Instance
	tree *bptree.Tree
}

func (s *shell) run() {
	fmt.Println("commands: create, open, close, insert, search, quit")
	for {
		line, err := s.rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			s.closeTree()
			return
		}
		if err != nil {
			log.Printf("treebuild: readline: %v", err)
			continue
		}

		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}

		switch cmd {
		case "create":
			s.create()
		case "open":
			s.open()
		case "close":
			s.close()
		case "insert":
			s.insert()
		case "search":
			fmt.Println("search: not implemented")
		case "quit":
			s.closeTree()
			return
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func (s *shell) create() {
	name, err := s.promptLine("filename")
	if err != nil {
		return
	}
	s.closeTree()
	tr, err := bptree.Create(s.fs, name)
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "create: %v\n", err)
		return
	}
	s.tree = tr
	fmt.Println("created", name)
}

func (s *shell) open() {
	name, err := s.promptLine("filename")
	if err != nil {
		return
	}
	s.closeTree()
	tr, err := bptree.Open(s.fs, name)
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "open: %v\n", err)
		return
	}
	s.tree = tr
	fmt.Println("opened", name)
}

func (s *shell) close() {
	s.closeTree()
	fmt.Println("closed")
}

func (s *shell) closeTree() {
	if s.tree == nil {
		return
	}
	if err := s.tree.Close(); err != nil {
		fmt.Fprintf(s.rl.Stderr(), "close: %v\n", err)
	}
	s.tree = nil
}

func (s *shell) insert() {
	if s.tree == nil {
		fmt.Println("insert: no open file")
		return
	}
	raw, err := s.promptLine("key")
	if err != nil {
		return
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 16)
	if err != nil {
		fmt.Printf("insert: %v\n", err)
		return
	}
	if err := s.tree.Insert(bptree.Key(n)); err != nil {
		fmt.Fprintf(s.rl.Stderr(), "insert: %v\n", err)
		return
	}
	fmt.Println("inserted", n)
}

func (s *shell) promptLine(label string) (string, error) {
	s.rl.SetPrompt(label + "> ")
	defer s.rl.SetPrompt("treebuild> ")
	line, err := s.rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
