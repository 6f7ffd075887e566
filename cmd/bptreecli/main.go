// Command bptreecli is a REPL driver over the B+ tree index, in the
// same spirit as DaemonDB's root main.go: a bufio.Scanner loop reading
// commands from stdin. It is not part of the core — it only
// constructs the three components in order and exercises them.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/Anshulkaocde123/bptree-kvstore/bptree"
	"github.com/Anshulkaocde123/bptree-kvstore/bufferpool"
	"github.com/Anshulkaocde123/bptree-kvstore/diskmanager"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: bptreecli <db-file> [pool-size]")
	}
	path := os.Args[1]

	poolSize := bptree.MaxPagesInRAM
	if len(os.Args) >= 3 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("invalid pool size %q: %v", os.Args[2], err)
		}
		poolSize = n
	}

	disk, err := diskmanager.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	pool := bufferpool.New(disk, poolSize)
	tree, err := bptree.Open(pool)
	if err != nil {
		log.Fatalf("open index: %v", err)
	}

	defer func() {
		if err := tree.Close(); err != nil {
			log.Printf("flush on close: %v", err)
		}
		if err := disk.Close(); err != nil {
			log.Printf("close disk file: %v", err)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("db> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			break
		}

		if err := runCommand(tree, pool, path, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func runCommand(tree *bptree.Tree, pool *bufferpool.Pool, path, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "insert":
		if len(fields) < 3 {
			return fmt.Errorf("usage: insert <key> <value>")
		}
		key, err := parseKey(fields[1])
		if err != nil {
			return err
		}
		value := strings.Join(fields[2:], " ")
		if !tree.Insert(key, value) {
			return fmt.Errorf("insert failed (buffer pool exhausted)")
		}
		fmt.Println("ok")

	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get <key>")
		}
		key, err := parseKey(fields[1])
		if err != nil {
			return err
		}
		val, ok := tree.Search(key)
		if !ok {
			fmt.Println("(not found)")
			return nil
		}
		fmt.Println(val)

	case "del":
		if len(fields) != 2 {
			return fmt.Errorf("usage: del <key>")
		}
		key, err := parseKey(fields[1])
		if err != nil {
			return err
		}
		if tree.Remove(key) {
			fmt.Println("ok")
		} else {
			fmt.Println("(not found)")
		}

	case "scan":
		if len(fields) != 3 {
			return fmt.Errorf("usage: scan <start> <end>")
		}
		start, err := parseKey(fields[1])
		if err != nil {
			return err
		}
		end, err := parseKey(fields[2])
		if err != nil {
			return err
		}
		for _, kv := range tree.Scan(start, end) {
			fmt.Printf("%d -> %s\n", kv.Key, kv.Value)
		}

	case "stats":
		fmt.Printf("pool: %d/%d frames resident, empty=%v\n", pool.Size(), pool.Capacity(), tree.IsEmpty())

	case "inspect":
		return bptree.InspectIndexFileTo(os.Stdout, path)

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

func parseKey(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return int32(n), nil
}
