package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kasuganosora/hashbase/pkg/config"
	"github.com/kasuganosora/hashbase/pkg/engine"
	"github.com/kasuganosora/hashbase/pkg/sqlfront"
)

func main() {
	cfg := config.LoadConfigOrDefault()

	eng := engine.New(cfg)
	eng.Load()

	front := sqlfront.New(eng)

	fmt.Println("hashbase ready")
	fmt.Println("supported statements:")
	fmt.Println("- CREATE TABLE users (id int, name string) CONSTRAINTS (id primary_key)")
	fmt.Println("- INSERT INTO users VALUES (1, \"alice\")")
	fmt.Println("- SELECT * FROM users WHERE id=1")
	fmt.Printf("snapshot file: %s\n", cfg.Snapshot.Path)

	if err := repl(os.Stdin, os.Stdout, front); err != nil {
		log.Fatal("repl failed: ", err)
	}
}

func repl(in *os.File, out *os.File, front *sqlfront.Frontend) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "hashbase> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "hashbase> ")
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		result, err := front.Execute("", line)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		} else if result != nil {
			fmt.Fprintf(out, "%+v\n", result)
		} else {
			fmt.Fprintln(out, "ok")
		}
		fmt.Fprint(out, "hashbase> ")
	}
	return scanner.Err()
}
