package main

import (
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/nereusdb/ndbc"
	"github.com/nereusdb/ndbc/bsondoc"
)

// runREPL drops into an interactive shell with tab completion over a small
// fixed command set, the same go-prompt Executor/Completer split the
// pack's own console tooling is built around.
func runREPL(c *ndbc.Client) {
	r := &repl{client: c, db: c.URI.Database}
	fmt.Printf("ndbcsh connected to %v (mode=%s)\n", c.URI.Addresses(), c.Cluster().Mode)
	prompt.New(r.execute, r.complete,
		prompt.OptionPrefix("ndbcsh> "),
		prompt.OptionTitle("ndbcsh"),
	).Run()
}

type repl struct {
	client *ndbc.Client
	db     string
}

var replCommands = []prompt.Suggest{
	{Text: "use", Description: "switch the current database: use <db>"},
	{Text: "count", Description: "count documents: count <collection>"},
	{Text: "drop", Description: "drop a collection: drop <collection>"},
	{Text: "find", Description: "list up to 10 documents: find <collection>"},
	{Text: "exit", Description: "leave the shell"},
}

func (r *repl) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(replCommands, d.GetWordBeforeCursor(), true)
}

func (r *repl) execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "exit", "quit":
		fmt.Println("bye")
		os.Exit(0)
	case "use":
		if len(fields) != 2 {
			fmt.Println("usage: use <db>")
			return
		}
		r.db = fields[1]
	case "count":
		r.count(fields)
	case "drop":
		r.drop(fields)
	case "find":
		r.find(fields)
	default:
		fmt.Printf("unknown command %q (try: use, count, drop, find, exit)\n", fields[0])
	}
}

func (r *repl) collectionArg(fields []string) (string, bool) {
	if len(fields) != 2 {
		fmt.Printf("usage: %s <collection>\n", fields[0])
		return "", false
	}
	if r.db == "" {
		fmt.Println("no database selected; run: use <db>")
		return "", false
	}
	return fields[1], true
}

func (r *repl) count(fields []string) {
	name, ok := r.collectionArg(fields)
	if !ok {
		return
	}
	coll, err := r.client.GetCollection(r.db, name)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	n, err := coll.Count(bsondoc.NewBuilder().Finish())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(n)
}

func (r *repl) drop(fields []string) {
	name, ok := r.collectionArg(fields)
	if !ok {
		return
	}
	coll, err := r.client.GetCollection(r.db, name)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := coll.Drop(); err != nil {
		fmt.Println("error:", err)
	}
}

func (r *repl) find(fields []string) {
	name, ok := r.collectionArg(fields)
	if !ok {
		return
	}
	coll, err := r.client.GetCollection(r.db, name)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	cur, err := coll.Find(bsondoc.NewBuilder().Finish(), bsondoc.Doc{}, 0, 10, false)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer cur.Close()
	n := 0
	for n < 10 && cur.Next() {
		fmt.Printf("%x\n", cur.Current().Bytes())
		n++
	}
	if err := cur.Err(); err != nil {
		fmt.Println("error:", err)
	}
}
