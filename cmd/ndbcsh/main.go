// Command ndbcsh is a small interactive shell over the client library: a
// cobra root command for scripted one-shot invocations (ndbcsh find ...)
// and, with no subcommand, a go-prompt REPL for exploring a cluster by hand.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nereusdb/ndbc"
	"github.com/nereusdb/ndbc/bsondoc"
)

var uriFlag string

func main() {
	root := &cobra.Command{
		Use:   "ndbcsh",
		Short: "ndbcsh — interactive and scripted client for an ndbc-speaking server",
		Long:  "Connects to a cluster behind a connection URI and either runs one command or drops into a REPL.",
	}
	root.PersistentFlags().StringVar(&uriFlag, "uri", "ndb://127.0.0.1:27017", "connection URI")
	root.AddCommand(newCountCmd())
	root.AddCommand(newDropCmd())
	root.AddCommand(newReplCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect() (*ndbc.Client, error) {
	c, err := ndbc.New(uriFlag)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}
	if err := c.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return c, nil
}

func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <db> <collection>",
		Short: "count documents in a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			defer c.Close()
			coll, err := c.GetCollection(args[0], args[1])
			if err != nil {
				return err
			}
			n, err := coll.Count(bsondoc.NewBuilder().Finish())
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
}

func newDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <db> <collection>",
		Short: "drop a collection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			defer c.Close()
			coll, err := c.GetCollection(args[0], args[1])
			if err != nil {
				return err
			}
			return coll.Drop()
		},
	}
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			defer c.Close()
			runREPL(c)
			return nil
		},
	}
}
