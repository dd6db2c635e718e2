// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// probectl reads and writes probes on a running probe server.
//
// Usage:
//
//	probectl [--address HOST:PORT] read <probe>
//	probectl [--address HOST:PORT] write <probe> <value>
//	probectl [--address HOST:PORT] wait [--interval D] [--for D] <probe> [value]
//
// Exit codes: 0 on success, 2 when the probe does not exist, 3 when the
// server stayed busy, 4 when wait gave up, 1 for anything else.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/probed/lib/clock"
	"github.com/bureau-foundation/probed/lib/probeclient"
	"github.com/bureau-foundation/probed/lib/process"
	"github.com/bureau-foundation/probed/lib/version"
)

const (
	exitNotFound = 2
	exitBusy     = 3
	exitWait     = 4
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, clock.Real()); err != nil {
		stop()
		process.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, clk clock.Clock) error {
	flags := pflag.NewFlagSet("probectl", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	var (
		address     string
		timeout     time.Duration
		busyRetries int
		showVersion bool
	)
	defaultAddress := os.Getenv("PROBED_ADDRESS")
	if defaultAddress == "" {
		defaultAddress = "127.0.0.1:8765"
	}
	flags.StringVarP(&address, "address", "a", defaultAddress, "probe server address (default: $PROBED_ADDRESS)")
	flags.DurationVar(&timeout, "timeout", probeclient.DefaultTimeout, "per-request timeout")
	flags.IntVar(&busyRetries, "busy-retries", 0, "retry this many times when the server answers 503")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	flags.Usage = func() { printUsage(flags) }
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		version.Fprint(stdout, "probectl")
		return nil
	}

	rest := flags.Args()
	if len(rest) == 0 {
		printUsage(flags)
		return errors.New("missing command")
	}

	client := probeclient.New(address, probeclient.Options{
		Timeout:     timeout,
		BusyRetries: busyRetries,
		Clock:       clk,
	})

	var err error
	switch command, commandArgs := rest[0], rest[1:]; command {
	case "read":
		err = readCommand(ctx, client, commandArgs, stdout)
	case "write":
		err = writeCommand(ctx, client, commandArgs)
	case "wait":
		err = waitCommand(ctx, client, commandArgs, stdout, clk)
	default:
		printUsage(flags)
		return fmt.Errorf("unknown command %q", command)
	}
	return classify(err)
}

func readCommand(ctx context.Context, client *probeclient.Client, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: probectl read <probe>")
	}
	result, err := client.Read(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, result.Body)
	return nil
}

func writeCommand(ctx context.Context, client *probeclient.Client, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: probectl write <probe> <value>")
	}
	return client.Write(ctx, args[0], args[1])
}

// waitCommand polls a probe until it exists (and, given a value, until
// it reads back that value).
func waitCommand(ctx context.Context, client *probeclient.Client, args []string, stdout io.Writer, clk clock.Clock) error {
	flags := pflag.NewFlagSet("probectl wait", pflag.ContinueOnError)
	interval := flags.Duration("interval", 250*time.Millisecond, "time between polls")
	limit := flags.Duration("for", 30*time.Second, "give up after this long")
	if err := flags.Parse(args); err != nil {
		return err
	}
	positional := flags.Args()
	if len(positional) < 1 || len(positional) > 2 {
		return errors.New("usage: probectl wait [--interval D] [--for D] <probe> [value]")
	}
	name := positional[0]
	var want *string
	if len(positional) == 2 {
		want = &positional[1]
	}

	deadline := clk.Now().Add(*limit)
	var last string
	for {
		result, err := client.Read(ctx, name)
		switch {
		case err == nil:
			if want == nil || result.Body == *want {
				fmt.Fprintln(stdout, result.Body)
				return nil
			}
			last = result.Body
		case probeclient.IsNotFound(err), probeclient.IsBusy(err):
		default:
			return err
		}

		if !clk.Now().Before(deadline) {
			if want != nil && last != "" {
				return &process.ExitError{Code: exitWait, Err: fmt.Errorf("probe %q still reads %q after %v", name, last, *limit)}
			}
			return &process.ExitError{Code: exitWait, Err: fmt.Errorf("probe %q not ready after %v", name, *limit)}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(*interval):
		}
	}
}

// classify maps well-known server answers to distinct exit codes.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case probeclient.IsNotFound(err):
		return &process.ExitError{Code: exitNotFound, Err: err}
	case probeclient.IsBusy(err):
		return &process.ExitError{Code: exitBusy, Err: err}
	default:
		return err
	}
}

func printUsage(flags *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `probectl - read and write probes on a probe server

USAGE
    probectl [flags] <command> [args]

COMMANDS
    read <probe>            Print the probe's current value
    write <probe> <value>   Send a value to the probe
    wait <probe> [value]    Poll until the probe exists (or reads value)

FLAGS
%s
ENVIRONMENT
    PROBED_ADDRESS   Default server address
`, flags.FlagUsages())
}
