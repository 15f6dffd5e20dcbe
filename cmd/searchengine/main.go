// Command searchengine is the interactive shell over a corpus file.
//
// Every non-empty line of the file is one document. After the index is
// built the shell reads queries from stdin and prints the matching document
// names in rank order until it reads an empty line.
//
// Usage:
//
//	go run ./cmd/searchengine [-config configs/development.yaml] <corpus> <doc|aug>
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vnadhan/Inverted-Index/internal/indexer"
	"github.com/vnadhan/Inverted-Index/internal/ingestion/loader"
	"github.com/vnadhan/Inverted-Index/internal/ingestion/source"
	"github.com/vnadhan/Inverted-Index/pkg/config"
	apperrors "github.com/vnadhan/Inverted-Index/pkg/errors"
	"github.com/vnadhan/Inverted-Index/pkg/logger"
)

const (
	prompt      = "Write a query [Enter empty input to exit]"
	exitMessage = "Application exiting!"
	badStrategy = "Invalid Term Frequency strategy! [doc|aug]"
	usage       = "Invalid Arguments! E.g. searchengine [-config file] <file> [doc|aug]"
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run keeps stdout for prompts and results; logs and errors go to stderr.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("searchengine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "optional path to config file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, usage)
		return exitUsage
	}
	corpusPath, strategy := fs.Arg(0), fs.Arg(1)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, "text")

	cfg.Engine.Strategy = strategy
	engine, err := indexer.NewEngine(cfg.Engine, nil)
	if err != nil {
		if errors.Is(err, apperrors.ErrConfiguration) {
			fmt.Fprintln(stdout, badStrategy)
			return exitUsage
		}
		fmt.Fprintf(stderr, "creating engine: %v\n", err)
		return exitFailure
	}

	ctx := context.Background()
	if _, err := loader.New(engine, cfg.Corpus.LoadTimeout, nil).Load(ctx, source.NewFile(corpusPath)); err != nil {
		fmt.Fprintf(stderr, "Error reading file : %s (%v)\n", corpusPath, err)
		return exitFailure
	}

	return serve(engine, stdin, stdout, stderr)
}

func serve(engine *indexer.Engine, stdin io.Reader, stdout, stderr io.Writer) int {
	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprintln(stdout, prompt)
		if !scanner.Scan() || scanner.Text() == "" {
			break
		}
		names, err := engine.Query(scanner.Text())
		if err != nil {
			fmt.Fprintf(stderr, "query failed: %v\n", err)
			continue
		}
		fmt.Fprintln(stdout, format(names))
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "reading input: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(stdout, exitMessage)
	return exitOK
}

// format prints names as [document0, document2].
func format(names []string) string {
	return "[" + strings.Join(names, ", ") + "]"
}
