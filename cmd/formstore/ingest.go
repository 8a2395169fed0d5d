package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/formstore/internal/errors"
	"github.com/vango-dev/formstore/pkg/ingest"
)

// boundaryPeek is how much input is inspected when inferring the boundary.
const boundaryPeek = 4096

func ingestCmd(opts *rootOptions) *cobra.Command {
	var (
		input    string
		boundary string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process a multipart body from a file or stdin",
		Long: `Run the ingest pipeline over a raw multipart/form-data body and print
the request outcome as JSON.

The boundary is taken from the first line starting with "--" unless
--boundary is given.

Examples:
  formstore ingest --input=body.bin
  curl ... | formstore ingest --boundary=XyZ`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), opts, input, boundary, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "Input file, - for stdin")
	cmd.Flags().StringVarP(&boundary, "boundary", "b", "", "Multipart boundary (inferred when empty)")

	return cmd
}

func runIngest(ctx context.Context, opts *rootOptions, input, boundary string, out io.Writer) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)

	var r io.Reader = os.Stdin
	if input != "-" && input != "" {
		f, err := os.Open(input)
		if err != nil {
			return errors.New("E301").WithDetail(input).Wrap(err)
		}
		defer f.Close()
		r = f
	}

	br := bufio.NewReaderSize(r, boundaryPeek)
	if boundary == "" {
		boundary, err = detectBoundary(br)
		if err != nil {
			return err
		}
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	pipelineConfig, err := cfg.PipelineConfig()
	if err != nil {
		return err
	}
	pipeline, err := ingest.New(pipelineConfig, backend, ingest.WithLogger(logger))
	if err != nil {
		return errors.New("E202").Wrap(err)
	}

	outcome, procErr := pipeline.Process(ctx, multipart.NewReader(br, boundary))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return err
	}

	if procErr != nil {
		return errors.New("E301").WithDetail("request failed").Wrap(procErr)
	}
	if !outcome.OK() {
		warn("%d of %d parts stored", len(outcome.Stored()), len(outcome.Parts))
	}
	return nil
}

// detectBoundary returns the boundary from the first delimiter line in br
// without consuming input.
func detectBoundary(br *bufio.Reader) (string, error) {
	buf, err := br.Peek(boundaryPeek)
	if err != nil && len(buf) == 0 {
		if err == io.EOF {
			return "", errors.New("E302").WithDetail("input is empty")
		}
		return "", errors.New("E301").Wrap(err)
	}

	for len(buf) > 0 {
		line := buf
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			line, buf = buf[:i], buf[i+1:]
		} else {
			buf = nil
		}

		line = bytes.TrimRight(line, " \t\r")
		if len(line) > 2 && bytes.HasPrefix(line, []byte("--")) {
			return string(line[2:]), nil
		}
	}

	return "", errors.New("E302")
}
