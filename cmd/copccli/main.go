// Command copccli inspects and extracts data from COPC (Cloud Optimized
// Point Cloud) files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/copc-go/copc/copc"
	"github.com/copc-go/copc/copc/voxel"
)

const appVersion = "0.1.0"

func main() {
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "inspect":
		err = runInspect(args)
	case "nodes":
		err = runNodes(args)
	case "extract":
		err = runExtract(args)
	case "version":
		fmt.Printf("copccli version %s\n", appVersion)
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  inspect <file>              print header/COPC info summary\n")
	fmt.Fprintf(os.Stderr, "  nodes <file>                list every hierarchy node\n")
	fmt.Fprintf(os.Stderr, "  extract <file> <node-key>   decompress one node's points to stdout\n")
	fmt.Fprintf(os.Stderr, "  version                     print version and exit\n\n")
	fmt.Fprintf(os.Stderr, "A <file> path inside a .zip or .7z archive may be given as\n")
	fmt.Fprintf(os.Stderr, "archive.zip::path/inside/archive.copc.laz.\n")
}

// openInput opens path, transparently handling the "archive::entry" form for
// a COPC/LAZ file bundled inside a ZIP or 7z archive.
func openInput(path string) (*copc.Reader, error) {
	if archivePath, entry, ok := strings.Cut(path, "::"); ok {
		return copc.OpenArchiveEntry(archivePath, entry)
	}
	return copc.Open(path)
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect: expected exactly one file argument")
	}

	r, err := openInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open %q: %w", fs.Arg(0), err)
	}
	defer func() { _ = r.Close() }()

	stat, err := r.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", fs.Arg(0), err)
	}

	cfg := r.Config()
	summary := struct {
		PointDataFormat int     `json:"pointDataFormat"`
		NodeCount       int     `json:"nodeCount"`
		TotalPoints     int64   `json:"totalPoints"`
		MaxDepth        int32   `json:"maxDepth"`
		RootSpacing     float64 `json:"rootSpacing"`
		WKT             string  `json:"wkt,omitempty"`
	}{
		PointDataFormat: cfg.LasHeader.BasePointFormat(),
		NodeCount:       stat.NodeCount,
		TotalPoints:     stat.TotalPoints,
		MaxDepth:        stat.MaxDepth,
		RootSpacing:     cfg.CopcInfo.RootSpacing,
		WKT:             cfg.WKT,
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("Point data format: %d\n", summary.PointDataFormat)
	fmt.Printf("Nodes:             %d\n", summary.NodeCount)
	fmt.Printf("Total points:      %d\n", summary.TotalPoints)
	fmt.Printf("Max depth:         %d\n", summary.MaxDepth)
	fmt.Printf("Root spacing:      %g\n", summary.RootSpacing)
	if summary.WKT != "" {
		fmt.Printf("WKT:               %s\n", summary.WKT)
	}
	return nil
}

func runNodes(args []string) error {
	fs := flag.NewFlagSet("nodes", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("nodes: expected exactly one file argument")
	}

	r, err := openInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open %q: %w", fs.Arg(0), err)
	}
	defer func() { _ = r.Close() }()

	nodes, err := r.GetAllNodes()
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}
	for _, n := range nodes {
		fmt.Printf("%s\tpoints=%d\toffset=%d\tsize=%d\n", n.Key, n.PointCount, n.Offset, n.ByteSize)
	}
	return nil
}

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	out := fs.String("o", "", "output file path (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("extract: expected <file> <node-key>")
	}

	key, err := voxel.ParseKey(fs.Arg(1))
	if err != nil {
		return err
	}

	r, err := openInput(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("open %q: %w", fs.Arg(0), err)
	}
	defer func() { _ = r.Close() }()

	node, err := r.GetNodeOrErr(key)
	if err != nil {
		return err
	}

	data, err := r.GetPointData(*node)
	if err != nil {
		return fmt.Errorf("decompress node %s: %w", key, err)
	}

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(*out, data, 0o644) //nolint:gosec // extracted point data is not sensitive
}
