package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tandemgraph/tandem/utils"
)

// Text edge-list format. Optional header lines declare the shape:
//
//	#Nodes: 1000
//	#Edges: 999
//	#Directed  (or #Undirected)
//
// Every other #-line is a comment. Data lines are "src dst" or "src dst weight",
// whitespace separated. Without a header the graph is directed and the vertex
// count is inferred from the largest id.
const loadBatch = 4096

type rawEdge struct {
	src uint32
	dst uint32
	w   float64
}

type loadHeader struct {
	nodes      uint32
	hasNodes   bool
	edges      uint64
	hasEdges   bool
	undirected bool
	weighted   bool
}

// LoadFile reads a graph from the text edge-list file at path.
func LoadFile(path string) (*Graph, error) {
	return loadPath(path, false)
}

// LoadFileUndirected reads the file as undirected no matter what its header
// declares, mirroring every edge.
func LoadFileUndirected(path string) (*Graph, error) {
	return loadPath(path, true)
}

func loadPath(path string, forceUndirected bool) (*Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", path, err)
	}
	defer file.Close()
	g, err := load(file, forceUndirected)
	if err != nil {
		return nil, fmt.Errorf("graph: load %s: %w", path, err)
	}
	return g, nil
}

// Load reads a graph from the text edge-list format. Parsing runs on a
// producer goroutine feeding edge batches over a channel; the caller's
// goroutine accumulates them.
func Load(r io.Reader) (*Graph, error) {
	return load(r, false)
}

func load(r io.Reader, forceUndirected bool) (*Graph, error) {
	batches := make(chan []rawEdge, 64)
	var hdr loadHeader
	var parseErr error

	go func() {
		hdr, parseErr = parseEdgeText(r, batches)
		close(batches)
	}()

	var edges []rawEdge
	for batch := range batches {
		edges = append(edges, batch...)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	if hdr.hasEdges && hdr.edges != uint64(len(edges)) {
		log.Warn().Msg("WARNING: header declares " + utils.V(hdr.edges) + " edges, file holds " + utils.V(len(edges)))
	}

	b := NewBuilder(!hdr.undirected && !forceUndirected)
	if hdr.hasNodes {
		b.Grow(hdr.nodes)
	}
	if hdr.weighted {
		b.SetWeighted()
	}
	for i := range edges {
		if hdr.hasNodes && (edges[i].src >= hdr.nodes || edges[i].dst >= hdr.nodes) {
			return nil, fmt.Errorf("graph: edge %d (%d -> %d) exceeds declared vertex count %d: %w",
				i, edges[i].src, edges[i].dst, hdr.nodes, ErrFormat)
		}
		b.AddWeightedEdge(edges[i].src, edges[i].dst, edges[i].w)
	}
	return b.Build()
}

func parseEdgeText(r io.Reader, batches chan<- []rawEdge) (hdr loadHeader, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<20)
	fields := make([]string, 8)
	batch := make([]rawEdge, 0, loadBatch)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			parseHeaderLine(string(line), &hdr)
			continue
		}

		nf := utils.FastFields(fields, line)
		if nf != 2 && nf != 3 {
			return hdr, fmt.Errorf("graph: line %d: expected 2 or 3 fields, got %d: %w", lineNum, nf, ErrFormat)
		}
		src, okS := utils.ParseUint32(fields[0])
		dst, okD := utils.ParseUint32(fields[1])
		if !okS || !okD {
			return hdr, fmt.Errorf("graph: line %d: bad vertex id: %w", lineNum, ErrFormat)
		}
		w := 1.0
		if nf == 3 {
			w, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return hdr, fmt.Errorf("graph: line %d: bad weight %q: %w", lineNum, fields[2], ErrFormat)
			}
			hdr.weighted = true
		}

		batch = append(batch, rawEdge{src: src, dst: dst, w: w})
		if len(batch) == loadBatch {
			batches <- batch
			batch = make([]rawEdge, 0, loadBatch)
		}
	}
	if serr := scanner.Err(); serr != nil {
		return hdr, fmt.Errorf("graph: read: %w", serr)
	}
	if len(batch) > 0 {
		batches <- batch
	}
	return hdr, nil
}

func parseHeaderLine(line string, hdr *loadHeader) {
	rest := strings.TrimSpace(line[1:])
	switch {
	case strings.HasPrefix(rest, "Nodes:"):
		if v, ok := utils.ParseUint32(strings.TrimSpace(strings.TrimPrefix(rest, "Nodes:"))); ok {
			hdr.nodes = v
			hdr.hasNodes = true
		}
	case strings.HasPrefix(rest, "Edges:"):
		if v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(rest, "Edges:")), 10, 64); err == nil {
			hdr.edges = v
			hdr.hasEdges = true
		}
	case rest == "Undirected":
		hdr.undirected = true
	case rest == "Directed":
		hdr.undirected = false
	}
}
