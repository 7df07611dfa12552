// td-run loads a graph, splits it over host and device partitions per a plan,
// and drives one of the registered vertex programs to completion.
package main

import (
	"bufio"
	"context"
	"flag"
	"math"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tandemgraph/tandem/alg"
	"github.com/tandemgraph/tandem/engine"
	"github.com/tandemgraph/tandem/graph"
	"github.com/tandemgraph/tandem/utils"
)

const summaryTop = 10

func main() {
	graphPtr := flag.String("g", "", "Graph file (text edge list, optional #Nodes/#Edges/#Undirected headers).")
	algPtr := flag.String("a", "bfs", "Algorithm: "+strings.Join(alg.Names(), ", ")+".")
	srcPtr := flag.Uint("src", 0, "Source vertex for traversals and flow.")
	dstPtr := flag.Uint("dst", 0, "Sink vertex for maxflow and stcon.")
	planPtr := flag.String("plan", "", "HCL execution plan file. Overrides -parts, -devp and -devf.")
	partsPtr := flag.Int("parts", 1, "Host partition count when no plan file is given.")
	devpPtr := flag.Int("devp", 1, "Device partition count, used once -devf is nonzero.")
	devfPtr := flag.Float64("devf", 0, "Vertex fraction handed to device partitions. 0 keeps the run host-only.")
	undirPtr := flag.Bool("u", false, "Interpret the input graph as undirected (mirror every edge).")
	epsPtr := flag.Float64("e", 0, "Epsilon: pagerank tolerance, or betweenness sampling fraction.")
	dampPtr := flag.Float64("damp", 0, "PageRank damping factor. 0 means 0.85.")
	pstartPtr := flag.Float64("pstart", 0, "First pcore threshold. 0 means 1.")
	pstepPtr := flag.Float64("pstep", 0, "Pcore threshold step. 0 means 1.")
	budgetPtr := flag.Int("r", 0, "Round budget. 0 lets the algorithm pick its own.")
	statPtr := flag.Bool("stat", false, "Compute and log graph statistics before running.")
	outPtr := flag.String("o", "", "Write per-vertex results to the given file.")
	profilePtr := flag.Bool("profile", false, "Profile the run, print memory stats, and create a pprof file.")
	debugPtr := flag.Int("debug", 0, "Adds extra debug output. Level 0 for info, 1 for debug, 2 adds per-round timing.")
	colourPtr := flag.Bool("nc", false, "Removes the colouring from the log output.")
	flag.Parse()

	if *colourPtr {
		utils.SetLoggerConsole(true)
	}
	utils.SetLevel(*debugPtr)

	if *graphPtr == "" {
		flag.Usage()
		log.Fatal().Msg("A graph file is required (-g).")
	}
	spec, err := alg.Lookup(*algPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("Bad algorithm name.")
	}

	watch := utils.Watch{}
	watch.Start()
	var g *graph.Graph
	if *undirPtr {
		g, err = graph.LoadFileUndirected(*graphPtr)
	} else {
		g, err = graph.LoadFile(*graphPtr)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load the graph.")
	}
	log.Info().Msg("Loaded " + utils.V(g.VertexCount()) + " vertices and " + utils.V(g.EdgeCount()) +
		" edges in " + utils.V(watch.Elapsed().Milliseconds()) + "ms.")
	if *statPtr {
		g.ComputeStats().Log()
	}

	plan, err := buildPlan(*planPtr, *partsPtr, *devpPtr, *devfPtr, *budgetPtr, *epsPtr)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not assemble the execution plan.")
	}
	params := alg.Params{
		Source:  uint32(*srcPtr),
		Sink:    uint32(*dstPtr),
		Epsilon: *epsPtr,
		Damping: *dampPtr,
		PStart:  *pstartPtr,
		PStep:   *pstepPtr,
	}
	if *profilePtr {
		utils.MemoryStats()
		file := utils.CreateFile("algorithm.pprof")
		pprof.StartCPUProfile(file)
		defer file.Close()
	}

	watch.Start()
	rep, err := spec.Run(context.Background(), g, params, plan)
	if err != nil {
		log.Fatal().Err(err).Msg("Run failed.")
	}
	if *profilePtr {
		utils.MemoryStats()
		pprof.StopCPUProfile()
	}
	log.Info().Msg("Finished " + rep.Algorithm + ": " + rep.Outcome.String() + " after " +
		utils.V(rep.Rounds) + " rounds in " + utils.V(watch.Elapsed().Milliseconds()) + "ms.")

	summarize(rep)
	if *outPtr != "" {
		if len(rep.Values) > 0 {
			writeValues(*outPtr, rep.Values)
		} else {
			log.Info().Msg("No per-vertex values to write for " + rep.Algorithm + ".")
		}
	}
}

// buildPlan assembles the execution plan: an HCL file when given, otherwise
// the quick-split flags. -r and -e overlay whichever source chose nothing.
func buildPlan(planFile string, hostParts, devParts int, devFrac float64, budget int, eps float64) (engine.Plan, error) {
	var plan engine.Plan
	if planFile != "" {
		var err error
		plan, err = engine.LoadPlanFile(planFile)
		if err != nil {
			return engine.Plan{}, err
		}
	} else if devFrac > 0 {
		if devParts < 1 {
			devParts = 1
		}
		plan = engine.SplitPlan(hostParts, devParts, devFrac)
	} else {
		plan = engine.HostPlan(hostParts)
	}
	if budget > 0 {
		plan.RoundBudget = budget
	}
	if eps > 0 && plan.Epsilon == 0 {
		plan.Epsilon = eps
	}
	return plan, nil
}

func summarize(rep *alg.Report) {
	switch rep.Algorithm {
	case "maxflow":
		log.Info().Msg("Max flow shipped: " + utils.F("%.6g", rep.Flow))
	case "stcon":
		log.Info().Msg("Sink reachable: " + utils.V(rep.Reached))
	case "bfs", "sssp":
		costSummary(rep.Values)
	case "wcc":
		componentSummary(rep.Values)
	default:
		topSummary(rep.Values)
	}
}

// costSummary prints the reach count and cost spread of a traversal.
func costSummary(costs []float64) {
	reached := 0
	sum, max := 0.0, 0.0
	for _, c := range costs {
		if math.IsInf(c, 1) {
			continue
		}
		reached++
		sum += c
		if c > max {
			max = c
		}
	}
	if reached == 0 {
		log.Info().Msg("Nothing reached.")
		return
	}
	log.Info().Msg("Reached " + utils.V(reached) + " of " + utils.V(len(costs)) +
		", max cost " + utils.F("%.6g", max) +
		", mean " + utils.F("%.6g", sum/float64(reached)) + ".")
}

func componentSummary(labels []float64) {
	distinct := make(map[float64]struct{})
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	log.Info().Msg("Connected components: " + utils.V(len(distinct)) + ".")
}

// topSummary prints the highest-scoring vertices.
func topSummary(values []float64) {
	for rank, p := range utils.FindTopN(values, summaryTop) {
		log.Info().Msg("  top " + utils.F("%2d", rank+1) + ": vertex " + utils.V(p.First) +
			" = " + utils.F("%.6g", p.Second))
	}
}

// writeValues dumps one "vertex value" line per vertex.
func writeValues(path string, values []float64) {
	file := utils.CreateFile(path)
	defer file.Close()
	w := bufio.NewWriter(file)
	for v, val := range values {
		w.WriteString(strconv.Itoa(v))
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		log.Error().Err(err).Msg("Could not flush results to " + path + ".")
		return
	}
	log.Info().Msg("Wrote " + utils.V(len(values)) + " results to " + path + ".")
}
