package main

import (
	"context"
	"log"
	"sync"

	"github.com/chazu/caliper/pkg/assembly"
	"github.com/chazu/caliper/pkg/engine"
	"github.com/chazu/caliper/pkg/stackup"
)

// colorPalette assigns distinct render colors to parts as they load.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via
// bindings. The loaded assembly graph is the only state held between
// calls; it is rebuilt wholesale on every load.
type App struct {
	ctx    context.Context
	engine *engine.Engine

	mu    sync.Mutex
	graph *assembly.Graph
}

// NewApp creates a new App with a chain-script engine.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
	}
}

// startup is called by Wails on app startup. The context is saved so
// we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// StackupInput is the JSON-serializable calculation request from the
// frontend.
type StackupInput struct {
	Links             []stackup.ChainLink `json:"links"`
	MonteCarloSamples int                 `json:"monteCarloSamples,omitempty"`
	TargetSpec        *stackup.TargetSpec `json:"targetSpec,omitempty"`
	Seed              int64               `json:"seed,omitempty"`
}

// StackupResult is the calculation response envelope.
type StackupResult struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Result   *stackup.Result `json:"result,omitempty"`
	Insights []string        `json:"insights,omitempty"`
}

// CalculateToleranceStackup runs all analyzers over the supplied chain
// links and returns the combined result with derived insights.
func (a *App) CalculateToleranceStackup(input StackupInput) StackupResult {
	if len(input.Links) == 0 {
		return StackupResult{Error: "no links provided"}
	}

	opts := stackup.DefaultOptions()
	if input.MonteCarloSamples > 0 {
		opts.Samples = input.MonteCarloSamples
	}
	opts.Target = input.TargetSpec
	opts.Seed = input.Seed

	result, err := stackup.Calculate(input.Links, opts)
	if err != nil {
		log.Printf("CalculateToleranceStackup: %v", err)
		return StackupResult{Error: err.Error()}
	}

	return StackupResult{
		Success:  true,
		Result:   result,
		Insights: stackup.Insights(result),
	}
}

// DetectionResultData is the detection response envelope.
type DetectionResultData struct {
	Success         bool                       `json:"success"`
	Error           string                     `json:"error,omitempty"`
	Interfaces      []assembly.MatingInterface `json:"interfaces"`
	JunctionParts   []string                   `json:"junctionParts"`
	TotalInterfaces int                        `json:"totalInterfaces"`
}

// DetectMatingInterfaces finds candidate contacts between the supplied
// parts. A zero threshold keeps the default.
func (a *App) DetectMatingInterfaces(parts []assembly.Part, proximityThreshold, normalThreshold float64) DetectionResultData {
	params := assembly.DefaultDetectionParams()
	if proximityThreshold > 0 {
		params.ProximityThreshold = proximityThreshold
	}
	if normalThreshold > 0 {
		params.FaceToFaceCutoff = normalThreshold
	}

	result := assembly.Detect(parts, params)
	return DetectionResultData{
		Success:         true,
		Interfaces:      result.Interfaces,
		JunctionParts:   result.JunctionParts,
		TotalInterfaces: len(result.Interfaces),
	}
}

// LoadAssembly runs detection over the parts, builds the adjacency
// graph, and retains it for path and chain queries. Parts without a
// color get one from the palette.
func (a *App) LoadAssembly(parts []assembly.Part, proximityThreshold, normalThreshold float64) DetectionResultData {
	for i := range parts {
		if parts[i].Color == "" {
			parts[i].Color = colorPalette[i%len(colorPalette)]
		}
	}

	detection := a.DetectMatingInterfaces(parts, proximityThreshold, normalThreshold)

	a.mu.Lock()
	a.graph = assembly.BuildGraph(parts, detection.Interfaces)
	a.mu.Unlock()

	return detection
}

// FindStackupPath returns the shortest interface path between two
// loaded parts, or nil when disconnected or no assembly is loaded.
func (a *App) FindStackupPath(startID, endID string) *assembly.Path {
	a.mu.Lock()
	g := a.graph
	a.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.FindPath(startID, endID)
}

// ChainResult is the chain-generation response envelope.
type ChainResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Chain   *stackup.Chain `json:"chain,omitempty"`
}

// GenerateChainBetween auto-derives a tolerance chain along the
// shortest path between two loaded parts.
func (a *App) GenerateChainBetween(startID, endID string) ChainResult {
	a.mu.Lock()
	g := a.graph
	a.mu.Unlock()
	if g == nil {
		return ChainResult{Error: "no assembly loaded"}
	}

	chain, err := g.GenerateChain(startID, endID)
	if err != nil {
		return ChainResult{Error: err.Error()}
	}
	return ChainResult{Success: true, Chain: chain}
}

// ExportAssemblyGraph serializes the loaded graph to versioned JSON.
func (a *App) ExportAssemblyGraph() (string, error) {
	a.mu.Lock()
	g := a.graph
	a.mu.Unlock()
	if g == nil {
		return "", nil
	}
	data, err := assembly.EncodeGraph(g)
	if err != nil {
		log.Printf("ExportAssemblyGraph: %v", err)
		return "", err
	}
	return string(data), nil
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ScriptResult is the chain-script evaluation response.
type ScriptResult struct {
	Chains []*stackup.Chain `json:"chains"`
	Errors []EvalErrorData  `json:"errors"`
}

// EvaluateChainScript takes chain-script source and returns the chains
// it defines plus any errors. This is the binding called by the
// frontend editor.
func (a *App) EvaluateChainScript(source string) ScriptResult {
	result := ScriptResult{
		Chains: []*stackup.Chain{},
		Errors: []EvalErrorData{},
	}

	chains, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("EvaluateChainScript fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{
			Line:    e.Line,
			Col:     e.Col,
			Message: e.Message,
		})
	}
	if len(evalErrs) > 0 {
		return result
	}

	result.Chains = chains
	return result
}
