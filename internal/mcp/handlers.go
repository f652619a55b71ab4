package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
	"github.com/nvandessel/ecalab/internal/constants"
	"github.com/nvandessel/ecalab/internal/export"
	"github.com/nvandessel/ecalab/internal/initstate"
	"github.com/nvandessel/ecalab/internal/pathutil"
	"github.com/nvandessel/ecalab/internal/ratelimit"
	"github.com/nvandessel/ecalab/internal/store"
)

// registerTools registers all ecalab MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "eca_evolve",
		Description: "Evolve an elementary cellular automaton and report density and period statistics",
	}, s.handleEcaEvolve)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "eca_classify",
		Description: "Classify a rule into Wolfram class I-IV from the literature table or by analyzing its evolution",
	}, s.handleEcaClassify)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "eca_classify_batch",
		Description: "Classify many rules at once; failures are reported per rule",
	}, s.handleEcaClassifyBatch)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "eca_summary",
		Description: "Count how many rules fall into each Wolfram class",
	}, s.handleEcaSummary)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "eca_rule_table",
		Description: "Show the neighborhood-to-output table of a rule",
	}, s.handleEcaRuleTable)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "eca_export",
		Description: "Evolve a rule and write the run to a JSON, CSV, compressed v2 or Arrow IPC file",
	}, s.handleEcaExport)
}

// handleEcaEvolve implements the eca_evolve tool.
func (s *Server) handleEcaEvolve(ctx context.Context, req *sdk.CallToolRequest, args EcaEvolveInput) (_ *sdk.CallToolResult, _ EcaEvolveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("eca_evolve", start, retErr, withInitParams(map[string]any{
			"rule": args.Rule, "size": args.Size, "generations": args.Generations, "boundary": args.Boundary,
		}, args.Init))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "eca_evolve"); err != nil {
		return nil, EcaEvolveOutput{}, err
	}

	a, err := s.evolve(args.Rule, args.Size, args.Generations, args.Boundary, args.Init)
	if err != nil {
		return nil, EcaEvolveOutput{}, err
	}

	out := EcaEvolveOutput{
		Statistics: a.Statistics(),
		Final:      a.Current().Bits(),
	}
	if args.IncludeRows {
		history := a.History()
		out.Rows = make([]string, len(history))
		for i, row := range history {
			out.Rows[i] = row.Bits()
		}
	}

	if id, err := s.store.SaveRun(ctx, store.NewRun(a)); err != nil {
		s.logger.Warn("failed to record run", "rule", a.Rule(), "error", err)
	} else {
		out.RunID = id
	}

	out.Message = fmt.Sprintf("Rule %d evolved %d generations on %d cells (%s): final density %.3f",
		a.Rule(), a.Generation(), a.Size(), a.Boundary(), out.Statistics.FinalDensity)
	if p := out.Statistics.Period; p != nil {
		out.Message += fmt.Sprintf(", period %d", *p)
	}
	return nil, out, nil
}

// handleEcaClassify implements the eca_classify tool.
func (s *Server) handleEcaClassify(ctx context.Context, req *sdk.CallToolRequest, args EcaClassifyInput) (_ *sdk.CallToolResult, _ EcaClassifyOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("eca_classify", start, retErr, map[string]any{
			"rule": args.Rule, "size": args.Size, "generations": args.Generations, "use_literature": args.UseLiterature,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "eca_classify"); err != nil {
		return nil, EcaClassifyOutput{}, err
	}

	cfg := s.classifier.Config()
	size, generations, useLookup := cfg.Size, cfg.Generations, cfg.UseLiterature
	if args.Size != 0 {
		size = args.Size
	}
	if args.Generations != 0 {
		generations = args.Generations
	}
	if args.UseLiterature != nil {
		useLookup = *args.UseLiterature
	}
	if err := checkRunLimits(size, generations); err != nil {
		return nil, EcaClassifyOutput{}, err
	}

	result, err := s.classifier.ClassifyRule(ctx, args.Rule, size, generations, useLookup)
	if err != nil {
		return nil, EcaClassifyOutput{}, fmt.Errorf("classification failed: %w", err)
	}

	return nil, EcaClassifyOutput{
		Result: result,
		Message: fmt.Sprintf("Rule %d: %s (confidence %.2f, %s)",
			result.Rule, result.ClassName, result.Confidence, result.Source),
	}, nil
}

// handleEcaClassifyBatch implements the eca_classify_batch tool.
func (s *Server) handleEcaClassifyBatch(ctx context.Context, req *sdk.CallToolRequest, args EcaClassifyBatchInput) (_ *sdk.CallToolResult, _ EcaClassifyBatchOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("eca_classify_batch", start, retErr, map[string]any{"rule_count": len(args.Rules)})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "eca_classify_batch"); err != nil {
		return nil, EcaClassifyBatchOutput{}, err
	}

	rules, err := batchRules(args.Rules)
	if err != nil {
		return nil, EcaClassifyBatchOutput{}, err
	}

	results := s.classifier.ClassifyRules(ctx, rules)
	if err := ctx.Err(); err != nil {
		return nil, EcaClassifyBatchOutput{}, fmt.Errorf("batch classification cancelled: %w", err)
	}

	return nil, EcaClassifyBatchOutput{
		Results: results,
		Summary: summaryOutput(classifier.Summarize(results)),
	}, nil
}

// handleEcaSummary implements the eca_summary tool.
func (s *Server) handleEcaSummary(ctx context.Context, req *sdk.CallToolRequest, args EcaSummaryInput) (_ *sdk.CallToolResult, _ EcaSummaryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("eca_summary", start, retErr, map[string]any{"rule_count": len(args.Rules)})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "eca_summary"); err != nil {
		return nil, EcaSummaryOutput{}, err
	}

	rules, err := batchRules(args.Rules)
	if err != nil {
		return nil, EcaSummaryOutput{}, err
	}

	summary := s.classifier.Statistics(ctx, rules)
	if err := ctx.Err(); err != nil {
		return nil, EcaSummaryOutput{}, fmt.Errorf("summary cancelled: %w", err)
	}
	return nil, summaryOutput(summary), nil
}

// handleEcaRuleTable implements the eca_rule_table tool.
func (s *Server) handleEcaRuleTable(ctx context.Context, req *sdk.CallToolRequest, args EcaRuleTableInput) (_ *sdk.CallToolResult, _ EcaRuleTableOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("eca_rule_table", start, retErr, map[string]any{"rule": args.Rule})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "eca_rule_table"); err != nil {
		return nil, EcaRuleTableOutput{}, err
	}

	table, err := automaton.NewRuleTable(args.Rule)
	if err != nil {
		return nil, EcaRuleTableOutput{}, err
	}

	out := EcaRuleTableOutput{
		Rule:    args.Rule,
		Binary:  table.Binary(),
		Entries: table.Entries(),
	}
	if class, ok := classifier.LiteratureClass(args.Rule); ok {
		out.LiteratureClass = int(class)
	}
	return nil, out, nil
}

// handleEcaExport implements the eca_export tool.
func (s *Server) handleEcaExport(ctx context.Context, req *sdk.CallToolRequest, args EcaExportInput) (_ *sdk.CallToolResult, _ EcaExportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("eca_export", start, retErr, withInitParams(map[string]any{
			"rule": args.Rule, "size": args.Size, "generations": args.Generations, "boundary": args.Boundary,
			"format": args.Format, "path": args.Path,
		}, args.Init))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "eca_export"); err != nil {
		return nil, EcaExportOutput{}, err
	}

	format, err := export.ParseFormat(args.Format)
	if err != nil {
		return nil, EcaExportOutput{}, err
	}

	outputPath := args.Path
	if outputPath != "" {
		resolved, err := pathutil.ResolvePath(outputPath, s.allowedExportDirs)
		if err != nil {
			return nil, EcaExportOutput{}, fmt.Errorf("export path rejected: %w", err)
		}
		outputPath = resolved
	}

	a, err := s.evolve(args.Rule, args.Size, args.Generations, args.Boundary, args.Init)
	if err != nil {
		return nil, EcaExportOutput{}, err
	}
	doc := export.NewDocument(a)

	if outputPath == "" {
		// Generated under the default directory; no validation needed.
		dir, err := export.DefaultExportDir()
		if err != nil {
			return nil, EcaExportOutput{}, err
		}
		outputPath = filepath.Join(dir, export.FileName(doc.Rule, doc.CreatedAt, format))
	}

	if err := export.Write(outputPath, doc, format); err != nil {
		return nil, EcaExportOutput{}, fmt.Errorf("export failed: %w", err)
	}

	run := store.NewRun(a)
	run.ID = doc.RunID
	if _, err := s.store.SaveRun(ctx, run); err != nil {
		s.logger.Warn("failed to record run", "rule", a.Rule(), "error", err)
	}

	var sizeBytes int64
	if info, err := os.Stat(outputPath); err == nil {
		sizeBytes = info.Size()
	}

	return nil, EcaExportOutput{
		Path:        outputPath,
		Format:      string(format),
		RunID:       doc.RunID,
		Generations: doc.Generations,
		SizeBytes:   sizeBytes,
		Message:     fmt.Sprintf("Exported rule %d (%d generations) as %s to %s", doc.Rule, doc.Generations, format, pathutil.RedactPath(outputPath)),
	}, nil
}

// evolve builds and runs an automaton, filling unset parameters from the
// configured simulation defaults.
func (s *Server) evolve(rule, size, generations int, boundary string, init *InitialState) (*automaton.Automaton, error) {
	if size == 0 {
		size = s.settings.Simulation.Size
	}
	if generations == 0 {
		generations = s.settings.Simulation.Generations
	}
	b := s.boundary
	if boundary != "" {
		parsed, err := automaton.ParseBoundary(boundary)
		if err != nil {
			return nil, err
		}
		b = parsed
	}

	if err := automaton.ValidateRule(rule); err != nil {
		return nil, err
	}
	row, err := initialRow(init, size)
	if err != nil {
		return nil, err
	}
	if err := checkRunLimits(len(row), generations); err != nil {
		return nil, err
	}

	a, err := automaton.New(rule, len(row), b)
	if err != nil {
		return nil, err
	}
	if err := a.Reset(row); err != nil {
		return nil, err
	}
	if _, err := a.Evolve(generations); err != nil {
		return nil, err
	}
	return a, nil
}

// initialRow builds the first row described by init. An explicit state
// decides the size on its own.
func initialRow(init *InitialState, size int) (automaton.Row, error) {
	if init == nil {
		if size < 1 {
			return nil, fmt.Errorf("size must be positive, got %d: %w", size, automaton.ErrInvalidArgument)
		}
		return automaton.DefaultRow(size), nil
	}
	if init.State != "" {
		return automaton.ParseRow(init.State)
	}

	params := initstate.Params{
		Kind:     initstate.Kind(init.Initial),
		Position: initstate.Center,
		Width:    init.Width,
		Density:  init.Density,
		Seed:     init.Seed,
	}
	if init.Position != nil {
		params.Position = *init.Position
	}
	if init.Pattern != "" {
		pattern, err := automaton.ParseRow(init.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		params.Pattern = pattern.Ints()
	}
	return initstate.Generate(size, params)
}

// checkRunLimits rejects runs too large to serve from a tool call.
func checkRunLimits(size, generations int) error {
	switch {
	case size > constants.MaxToolSize:
		return fmt.Errorf("size %d exceeds the limit of %d: %w", size, constants.MaxToolSize, automaton.ErrInvalidArgument)
	case generations > constants.MaxToolGenerations:
		return fmt.Errorf("generations %d exceeds the limit of %d: %w", generations, constants.MaxToolGenerations, automaton.ErrInvalidArgument)
	case generations >= 0 && size*(generations+1) > constants.MaxToolCells:
		return fmt.Errorf("run of %d cells x %d generations exceeds the limit of %d cells: %w",
			size, generations+1, constants.MaxToolCells, automaton.ErrInvalidArgument)
	}
	return nil
}

// batchRules defaults an empty rule list to every rule and caps its length.
func batchRules(rules []int) ([]int, error) {
	if len(rules) == 0 {
		return classifier.AllRules(), nil
	}
	if len(rules) > constants.RuleCount {
		return nil, fmt.Errorf("at most %d rules per call, got %d: %w", constants.RuleCount, len(rules), automaton.ErrInvalidArgument)
	}
	return rules, nil
}

// summaryOutput flattens a Summary into per-class lines, class 1 first.
func summaryOutput(sum classifier.Summary) EcaSummaryOutput {
	out := EcaSummaryOutput{
		Total:   sum.Total,
		Errors:  sum.Errors,
		Classes: make([]ClassSummary, 0, len(classifier.Classes)+1),
	}
	for _, class := range append(append([]classifier.Class{}, classifier.Classes...), classifier.ClassUnknown) {
		out.Classes = append(out.Classes, ClassSummary{
			Class:      int(class),
			Name:       class.Name(),
			Count:      sum.Counts[class],
			Percentage: sum.Percentages[class],
			Rules:      sum.RulesByClass[class],
		})
	}

	out.Message = fmt.Sprintf("%d rules: I=%d II=%d III=%d IV=%d",
		sum.Total,
		sum.Counts[classifier.ClassHomogeneous], sum.Counts[classifier.ClassPeriodic],
		sum.Counts[classifier.ClassChaotic], sum.Counts[classifier.ClassComplex])
	if sum.Errors > 0 {
		out.Message += fmt.Sprintf(", %d failed", sum.Errors)
	}
	return out
}

// withInitParams adds the audit-relevant fields of init to params.
func withInitParams(params map[string]any, init *InitialState) map[string]any {
	if init == nil {
		return params
	}
	params["initial"] = init.Initial
	params["state"] = init.State
	params["pattern"] = init.Pattern
	if init.Initial == string(initstate.KindRandom) {
		params["density"] = init.Density
		params["seed"] = init.Seed
	}
	return params
}
