package driver

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"shadec/internal/ast"
	"shadec/internal/diag"
	"shadec/internal/observ"
	"shadec/internal/source"
	"shadec/internal/symbols"
	"shadec/internal/trace"
)

// DefaultParentModule is the builtin module a description extends when it
// names no parent.
const DefaultParentModule = "frag"

// CheckOptions настраивает прогон проверки.
type CheckOptions struct {
	MaxDiagnostics int
	// Jobs limits how many module groups are checked at once; <= 0 means
	// GOMAXPROCS.
	Jobs int
	// CheckShadow warns when a module rebinds names of its parent module.
	CheckShadow   bool
	EnableTimings bool
	// Universe defaults to symbols.DefaultUniverse.
	Universe      *symbols.Universe
	DefaultParent string
}

// ModuleResult is the outcome of checking one module.
type ModuleResult struct {
	Name   string
	Parent string
	File   source.FileID
	Span   source.Span
	Scope  symbols.ScopeID
	// Table is the fork the module was checked in. Modules extending each
	// other share one table.
	Table *symbols.Table
	Exprs *ast.Exprs
	// Refs lists the reference expressions built for ref entries, in order.
	Refs []ast.ExprID
}

// CheckResult collects everything a run produced.
type CheckResult struct {
	FileSet *source.FileSet
	// Modules holds the checked modules in description order. Modules that
	// could not be checked are absent.
	Modules []*ModuleResult
	Bag     *diag.Bag
	Timing  *observ.Report
	Labels  map[source.FileID]Labels
}

// Module returns the result for name, or nil.
func (r *CheckResult) Module(name string) *ModuleResult {
	for _, m := range r.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Locate renders span as "path#n (entry)". Positions in description files
// are entry ordinals, not byte offsets.
func (r *CheckResult) Locate(span source.Span) string {
	path := r.FileSet.Path(span.File)
	if span.Start == 0 && span.End == 0 {
		return path
	}
	if label := r.Labels[span.File].Label(span.Start); label != "" {
		return fmt.Sprintf("%s#%d (%s)", path, span.Start, label)
	}
	return fmt.Sprintf("%s#%d", path, span.Start)
}

// Check loads the description files at paths and checks every module they
// declare. Unreadable files become diagnostics; the error is reserved for
// cancellation and broken options.
func Check(ctx context.Context, paths []string, opts CheckOptions) (*CheckResult, error) {
	ctx, root := beginCheck(ctx)
	defer root.End("")
	loadSpan := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "load", root.ID())
	fileSet := source.NewFileSet()
	ids := make([]source.FileID, 0, len(paths))
	var failed []diag.Diagnostic
	for _, path := range paths {
		id, err := fileSet.Load(path)
		if err != nil {
			failed = append(failed, diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: "+err.Error()))
			continue
		}
		ids = append(ids, id)
	}
	loadSpan.WithExtra("files", fmt.Sprint(len(ids))).End("")
	return check(ctx, root, fileSet, ids, opts, failed)
}

// CheckSources checks files already registered in fileSet.
func CheckSources(ctx context.Context, fileSet *source.FileSet, files []source.FileID, opts CheckOptions) (*CheckResult, error) {
	ctx, root := beginCheck(ctx)
	defer root.End("")
	return check(ctx, root, fileSet, files, opts, nil)
}

// beginCheck opens the driver span of one check under the span already
// carried by ctx and makes it current.
func beginCheck(ctx context.Context) (context.Context, *trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	root := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "check", trace.CurrentSpan(ctx).SpanID)
	return trace.WithSpanContext(ctx, trace.SpanContext{SpanID: root.ID()}), root
}

func check(ctx context.Context, root *trace.Span, fileSet *source.FileSet, files []source.FileID, opts CheckOptions, early []diag.Diagnostic) (*CheckResult, error) {
	universe := opts.Universe
	if universe == nil {
		universe = symbols.DefaultUniverse()
	}
	if opts.DefaultParent == "" {
		opts.DefaultParent = DefaultParentModule
	}
	if _, ok := universe.Module(opts.DefaultParent); !ok {
		return nil, fmt.Errorf("default parent %q is not a built-in module (have %s)",
			opts.DefaultParent, strings.Join(universe.Modules(), ", "))
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	tracer := trace.FromContext(ctx)

	result := &CheckResult{
		FileSet: fileSet,
		Labels:  make(map[source.FileID]Labels, len(files)),
	}
	front := diag.NewBag(0)
	for _, d := range early {
		front.Add(d)
	}
	frontReporter := diag.BagReporter{Bag: front}

	// decode
	endDecode := timer.Track("decode")
	decodeSpan := trace.Begin(tracer, trace.ScopePass, "decode", root.ID())
	descs := make([]*Description, 0, len(files))
	for _, id := range files {
		file := fileSet.Get(id)
		if file == nil {
			continue
		}
		desc, err := Decode(file.Path, file.Content)
		if err != nil {
			diag.ReportError(frontReporter, diag.IOLoadFileError, source.Span{File: id}, err.Error()).Emit()
			continue
		}
		result.Labels[id] = number(desc, id)
		descs = append(descs, desc)
	}
	decodeSpan.End("")
	endDecode(fmt.Sprintf("%d files", len(descs)))

	// plan
	endPlan := timer.Track("plan")
	planSpan := trace.Begin(tracer, trace.ScopePass, "plan", root.ID())
	p := newPlanner(universe, opts.DefaultParent, frontReporter)
	for _, desc := range descs {
		for i := range desc.Modules {
			p.add(&desc.Modules[i])
		}
	}
	groups := p.groups()
	planSpan.WithExtra("groups", fmt.Sprint(len(groups))).End("")
	endPlan(fmt.Sprintf("%d modules, %d groups", len(p.units), len(groups)))

	// resolve
	endResolve := timer.Track("resolve")
	resolveSpan := trace.Begin(tracer, trace.ScopePass, "resolve", root.ID())
	checked := make([]*ModuleResult, len(p.units))
	bags := make([]*diag.Bag, len(groups))
	g, gctx := errgroup.WithContext(trace.WithSpanContext(ctx, trace.SpanContext{SpanID: resolveSpan.ID()}))
	g.SetLimit(max(1, min(jobs, len(groups))))
	for i, group := range groups {
		g.Go(func() error {
			gc := groupChecker{
				universe: universe,
				opts:     opts,
				tracer:   tracer,
				timer:    timer,
				bag:      diag.NewBag(0),
			}
			if err := gc.run(gctx, group, checked); err != nil {
				return err
			}
			bags[i] = gc.bag
			return nil
		})
	}
	err := g.Wait()
	resolveSpan.End("")
	endResolve("")
	if err != nil {
		return nil, err
	}

	all := diag.NewBag(0)
	all.Merge(front)
	for _, b := range bags {
		all.Merge(b)
	}
	all.Dedup()
	all.Sort()
	result.Bag = diag.NewBag(opts.MaxDiagnostics)
	for _, d := range all.Items() {
		result.Bag.Add(d)
	}
	for _, m := range checked {
		if m != nil {
			result.Modules = append(result.Modules, m)
		}
	}
	if timer != nil {
		report := timer.Report()
		result.Timing = &report
	}
	root.WithExtra("modules", fmt.Sprint(len(result.Modules))).
		WithExtra("diagnostics", fmt.Sprint(result.Bag.Len()))
	return result, nil
}

// groupChecker checks one family of modules on a private fork of the
// universe.
type groupChecker struct {
	universe *symbols.Universe
	opts     CheckOptions
	tracer   trace.Tracer
	timer    *observ.Timer
	bag      *diag.Bag
}

func (gc *groupChecker) run(ctx context.Context, group []*unit, out []*ModuleResult) error {
	table := gc.universe.Fork(symbols.Hints{Scopes: uint(4 * len(group)), Symbols: 64})
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: gc.bag})
	scopes := make(map[string]symbols.ScopeID, len(group))
	for _, u := range group {
		if err := ctx.Err(); err != nil {
			return err
		}
		parentScope := u.builtinParent
		if !parentScope.IsValid() {
			parentScope = scopes[u.parent]
		}
		out[u.order] = gc.module(ctx, table, reporter, u, parentScope)
		scopes[u.mod.Name] = out[u.order].Scope
	}
	if err := table.Validate(); err != nil {
		diag.ReportError(reporter, diag.SemaError, group[0].mod.span,
			"symbol table invariant broken: "+err.Error()).Emit()
	}
	return nil
}

func (gc *groupChecker) module(ctx context.Context, table *symbols.Table, reporter diag.Reporter, u *unit, parentScope symbols.ScopeID) *ModuleResult {
	m := u.mod
	span := trace.Begin(gc.tracer, trace.ScopeModule, "module:"+m.Name, trace.CurrentSpan(ctx).SpanID)
	end := gc.timer.Track("module:" + m.Name)

	scope := table.NewModule(m.Name, parentScope, m.span)
	exprs := ast.NewExprs(0)
	r := symbols.NewResolver(table, scope, symbols.ResolverOptions{
		Reporter: reporter,
		Tracer:   gc.tracer,
		Exprs:    exprs,
	})
	w := walker{r: r, reporter: reporter}
	w.decls(m.Decls)
	if gc.opts.CheckShadow {
		r.CheckShadow(parentScope, m.span)
	}

	count := table.Count(scope)
	end(fmt.Sprintf("%d bindings", count))
	span.WithExtra("bindings", fmt.Sprint(count)).End("")
	return &ModuleResult{
		Name:   m.Name,
		Parent: u.parent,
		File:   m.file,
		Span:   m.span,
		Scope:  scope,
		Table:  table,
		Exprs:  exprs,
		Refs:   w.refs,
	}
}

// unit is a module scheduled for checking.
type unit struct {
	mod    *Module
	parent string
	// builtinParent is set when the parent is a builtin module.
	builtinParent symbols.ScopeID
	order         int
	depth         int
	root          string
	bad           bool
}

// planner validates module names and parents and groups modules by the
// user module at the top of their parent chain.
type planner struct {
	universe      *symbols.Universe
	defaultParent string
	reporter      diag.Reporter
	units         []*unit
	byName        map[string]*unit
}

func newPlanner(universe *symbols.Universe, defaultParent string, reporter diag.Reporter) *planner {
	return &planner{
		universe:      universe,
		defaultParent: defaultParent,
		reporter:      reporter,
		byName:        make(map[string]*unit),
	}
}

func (p *planner) add(m *Module) {
	if m.Name == "" {
		diag.ReportError(p.reporter, diag.SemaBadDeclaration, m.span, "module without a name").Emit()
		return
	}
	if builtin, ok := p.universe.Module(m.Name); ok {
		diag.ReportError(p.reporter, diag.ProjDuplicateModule, m.span,
			fmt.Sprintf("module '%s' redefines a built-in module", m.Name)).
			WithNote(p.universe.Table().Scope(builtin).Span, "built-in declaration here").
			Emit()
		return
	}
	if first, ok := p.byName[m.Name]; ok {
		diag.ReportError(p.reporter, diag.ProjDuplicateModule, m.span,
			fmt.Sprintf("module '%s' is defined more than once", m.Name)).
			WithNote(first.mod.span, "first definition here").
			Emit()
		return
	}
	parent := m.Parent
	if parent == "" {
		parent = p.defaultParent
	}
	u := &unit{mod: m, parent: parent, order: len(p.units)}
	p.units = append(p.units, u)
	p.byName[m.Name] = u
}

// groups resolves parents, rejects cycles and unknown parents, and returns
// the checkable modules grouped by root with parents ahead of children.
func (p *planner) groups() [][]*unit {
	for _, u := range p.units {
		if scope, ok := p.universe.Module(u.parent); ok {
			u.builtinParent = scope
			continue
		}
		if _, ok := p.byName[u.parent]; !ok {
			diag.ReportError(p.reporter, diag.ProjMissingModule, u.mod.span,
				fmt.Sprintf("module '%s' extends unknown module '%s'", u.mod.Name, u.parent)).Emit()
			u.bad = true
		}
	}
	p.markCycles()

	// depth, root and the badness of ancestors
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*unit]int, len(p.units))
	var settle func(u *unit)
	settle = func(u *unit) {
		if state[u] != unvisited {
			return
		}
		state[u] = visiting
		if u.builtinParent.IsValid() || u.bad {
			u.root = u.mod.Name
		} else {
			parent := p.byName[u.parent]
			settle(parent)
			u.depth = parent.depth + 1
			u.root = parent.root
			if parent.bad {
				u.bad = true
				diag.ReportInfo(p.reporter, diag.ProjInfo, u.mod.span,
					fmt.Sprintf("module '%s' skipped: parent module '%s' has errors", u.mod.Name, u.parent)).Emit()
			}
		}
		state[u] = done
	}

	index := make(map[string]int)
	var out [][]*unit
	for _, u := range p.units {
		settle(u)
		if u.bad {
			continue
		}
		gi, ok := index[u.root]
		if !ok {
			gi = len(out)
			index[u.root] = gi
			out = append(out, nil)
		}
		out[gi] = append(out[gi], u)
	}
	for _, group := range out {
		slices.SortStableFunc(group, func(a, b *unit) int { return a.depth - b.depth })
	}
	return out
}

// markCycles flags every module on a parent cycle and reports each cycle
// once, at its first module in description order.
func (p *planner) markCycles() {
	inCycle := make(map[*unit]bool)
	for _, start := range p.units {
		if start.bad || inCycle[start] {
			continue
		}
		seen := make(map[*unit]int)
		var path []*unit
		cur := start
		for cur != nil && !cur.builtinParent.IsValid() && !cur.bad && !inCycle[cur] {
			if at, ok := seen[cur]; ok {
				cycle := path[at:]
				first := slices.MinFunc(cycle, func(a, b *unit) int { return a.order - b.order })
				names := make([]string, 0, len(cycle)+1)
				for _, c := range cycle {
					names = append(names, c.mod.Name)
					inCycle[c] = true
					c.bad = true
				}
				names = append(names, cycle[0].mod.Name)
				b := diag.ReportError(p.reporter, diag.ProjModuleCycle, first.mod.span,
					"module parent cycle: "+strings.Join(names, " -> "))
				for _, c := range cycle {
					if c != first {
						b.WithNote(c.mod.span, fmt.Sprintf("module '%s' is part of the cycle", c.mod.Name))
					}
				}
				b.Emit()
				break
			}
			seen[cur] = len(path)
			path = append(path, cur)
			cur = p.byName[cur.parent]
		}
	}
}
