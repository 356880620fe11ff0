package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otlayout"
	"github.com/npillmayer/shaperfont/core/font/opentype/otquery"
	"github.com/npillmayer/shaperfont/core/font/opentype/shaperfont"
	"github.com/pterm/pterm"
)

// tracer traces with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}

// axisFlags collects repeated -axis flags of the form tag:min:default:max.
type axisFlags []shaperfont.AxisInfo

func (a *axisFlags) String() string {
	return fmt.Sprintf("%v", *a)
}

func (a *axisFlags) Set(s string) error {
	axis, err := parseAxis(s)
	if err != nil {
		return err
	}
	*a = append(*a, axis)
	return nil
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":        "go",
		"trace.shaperfont.fonts": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	var axes axisFlags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	projectFile := flag.String("project", "", "HCL project file")
	feaFile := flag.String("fea", "", "Feature file to compile")
	glyphs := flag.String("glyphs", "", "Comma separated glyph order")
	upem := flag.Uint("upem", shaperfont.DefaultUnitsPerEm, "Units per em")
	outFile := flag.String("o", "", "Write the font to a file and exit")
	flag.Var(&axes, "axis", "Design axis tag:min:default:max, may be repeated")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError)
	//
	intp := &Intp{}
	var err error
	if *projectFile != "" {
		intp.project, err = shaperfont.LoadProject(*projectFile)
	} else {
		intp.project, err = projectFromFlags(*feaFile, *glyphs, *upem, axes)
	}
	if err != nil {
		core.UserError(err)
		os.Exit(2)
	}
	if *outFile != "" {
		intp.compile()
		if err := intp.save(*outFile); err != nil {
			core.UserError(err)
			os.Exit(4)
		}
		return
	}
	pterm.Info.Println("Welcome to the shaper font CLI") // colored welcome message
	setTraceLevel(*tlevel)
	tracer().Infof("Trace level is %s", *tlevel)
	//
	// set up REPL
	intp.repl, err = readline.New("sf > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp.compile()
	pterm.Info.Println("Quit with <ctrl>D") // inform user how to stop the CLI
	intp.REPL()                             // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func setTraceLevel(s string) {
	switch strings.ToLower(s) {
	case "debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().SetTraceLevel(tracing.LevelInfo)
	}
}

func projectFromFlags(feaFile, glyphs string, upem uint, axes []shaperfont.AxisInfo) (*shaperfont.Project, error) {
	if feaFile == "" {
		return nil, core.Error(core.EMISSING, "either -project or -fea is required")
	}
	if upem == 0 || upem > 0xffff {
		return nil, core.Error(core.EINVALID, "units per em out of range: %d", upem)
	}
	src, err := os.ReadFile(feaFile)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read feature file %s", feaFile)
	}
	p := &shaperfont.Project{
		UnitsPerEm:    uint16(upem),
		FeatureFile:   feaFile,
		FeatureSource: string(src),
		Axes:          axes,
	}
	if glyphs != "" {
		p.GlyphOrder = strings.Split(glyphs, ",")
	}
	return p, nil
}

// parseAxis reads an axis of the form tag:min:default:max.
func parseAxis(s string) (shaperfont.AxisInfo, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return shaperfont.AxisInfo{}, core.Error(core.EINVALID, "axis %q: expected tag:min:default:max", s)
	}
	var v [3]float64
	for i, p := range parts[1:] {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return shaperfont.AxisInfo{}, core.WrapError(err, core.EINVALID, "axis %q: not a number: %s", s, p)
		}
		v[i] = f
	}
	return shaperfont.AxisInfo{Tag: parts[0], Min: v[0], Default: v[1], Max: v[2]}, nil
}

// Intp is our interpreter object
type Intp struct {
	project *shaperfont.Project
	result  *shaperfont.CompilationResult
	font    *ot.Font
	repl    *readline.Instance
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			tracer().Errorf(err.Error())
			continue
		}
		quit, err := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

// Op is a single step of a command, e.g. "lookups:GPOS".
type Op struct {
	code int
	arg  string
}

// Command is a sequence of ops, separated by blanks.
type Command struct {
	ops []Op
}

const (
	QUIT int = iota
	HELP
	COMPILE
	TABLES
	AXES
	NAMES
	MARKERS
	MESSAGES
	SCRIPTS
	FEATURES
	LOOKUPS
	SAVE
	INFO
)

var commandNames = map[string]int{
	"quit": QUIT, "help": HELP, "compile": COMPILE, "tables": TABLES, "axes": AXES,
	"names": NAMES, "markers": MARKERS, "messages": MESSAGES, "scripts": SCRIPTS,
	"features": FEATURES, "lookups": LOOKUPS, "save": SAVE, "info": INFO,
}

func parseCommand(line string) (*Command, error) {
	command := &Command{}
	for _, step := range strings.Fields(line) {
		c := strings.SplitN(step, ":", 2) // e.g. "lookups:GPOS" or "save:out.otf" or "help"
		tracer().Debugf("parse command = %v", c)
		code, ok := commandNames[strings.ToLower(c[0])]
		if !ok {
			return nil, fmt.Errorf("unknown command: %s", c[0])
		}
		command.ops = append(command.ops, Op{code: code, arg: getOptArg(c, 1)})
	}
	return command, nil
}

func (intp *Intp) execute(cmd *Command) (bool, error) {
	for _, c := range cmd.ops {
		switch c.code {
		case QUIT:
			return true, nil
		case HELP:
			help(c.arg)
		case COMPILE:
			if intp.project.Path != "" && c.arg == "" {
				p, err := shaperfont.LoadProject(intp.project.Path)
				if err != nil {
					return false, err
				}
				intp.project = p
			}
			intp.compile()
		case MESSAGES:
			intp.showMessages()
		case MARKERS:
			if err := intp.checkResult(); err != nil {
				return false, err
			}
			data := pterm.TableData{{"Feature", "Lookup"}}
			for _, m := range intp.result.InsertMarkers {
				data = append(data, []string{m.Tag, strconv.Itoa(m.LookupID)})
			}
			renderTable(data)
		case TABLES:
			if err := intp.checkResult(); err != nil {
				return false, err
			}
			data := pterm.TableData{{"Tag", "Offset", "Size"}}
			for _, tag := range intp.font.TableTags() {
				off, size := intp.font.Table(tag).Extent()
				data = append(data, []string{tag.String(), strconv.Itoa(int(off)), strconv.Itoa(int(size))})
			}
			renderTable(data)
		case AXES:
			if err := intp.checkResult(); err != nil {
				return false, err
			}
			t := intp.font.Table(ot.T("fvar"))
			if t == nil {
				pterm.Println("not a variable font")
				break
			}
			data := pterm.TableData{{"Axis", "Min", "Default", "Max", "Name ID"}}
			for _, a := range t.Self().AsFVar().Axes {
				data = append(data, []string{a.Tag.String(), a.Min.String(), a.Default.String(),
					a.Max.String(), strconv.Itoa(int(a.NameID))})
			}
			renderTable(data)
		case NAMES:
			if err := intp.checkResult(); err != nil {
				return false, err
			}
			t := intp.font.Table(ot.T("name"))
			if t == nil {
				pterm.Println("font has no names")
				break
			}
			names := t.Self().AsName()
			data := pterm.TableData{{"Name ID", "Value"}}
			for _, id := range names.NameIDs() {
				v, _ := names.Lookup(id)
				data = append(data, []string{strconv.Itoa(int(id)), v})
			}
			renderTable(data)
		case SCRIPTS, FEATURES, LOOKUPS:
			lt, err := intp.layoutTable(c.arg)
			if err != nil {
				return false, err
			}
			showLayout(c.code, lt)
		case SAVE:
			if err := intp.save(c.arg); err != nil {
				return false, err
			}
		case INFO:
			if err := intp.checkResult(); err != nil {
				return false, err
			}
			showInfo(intp.font)
		}
	}
	return false, nil
}

func (intp *Intp) compile() {
	intp.result = intp.project.Build()
	intp.font = nil
	if intp.result.Succeeded() {
		var err error
		if intp.font, err = ot.Parse(intp.result.FontData); err != nil {
			pterm.Error.Printfln("cannot decode compiled font: %v", err)
		} else {
			pterm.Success.Printfln("compiled %s: %v", intp.project.FeatureFile, intp.result)
		}
	} else {
		pterm.Error.Printfln("compilation of %s failed", intp.project.FeatureFile)
	}
	intp.showMessages()
}

func (intp *Intp) showMessages() {
	if intp.result == nil || len(intp.result.Messages) == 0 {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(intp.result.Report, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "error"):
			pterm.Error.Println(line)
		case strings.HasPrefix(line, "warning"):
			pterm.Warning.Println(line)
		default:
			pterm.Println(line)
		}
	}
}

func (intp *Intp) checkResult() error {
	if intp.font == nil {
		return errors.New("no font compiled")
	}
	return nil
}

func (intp *Intp) layoutTable(tag string) (*ot.LayoutTable, error) {
	if err := intp.checkResult(); err != nil {
		return nil, err
	}
	if tag == "" {
		tag = "GSUB"
	}
	t := intp.font.Table(ot.T(strings.ToUpper(tag)))
	if t == nil {
		return nil, fmt.Errorf("font has no table %s", tag)
	}
	lt := t.Self().AsLayout()
	if lt == nil {
		return nil, fmt.Errorf("table %s is not a layout table", tag)
	}
	return lt, nil
}

func (intp *Intp) save(path string) error {
	if path == "" {
		return errors.New("save needs a file name, e.g. save:font.otf")
	}
	if !intp.result.Succeeded() {
		return core.Error(core.EINVALID, "no font to save: compilation failed")
	}
	if err := os.WriteFile(path, intp.result.FontData, 0o644); err != nil {
		return core.WrapError(err, core.EINVALID, "cannot write %s", path)
	}
	pterm.Info.Printfln("wrote %d bytes to %s", len(intp.result.FontData), path)
	return nil
}

func showLayout(code int, lt *ot.LayoutTable) {
	switch code {
	case SCRIPTS:
		data := pterm.TableData{{"Script", "Name", "Language systems"}}
		for script, langs := range lt.Scripts {
			names := make([]string, len(langs))
			for i, l := range langs {
				names[i] = otlayout.LanguageName(l)
			}
			data = append(data, []string{script.String(), otlayout.ScriptName(script),
				strings.Join(names, ", ")})
		}
		renderTable(data)
	case FEATURES:
		data := pterm.TableData{{"#", "Feature", "Lookups", "Params"}}
		for i, f := range lt.Features {
			data = append(data, []string{strconv.Itoa(i), f.Tag.String(),
				fmt.Sprintf("%v", f.LookupIndices), strconv.FormatBool(f.HasParams)})
		}
		renderTable(data)
	case LOOKUPS:
		data := pterm.TableData{{"#", "Type", "Flag", "Subtables"}}
		for i, l := range lt.Lookups {
			data = append(data, []string{strconv.Itoa(i), strconv.Itoa(int(l.Type)),
				fmt.Sprintf("0x%04x", l.Flag), strconv.Itoa(l.SubTableCount)})
		}
		renderTable(data)
	}
}

func showInfo(otf *ot.Font) {
	pterm.Printfln("%s font, %d units per em, layout tables %v", otquery.FontType(otf),
		otquery.UnitsPerEm(otf), otquery.LayoutTables(otf))
	for _, script := range otquery.Scripts(otf) {
		pterm.Printfln("script %s (%s)", script, otlayout.ScriptName(script))
	}
	data := pterm.TableData{{"Feature", "Table", "Lookups", "Name"}}
	for _, f := range otquery.Features(otf) {
		data = append(data, []string{f.Tag.String(), f.Table.String(), fmt.Sprintf("%v", f.Lookups), f.UIName})
	}
	renderTable(data)
	if axes := otquery.VariationAxes(otf); len(axes) > 0 {
		for _, a := range axes {
			pterm.Printfln("axis %s (%s): %g … %g … %g", a.Tag, a.Name, a.Min, a.Default, a.Max)
		}
		pterm.Printfln("variable metrics vary over %d regions", otquery.VariationRegions(otf))
	}
}

func renderTable(data pterm.TableData) {
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		tracer().Errorf(err.Error())
	}
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	switch strings.ToLower(topic) {
	case "markers", "marker":
		pterm.Info.Println("Insert markers")
		pterm.Println(`
	A comment '# Automatic Code' inside a feature block marks the position where
	generated code may be inserted. For each marked feature the compiler reports
	the index of the lookup which inserted code would get:
	+---------+--------------+
	| Feature | Lookup index |
	+---------+--------------+
	`)
	case "layout", "scripts", "features", "lookups":
		pterm.Info.Println("Layout tables")
		pterm.Println(`
	scripts[:TABLE]   list scripts and their language systems
	features[:TABLE]  list the feature list, with lookup indices
	lookups[:TABLE]   list the lookup list, with type and flag
	TABLE is GSUB (default) or GPOS.
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	compile           re-compile (re-reading a project file)
	info              summary of the compiled font
	messages          show errors and warnings
	tables            list the tables of the compiled font
	axes              list the axes of a variable font
	names             list name records
	markers           list insert markers (see help:markers)
	scripts, features, lookups   inspect GSUB and GPOS (see help:layout)
	save:FILE         write the font to FILE
	quit              leave the CLI
	`)
	}
}

func getOptArg(s []string, inx int) string {
	if len(s) > inx {
		return s[inx]
	}
	return ""
}
