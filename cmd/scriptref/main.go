// Command scriptref resolves free-form Bible references to canonical verse
// keys. It also manages verse tables and serves the resolution API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/scriptref/core/bookalias"
	"github.com/FocuswithJustin/scriptref/core/refparse"
	"github.com/FocuswithJustin/scriptref/core/sqlite"
	"github.com/FocuswithJustin/scriptref/core/versification"
	"github.com/FocuswithJustin/scriptref/internal/api"
	"github.com/FocuswithJustin/scriptref/internal/logging"
	"github.com/FocuswithJustin/scriptref/internal/versesource"
)

const version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Table     string `name:"table" help:"Verse key list defining the versification (text, .xz, JSON, SQLite or OSIS XML)" type:"existingfile" env:"SCRIPTREF_TABLE"`
	Aliases   string `name:"aliases" help:"JSON file of extra {\"alias\",\"book\"} entries" type:"existingfile" env:"SCRIPTREF_ALIASES"`
	PreferNT  bool   `name:"prefer-nt" help:"Prefer New Testament books for ambiguous names" env:"SCRIPTREF_PREFER_NT"`
	Following bool   `name:"expand-following" help:"Extend f to the next verse and ff to the end of the chapter" env:"SCRIPTREF_EXPAND_FOLLOWING"`
	StripPart bool   `name:"strip-part" help:"Omit a/b/c verse parts from keys" env:"SCRIPTREF_STRIP_PART"`
	NoFuzzy   bool   `name:"no-fuzzy" help:"Disable typo tolerance for book names" env:"SCRIPTREF_NO_FUZZY"`
	MaxDist   int    `name:"max-distance" help:"Largest edit distance accepted for book names" default:"3" env:"SCRIPTREF_MAX_DISTANCE"`
	LogLevel  string `name:"log-level" help:"Log level" enum:"debug,info,warn,error" default:"warn" env:"SCRIPTREF_LOG_LEVEL"`
	LogFormat string `name:"log-format" help:"Log format" enum:"json,text" default:"text" env:"SCRIPTREF_LOG_FORMAT"`

	out io.Writer
	in  io.Reader
}

// CLI defines the command-line interface for scriptref.
type CLI struct {
	Globals

	Parse      ParseCmd      `cmd:"" help:"Resolve references to verse keys"`
	Candidates CandidatesCmd `cmd:"" help:"Rank every valid reading of one reference"`
	Explain    ExplainCmd    `cmd:"" help:"Show how each piece of a reference was read"`
	Validate   ValidateCmd   `cmd:"" help:"Check that verse keys exist in the table"`
	Books      BooksCmd      `cmd:"" help:"List the books of the table"`
	TableCmd   TableGroup    `cmd:"" name:"table" help:"Verse table operations"`
	Serve      ServeCmd      `cmd:"" help:"Start the REST and WebSocket API server"`
	Version    VersionCmd    `cmd:"" help:"Print version information"`
}

// TableGroup contains verse table operations.
type TableGroup struct {
	Info   TableInfoCmd   `cmd:"" help:"Summarize the verse table"`
	Export TableExportCmd `cmd:"" help:"Write the verse table as a key list or SQLite database"`
}

func (g *Globals) options(expandRanges bool) refparse.Options {
	return refparse.Options{
		PreferNewTestament: g.PreferNT,
		ExpandFollowing:    g.Following,
		ExpandRanges:       expandRanges,
		StripVersePart:     g.StripPart,
		Fuzzy: bookalias.FuzzyOptions{
			Disabled:    g.NoFuzzy,
			MaxDistance: g.MaxDist,
		},
	}
}

// table loads --table, or returns the built-in KJV table.
func (g *Globals) table(ctx context.Context) (*versification.Table, error) {
	if g.Table == "" {
		return versification.KJV(), nil
	}
	return versesource.Load(ctx, g.Table)
}

func (g *Globals) aliasTable() (*bookalias.Table, error) {
	if g.Aliases == "" {
		return bookalias.Default(), nil
	}
	data, err := os.ReadFile(g.Aliases)
	if err != nil {
		return nil, err
	}
	var extra []bookalias.Entry
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(g.Aliases), err)
	}
	return bookalias.New(append(bookalias.Default().Entries(), extra...))
}

func (g *Globals) engine(ctx context.Context, expandRanges bool) (*refparse.Engine, error) {
	t, err := g.table(ctx)
	if err != nil {
		return nil, err
	}
	aliases, err := g.aliasTable()
	if err != nil {
		return nil, err
	}
	return refparse.New(t, aliases, g.options(expandRanges)), nil
}

// inputs returns args, or the non-blank lines of stdin when there are none.
func (g *Globals) inputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var lines []string
	sc := bufio.NewScanner(g.in)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func (g *Globals) printJSON(v any) error {
	enc := json.NewEncoder(g.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ParseCmd resolves references to keys.
type ParseCmd struct {
	Refs   []string `arg:"" optional:"" help:"References to resolve (read from stdin when omitted)"`
	Expand bool     `help:"Enumerate every key of a range"`
	JSON   bool     `name:"json" help:"Print JSON"`
}

func (c *ParseCmd) Run(g *Globals) error {
	ctx := context.Background()
	e, err := g.engine(ctx, c.Expand)
	if err != nil {
		return err
	}
	refs, err := g.inputs(c.Refs)
	if err != nil {
		return err
	}

	type result struct {
		Query string   `json:"query"`
		Keys  []string `json:"keys"`
	}
	results := make([]result, 0, len(refs))
	for _, ref := range refs {
		keys := e.ParseKeys(ref)
		if keys == nil {
			keys = []string{}
		}
		results = append(results, result{Query: ref, Keys: keys})
	}
	if c.JSON {
		return g.printJSON(results)
	}
	for _, r := range results {
		fmt.Fprintln(g.out, strings.Join(r.Keys, " "))
	}
	return nil
}

// CandidatesCmd ranks the readings of one reference.
type CandidatesCmd struct {
	Ref   string `arg:"" help:"Reference to read"`
	Limit int    `help:"Show at most this many candidates (0 = all)" default:"0"`
	JSON  bool   `name:"json" help:"Print JSON"`
}

func (c *CandidatesCmd) Run(g *Globals) error {
	e, err := g.engine(context.Background(), false)
	if err != nil {
		return err
	}
	cands := e.Candidates(c.Ref)
	if c.Limit > 0 && len(cands) > c.Limit {
		cands = cands[:c.Limit]
	}
	if c.JSON {
		if cands == nil {
			cands = []refparse.Candidate{}
		}
		return g.printJSON(cands)
	}
	if len(cands) == 0 {
		return fmt.Errorf("no valid reading of %q", c.Ref)
	}
	tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	for _, cand := range cands {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", cand.Key, cand.Reason, cand.Confidence)
	}
	return tw.Flush()
}

// ExplainCmd shows the per-piece reading of a reference.
type ExplainCmd struct {
	Ref string `arg:"" help:"Reference to explain"`
}

func (c *ExplainCmd) Run(g *Globals) error {
	e, err := g.engine(context.Background(), false)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	for _, o := range e.Explain(c.Ref) {
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\tdropped: %v\n", o.Input, orDash(o.Shape), o.Err)
			continue
		}
		span := e.Key(o.Piece.Start)
		if o.Piece.IsRange() {
			span += " - " + e.Key(o.Piece.End)
		}
		note := o.Piece.Kind.String()
		if o.Ambiguous {
			note += " (ambiguous book)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Input, o.Shape, span, note)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// ValidateCmd checks verse keys against the table.
type ValidateCmd struct {
	Keys []string `arg:"" optional:"" help:"Verse keys such as John.3:16 (read from stdin when omitted)"`
}

// errInvalidKeys makes the command exit non-zero after reporting every key.
var errInvalidKeys = errors.New("some keys are not in the table")

func (c *ValidateCmd) Run(g *Globals) error {
	t, err := g.table(context.Background())
	if err != nil {
		return err
	}
	keys, err := g.inputs(c.Keys)
	if err != nil {
		return err
	}
	bad := 0
	for _, key := range keys {
		b, ch, v, err := versification.ParseKey(strings.TrimRight(key, "abc"))
		switch {
		case err != nil:
			fmt.Fprintf(g.out, "%s\tinvalid: %v\n", key, err)
			bad++
		case !t.IsValid(b, ch, v):
			fmt.Fprintf(g.out, "%s\tinvalid: not in table\n", key)
			bad++
		default:
			fmt.Fprintf(g.out, "%s\tok\n", key)
		}
	}
	if bad > 0 {
		return errInvalidKeys
	}
	return nil
}

// BooksCmd lists the books of the table.
type BooksCmd struct {
	ShowAliases bool `name:"show-aliases" help:"Include every alias of each book"`
}

func (c *BooksCmd) Run(g *Globals) error {
	t, err := g.table(context.Background())
	if err != nil {
		return err
	}
	aliases, err := g.aliasTable()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.out, 0, 4, 2, ' ', 0)
	for _, b := range t.Books() {
		verses := 0
		for _, n := range t.Chapters(b) {
			verses += n
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d", b.Tag(), b.Name(), t.ChapterCount(b), verses)
		if c.ShowAliases {
			fmt.Fprintf(tw, "\t%s", strings.Join(aliases.AliasesFor(b), ", "))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// TableInfoCmd summarizes the table.
type TableInfoCmd struct{}

func (c *TableInfoCmd) Run(g *Globals) error {
	t, err := g.table(context.Background())
	if err != nil {
		return err
	}
	source := g.Table
	if source == "" {
		source = "built-in KJV"
	}
	fmt.Fprintf(g.out, "source:      %s\n", source)
	fmt.Fprintf(g.out, "books:       %d\n", len(t.Books()))
	fmt.Fprintf(g.out, "chapters:    %d\n", t.TotalChapters())
	fmt.Fprintf(g.out, "verses:      %d\n", t.TotalVerses())
	fmt.Fprintf(g.out, "fingerprint: %s\n", t.Fingerprint())
	return nil
}

// TableExportCmd writes the table out.
type TableExportCmd struct {
	Output string `arg:"" help:"Destination file" type:"path"`
	Format string `help:"Output format (auto infers it from the extension)" enum:"auto,text,xz,sqlite,osis" default:"auto"`
	Work   string `help:"osisIDWork written to OSIS exports" default:"KJV"`
	Force  bool   `help:"Overwrite an existing file"`
}

func (c *TableExportCmd) Run(g *Globals) error {
	if _, err := os.Stat(c.Output); err == nil && !c.Force {
		return fmt.Errorf("%s exists (use --force to overwrite)", c.Output)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	ctx := context.Background()
	t, err := g.table(ctx)
	if err != nil {
		return err
	}

	format := c.Format
	if format == "auto" {
		format = exportFormat(c.Output)
	}
	switch format {
	case "sqlite":
		if c.Force {
			if err := os.Remove(c.Output); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
		err = versesource.WriteSQLite(ctx, c.Output, t)
	case "osis":
		err = versesource.WriteOSISFile(c.Output, t, c.Work)
	default:
		err = versesource.WriteKeysFile(c.Output, t, format == "xz")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out, "wrote %d verses to %s (%s)\n", t.TotalVerses(), c.Output, format)
	return nil
}

func exportFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return "xz"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	case ".xml", ".osis":
		return "osis"
	default:
		return "text"
	}
}

// ServeCmd starts the API server.
type ServeCmd struct {
	Port           int           `help:"HTTP server port" default:"8080" env:"SCRIPTREF_PORT"`
	RateLimit      int           `name:"rate-limit" help:"Requests per minute per client (0 = disabled)" default:"600" env:"SCRIPTREF_RATE_LIMIT"`
	RateBurst      int           `name:"rate-burst" help:"Rate limit burst size" default:"60" env:"SCRIPTREF_RATE_BURST"`
	TrustProxy     bool          `name:"trust-proxy" help:"Use X-Forwarded-For for client addresses" env:"SCRIPTREF_TRUST_PROXY"`
	AllowedOrigins []string      `name:"allowed-origin" help:"Allowed CORS and WebSocket origins (repeatable; empty allows all)" env:"SCRIPTREF_ALLOWED_ORIGINS"`
	APIKey         string        `name:"api-key" help:"Require this X-API-Key on every request except / and /health" env:"SCRIPTREF_API_KEY"`
	TLSCert        string        `name:"tls-cert" help:"TLS certificate file" type:"path" env:"SCRIPTREF_TLS_CERT"`
	TLSKey         string        `name:"tls-key" help:"TLS private key file" type:"path" env:"SCRIPTREF_TLS_KEY"`
	CacheSize      int           `name:"cache-size" help:"Cached query results per endpoint" default:"4096" env:"SCRIPTREF_CACHE_SIZE"`
	CacheTTL       time.Duration `name:"cache-ttl" help:"Lifetime of cached results (0 = forever)" default:"10m" env:"SCRIPTREF_CACHE_TTL"`
	SlowRequest    time.Duration `name:"slow-request" help:"Log requests slower than this" default:"250ms" env:"SCRIPTREF_SLOW_REQUEST"`
}

func (c *ServeCmd) config() api.Config {
	cfg := api.DefaultConfig()
	cfg.Port = c.Port
	cfg.RateLimitRequests = c.RateLimit
	cfg.RateLimitBurst = c.RateBurst
	cfg.TrustProxy = c.TrustProxy
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.CacheSize = c.CacheSize
	cfg.CacheTTL = c.CacheTTL
	cfg.SlowRequest = c.SlowRequest
	if c.APIKey != "" {
		cfg.Auth = api.AuthConfig{Enabled: true, APIKey: c.APIKey}
	}
	if c.TLSCert != "" || c.TLSKey != "" {
		cfg.TLS = api.TLSConfig{Enabled: true, CertFile: c.TLSCert, KeyFile: c.TLSKey}
	}
	return cfg
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := g.engine(ctx, false)
	if err != nil {
		return err
	}
	srv, err := api.NewServer(e, c.config())
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

// VersionCmd prints the version.
type VersionCmd struct {
	Verbose bool `short:"v" help:"Include the SQLite driver in use"`
}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.out, "scriptref version %s\n", version)
	if c.Verbose {
		info := sqlite.GetInfo()
		fmt.Fprintf(g.out, "sqlite driver: %s (%s)\n", info.Package, info.DriverType)
	}
	return nil
}

// initLogging applies the log flags.
func (g *Globals) initLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// run parses args and executes the selected command.
func run(args []string, in io.Reader, out io.Writer, options ...kong.Option) error {
	var cli CLI
	cli.out, cli.in = out, in

	options = append([]kong.Option{
		kong.Name("scriptref"),
		kong.Description("Resolve free-form Bible references to canonical verse keys"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Bind(&cli.Globals),
	}, options...)

	parser, err := kong.New(&cli, options...)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	if err := cli.initLogging(); err != nil {
		return err
	}
	return ctx.Run()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "scriptref: reading .env: %v\n", err)
	}
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "scriptref: %v\n", err)
		os.Exit(1)
	}
}
