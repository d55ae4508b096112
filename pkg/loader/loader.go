// Package loader implements the document loader (spec §4.2): resolving a
// url relative to its parent, decoding and normalizing the document, and
// dispatching on its `class` to build the matching Runnable (process,
// exprtool or workflow), recursing into a Workflow's own step impls.
package loader

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/decode"
	"github.com/cwl-core/cwlrun/pkg/docschema"
	"github.com/cwl-core/cwlrun/pkg/exprtool"
	"github.com/cwl-core/cwlrun/pkg/logging"
	"github.com/cwl-core/cwlrun/pkg/normalize"
	"github.com/cwl-core/cwlrun/pkg/process"
	"github.com/cwl-core/cwlrun/pkg/runnable"
	"github.com/cwl-core/cwlrun/pkg/sandbox"
	"github.com/cwl-core/cwlrun/pkg/telemetry"
	"github.com/cwl-core/cwlrun/pkg/wfError"
	"github.com/cwl-core/cwlrun/pkg/workflow"
)

const (
	classCommandLineTool = "CommandLineTool"
	classExpressionTool  = "ExpressionTool"
	classWorkflow        = "Workflow"
)

// Loader resolves, decodes and dispatches CWL-like documents into
// Runnables. One Loader instance is reused across an entire load,
// including recursive Workflow step loads, so the same config/sandbox/
// telemetry collaborators flow through every nested document.
type Loader struct {
	cfg      *config.Config
	decoder  decode.Decoder
	eval     sandbox.Evaluator
	log      *logging.Logger
	tel      *telemetry.Provider
	progress workflow.ProgressFunc
}

// Option configures optional Loader collaborators.
type Option func(*Loader)

// WithDecoder overrides the default YAML decoder.
func WithDecoder(d decode.Decoder) Option { return func(l *Loader) { l.decoder = d } }

// WithEvaluator overrides the default expr-lang sandbox.
func WithEvaluator(e sandbox.Evaluator) Option { return func(l *Loader) { l.eval = e } }

// WithLogger attaches a logger used for load-time tracing.
func WithLogger(lg *logging.Logger) Option { return func(l *Loader) { l.log = lg } }

// WithProgress attaches a callback the top-level Workflow variant reports
// per-node completion through; nested (step) workflows are not observed,
// only the document named by the outermost Load call.
func WithProgress(p workflow.ProgressFunc) Option { return func(l *Loader) { l.progress = p } }

// WithTelemetry attaches a telemetry provider propagated into every
// loaded process and workflow, including recursively loaded steps.
// Expression tools are built without it and record no metrics.
func WithTelemetry(p *telemetry.Provider) Option { return func(l *Loader) { l.tel = p } }

// New builds a Loader. cfg must not be nil; callers typically pass
// config.Default() or one of its profile variants.
func New(cfg *config.Config, opts ...Option) *Loader {
	l := &Loader{
		cfg:     cfg,
		decoder: decode.Default(),
		eval:    sandbox.NewExprEvaluator(cfg.SandboxTimeout),
		log:     logging.New(logging.DefaultConfig()),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves url, decodes and normalizes the document it names, and
// dispatches on its `class` into the matching Runnable.
func (l *Loader) Load(docURL string) (runnable.Runnable, error) {
	return l.load(docURL, "")
}

// load implements the recursive `load(url, parent)` collaborator: url is
// resolved relative to parent before decoding.
func (l *Loader) load(docURL, parentURL string) (runnable.Runnable, error) {
	resolved := resolve(docURL, parentURL)

	if err := l.checkScheme(resolved); err != nil {
		return nil, err
	}

	raw, err := l.decoder.Decode(resolved)
	if err != nil {
		return nil, wfError.Wrap(wfError.KindMalformedDocument, resolved, "", "decoding document", err)
	}

	doc, ok := normalize.Normalize(raw).(map[string]interface{})
	if !ok {
		return nil, wfError.New(wfError.KindMalformedDocument, resolved, "", "document root is not a mapping")
	}

	if err := l.checkVersion(doc, resolved); err != nil {
		return nil, err
	}

	if err := docschema.Validate(doc); err != nil {
		if l.cfg.StrictSchemaValidation {
			return nil, wfError.Wrap(wfError.KindMalformedDocument, resolved, "", "schema validation failed", err)
		}
		l.log.Warn().Err(err).Str("url", resolved).Msg("schema validation failed")
	}

	class, _ := doc["class"].(string)
	l.log.Debug().Str("url", resolved).Str("class", class).Msg("loading document")

	switch class {
	case classCommandLineTool:
		var procOpts []process.Option
		if l.tel != nil {
			procOpts = append(procOpts, process.WithTelemetry(l.tel))
		}
		return process.New(doc, resolved, l.cfg, procOpts...)
	case classExpressionTool:
		return exprtool.New(doc, resolved, l.eval, l.cfg)
	case classWorkflow:
		stepLoader := func(implURL, parent string) (runnable.Runnable, error) {
			return l.load(implURL, parent)
		}
		var opts []workflow.Option
		if parentURL == "" && l.progress != nil {
			opts = append(opts, workflow.WithProgress(l.progress))
		}
		if l.tel != nil {
			opts = append(opts, workflow.WithTelemetry(l.tel))
		}
		return workflow.New(doc, resolved, stepLoader, l.cfg, opts...)
	case "":
		return nil, wfError.New(wfError.KindMalformedDocument, resolved, "", "document is missing required field \"class\"")
	default:
		return nil, wfError.New(wfError.KindUnknownClass, resolved, "", fmt.Sprintf("unrecognized class %q", class))
	}
}

// checkScheme rejects a resolved url whose scheme is not in cfg's
// allow-list. A url with no scheme at all (a bare filesystem path, the
// common case in tests and local runs) is treated as "file".
func (l *Loader) checkScheme(resolved string) error {
	allowed := l.cfg.AllowedSchemes
	if len(allowed) == 0 {
		allowed = []string{"file"}
	}

	scheme := "file"
	if parsed, err := url.Parse(resolved); err == nil && parsed.Scheme != "" {
		scheme = parsed.Scheme
	}

	for _, s := range allowed {
		if strings.EqualFold(s, scheme) {
			return nil
		}
	}
	return wfError.New(wfError.KindMalformedDocument, resolved, "",
		fmt.Sprintf("url scheme %q is not in the allowed list %v", scheme, allowed))
}

// checkVersion validates an optional cwlVersion field is well-formed
// semver; documents that omit it entirely are accepted (the spec treats
// version declaration as optional metadata, not a required gate).
func (l *Loader) checkVersion(doc map[string]interface{}, resolved string) error {
	v, ok := doc["cwlVersion"].(string)
	if !ok || v == "" {
		return nil
	}
	canonical := v
	if !strings.HasPrefix(canonical, "v") {
		canonical = "v" + canonical
	}
	if !semver.IsValid(canonical) {
		return wfError.New(wfError.KindMalformedDocument, resolved, "", fmt.Sprintf("cwlVersion %q is not a valid semantic version", v))
	}
	return nil
}

// resolve joins a child url against its parent's directory the way a
// relative import resolves against the document that references it.
// Absolute urls (carrying their own scheme) are returned unchanged.
func resolve(docURL, parentURL string) string {
	if parentURL == "" || docURL == "" {
		return docURL
	}
	parsed, err := url.Parse(docURL)
	if err == nil && parsed.IsAbs() {
		return docURL
	}
	parent, err := url.Parse(parentURL)
	if err != nil {
		return docURL
	}
	ref, err := url.Parse(docURL)
	if err != nil {
		return docURL
	}
	return parent.ResolveReference(ref).String()
}
