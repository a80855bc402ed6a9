package container

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript/internal/archive"
	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/pickle"
	"github.com/born-ml/torchscript/internal/script"
)

// Options configures Open.
type Options struct {
	// Parser parses embedded source. Without a parser no package source is
	// available and tracing reports the model as untraced.
	Parser script.Parser

	Logger klog.Logger
}

// Container is one opened archive.
type Container struct {
	identifier string
	entries    []archive.Entry
	prefix     string
	version    string
	producer   string
	name       string
	arenaKey   string

	root   *object.Module
	ctx    *builtins.Context
	interp *script.Interpreter
	source *archiveSource
	log    klog.Logger

	constants       []object.Value
	constantsLoaded bool
}

// Open locates the version entry, then deserializes data.pkl or, when the
// archive has none, model.json.
func Open(identifier string, entries []archive.Entry, opts Options) (*Container, error) {
	c := &Container{
		identifier: identifier,
		entries:    entries,
		ctx:        builtins.NewContext(nil),
		log:        opts.Logger,
	}

	versionEntry, ok := findVersion(entries)
	if !ok {
		return nil, formatErrorf("TorchScript container does not contain version signature.")
	}
	c.prefix = strings.TrimSuffix(versionEntry.Name, "version")
	version, err := decodeVersion(versionEntry.Data)
	if err != nil {
		return nil, err
	}
	c.version = version

	c.source = &archiveSource{entries: entries, prefix: c.prefix, parser: opts.Parser}
	c.interp = script.New(builtins.NewRegistry(), c.ctx, c.source, script.Options{
		Logger:    opts.Logger,
		Constants: c.loadConstants,
	})

	if e, ok := c.entry(c.prefix + "data.pkl"); ok && len(e.Data) > 0 {
		if err := c.loadDataPickle(e.Data); err != nil {
			return nil, err
		}
	} else if e, ok := c.entry(c.prefix + "model.json"); ok {
		if err := c.loadModelJSON(e.Data); err != nil {
			return nil, err
		}
		c.loadArena()
	} else {
		return nil, formatErrorf("TorchScript container does not contain 'data.pkl' or 'model.json'.")
	}

	c.log.V(2).Info("Opened TorchScript container",
		"identifier", identifier,
		"version", c.version,
		"prefix", c.prefix,
		"modules", c.ctx.Arena.Len())
	return c, nil
}

func findVersion(entries []archive.Entry) (archive.Entry, bool) {
	for _, e := range entries {
		if e.Name == "version" || strings.HasSuffix(e.Name, "/version") {
			return e, true
		}
	}
	return archive.Entry{}, false
}

// decodeVersion reads the version entry as a JSON number or string.
func decodeVersion(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", formatErrorf("Invalid TorchScript version signature '%s'.", strings.TrimSpace(string(data)))
	}
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case string:
		return x, nil
	default:
		return "", formatErrorf("Invalid TorchScript version signature '%s'.", strings.TrimSpace(string(data)))
	}
}

func (c *Container) entry(name string) (archive.Entry, bool) {
	return archive.Find(c.entries, name)
}

func (c *Container) loadDataPickle(data []byte) error {
	v, err := pickle.Unpickle(data, archive.Namespace(c.entries, c.prefix+"data/"), c.interp)
	if err != nil {
		return fmt.Errorf("data.pkl: %w", err)
	}
	root, ok := v.(*object.Module)
	if !ok {
		return formatErrorf("TorchScript data.pkl root is '%s' not an object.", v.Kind())
	}
	c.root = root
	return nil
}

// loadConstants deserializes constants.pkl on first reference to CONSTANTS.
// model.json archives expose their tensor table instead.
func (c *Container) loadConstants() ([]object.Value, error) {
	if c.constantsLoaded {
		return c.constants, nil
	}
	c.constantsLoaded = true
	e, ok := c.entry(c.prefix + "constants.pkl")
	if !ok || len(e.Data) == 0 {
		return nil, nil
	}
	v, err := pickle.Unpickle(e.Data, archive.Namespace(c.entries, c.prefix+"constants/"), c.interp)
	if err != nil {
		return nil, fmt.Errorf("constants.pkl: %w", err)
	}
	if l, ok := v.(*object.List); ok {
		c.constants = l.Items
	} else {
		c.constants = []object.Value{v}
	}
	return c.constants, nil
}

// loadArena runs the source referenced by torchscriptArena and attaches its
// functions to the root class as methods. Failures leave the model
// untraceable but loadable.
func (c *Container) loadArena() {
	if c.arenaKey == "" || c.source.parser == nil {
		return
	}
	program, err := c.source.parse(c.arenaKey)
	if err != nil {
		c.log.Error(err, "Failed to parse TorchScript arena", "key", c.arenaKey)
		return
	}
	vars, err := c.interp.Exec(program)
	if err != nil {
		c.log.Error(err, "Failed to execute TorchScript arena", "key", c.arenaKey)
		return
	}
	for _, name := range vars.Keys() {
		v, _ := vars.Get(name)
		if fn, ok := v.(*object.Function); ok {
			c.root.Class.Members.Set(name, fn)
		}
	}
}

// Identifier returns the name the archive was opened under.
func (c *Container) Identifier() string { return c.identifier }

// Version returns the text of the version entry.
func (c *Container) Version() string { return c.version }

// Producer returns the producer recorded in model.json, or "".
func (c *Container) Producer() string { return c.producer }

// Name returns the main module name recorded in model.json, or "".
func (c *Container) Name() string { return c.name }

// Prefix returns the directory prefix shared by the archive entries.
func (c *Container) Prefix() string { return c.prefix }

// Root returns the root module.
func (c *Container) Root() *object.Module { return c.root }

// Arena returns the arena owning every module of this load.
func (c *Container) Arena() *object.Arena { return c.ctx.Arena }

// Trace runs the root module's forward method symbolically.
func (c *Container) Trace() (*script.TraceResult, error) {
	return c.interp.Trace(c.root)
}

// Interpreter returns the interpreter bound to this archive.
func (c *Container) Interpreter() *script.Interpreter { return c.interp }

// extensions accepted by Match.
var extensions = map[string]bool{
	"pt": true, "pt1": true, "pth": true, "pkl": true, "h5": true,
	"t7": true, "dms": true, "model": true, "ckpt": true,
}

// Match reports whether identifier and entries look like a TorchScript
// archive: a known extension, a version entry and a data.pkl or model.json
// next to it.
func Match(identifier string, entries []archive.Entry) bool {
	ext := strings.ToLower(identifier[strings.LastIndex(identifier, ".")+1:])
	if !extensions[ext] && !strings.HasSuffix(identifier, ".pth.tar") {
		return false
	}
	v, ok := findVersion(entries)
	if !ok {
		return false
	}
	prefix := strings.TrimSuffix(v.Name, "version")
	for _, e := range entries {
		if e.Name == prefix+"model.json" || e.Name == prefix+"data.pkl" {
			return true
		}
	}
	return false
}
