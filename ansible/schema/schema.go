package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/cantara/bragi/sbragi"
)

//go:embed module.cue
var source string

var (
	mu        sync.Mutex
	ctx       *cue.Context
	module    cue.Value
	catalogue cue.Value
)

func compile() error {
	if ctx != nil {
		return nil
	}
	c := cuecontext.New()
	v := c.CompileString(source, cue.Filename("module.cue"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("cannot compile module schema: %v", errors.Details(err, nil))
	}
	ctx = c
	module = v.LookupPath(cue.ParsePath("#Module"))
	catalogue = v.LookupPath(cue.ParsePath("#Catalogue"))
	return nil
}

// Check validates the shape of a yaml module definition. A document with a
// top level "modules" list is checked as a catalogue of modules.
func Check(filename string, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	if err := compile(); err != nil {
		return err
	}
	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return fmt.Errorf("cannot read %q: %v", filename, errors.Details(err, nil))
	}
	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return fmt.Errorf("cannot build %q: %v", filename, errors.Details(err, nil))
	}
	def := module
	isCatalogue := val.LookupPath(cue.ParsePath("modules")).Exists()
	if isCatalogue {
		def = catalogue
	}
	sbragi.Trace("checking definition", "file", filename, "catalogue", isCatalogue)
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", errors.Details(err, nil))
	}
	return nil
}
