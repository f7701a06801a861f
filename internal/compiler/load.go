package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/jokebox/internal/joke"
)

// LoadSeedFile loads a seed catalog from a .cue file, or from a directory
// whose .cue files form a single CUE instance.
func LoadSeedFile(path string) ([]joke.Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}

	ctx := cuecontext.New()

	var v cue.Value
	if info.IsDir() {
		v, err = buildInstance(ctx, path)
		if err != nil {
			return nil, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load seed: %w", err)
		}
		v = ctx.CompileBytes(data, cue.Filename(path))
	}

	records, err := CompileSeed(v)
	if err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return records, nil
}

func buildInstance(ctx *cue.Context, dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("load seed %s: no CUE instances loaded", dir)
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("load seed %s: %w", dir, inst.Err)
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("load seed %s: %w", dir, formatCUEError(err))
	}
	return v, nil
}
