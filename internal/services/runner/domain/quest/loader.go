package quest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	apperrors "github.com/louisbranch/questrunner/internal/platform/errors"
)

// LoadResult summarizes one catalog load.
type LoadResult struct {
	Loaded  int
	Skipped int
}

// Load decodes every *.json file under fsys into reg. A file that fails to
// decode is skipped and reported in the returned error; the remaining files
// still load.
func Load(reg *Registry, fsys fs.FS, source Source) (LoadResult, error) {
	var (
		result LoadResult
		errs   []error
	)
	if reg == nil {
		return result, errors.New("quest registry is required")
	}
	if fsys == nil {
		return result, nil
	}
	walkErr := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(path.Ext(name), ".json") {
			return nil
		}
		q, err := decodeFile(fsys, name)
		if err != nil {
			result.Skipped++
			errs = append(errs, err)
			return nil
		}
		q.Source = source
		if reg.Add(q) {
			result.Loaded++
		} else {
			result.Skipped++
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walk quest catalog: %w", walkErr))
	}
	if len(errs) > 0 {
		return result, apperrors.Wrap(apperrors.CodeQuestCatalogLoad, "quest catalog load", errors.Join(errs...))
	}
	return result, nil
}

func decodeFile(fsys fs.FS, name string) (*Quest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var q Quest
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if strings.TrimSpace(q.Info.Name) == "" {
		return nil, fmt.Errorf("decode %s: quest name is required", name)
	}
	for _, seq := range q.Root.Sequences {
		if seq.Sequence < 0 || seq.Sequence > TerminalSequence {
			return nil, fmt.Errorf("decode %s: sequence %d out of range", name, seq.Sequence)
		}
	}
	return &q, nil
}
