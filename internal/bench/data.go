package bench

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// LoadDataset reads a JSON file and extracts element values from the
// results matched by a gjson path (for example "events.#.size" for
// every size field under events). Matched values are coerced to
// integers with gjson's Int semantics; a scalar match yields a
// single-element stream.
func LoadDataset(file, path string) ([]int64, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", file, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("dataset %s is not valid JSON", file)
	}

	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil, fmt.Errorf("path %q matches nothing in %s", path, file)
	}

	var values []int64
	result.ForEach(func(_, value gjson.Result) bool {
		values = append(values, value.Int())
		return true
	})
	if len(values) == 0 {
		return nil, fmt.Errorf("path %q matches no values in %s", path, file)
	}
	return values, nil
}
