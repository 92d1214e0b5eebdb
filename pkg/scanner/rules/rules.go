package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/CompassSecurity/logleek/pkg/scanerr"
	"github.com/CompassSecurity/logleek/pkg/scanner/types"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultPatternFile is looked up in the working directory when no file is configured.
const DefaultPatternFile = "patterns.json"

// DefaultConfidence is assigned to rules that do not declare one.
const DefaultConfidence = "custom"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and compiles the pattern file at path.
// Every invalid entry is reported in a single ConfigError.
func Load(path string) (*types.PatternSet, error) {
	if path == "" {
		path = DefaultPatternFile
	}

	log.Debug().Str("file", path).Msg("Loading patterns from filesystem")
	// #nosec G304 - user-provided pattern file path
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, scanerr.New(scanerr.ConfigError, "load", path, err).WithReason("missing")
		}
		return nil, scanerr.New(scanerr.ConfigError, "load", path, err)
	}

	return Parse(data, path)
}

// Parse compiles a pattern document in JSON or YAML. origin names the document in errors.
func Parse(data []byte, origin string) (*types.PatternSet, error) {
	file := types.PatternFile{}
	if err := decode(data, &file); err != nil {
		return nil, scanerr.New(scanerr.ConfigError, "parse", origin, err).WithReason("malformed")
	}

	if len(file.Patterns) == 0 {
		return nil, scanerr.Config(origin, "no patterns defined").WithReason("empty")
	}

	var result *multierror.Error
	seen := map[string]int{}
	set := &types.PatternSet{Patterns: make([]types.Pattern, 0, len(file.Patterns))}

	for i, record := range file.Patterns {
		if err := validateRecord(record); err != nil {
			result = multierror.Append(result, fmt.Errorf("entry %d (%q): %w", i, record.Name, err))
			continue
		}

		if first, ok := seen[record.Name]; ok {
			result = multierror.Append(result, fmt.Errorf("entry %d (%q): duplicate name, first declared at entry %d", i, record.Name, first))
			continue
		}
		seen[record.Name] = i

		confidence := record.Confidence
		if confidence == "" {
			confidence = DefaultConfidence
		}

		pattern, err := types.NewPattern(record.Name, record.Description, record.Regex, confidence)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("entry %d (%q): invalid regexx: %w", i, record.Name, err))
			continue
		}
		set.Patterns = append(set.Patterns, pattern)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, scanerr.New(scanerr.ConfigError, "compile", origin, err).WithReason("invalid entries")
	}

	log.Debug().Int("count", set.Len()).Str("file", origin).Msg("Loaded patterns")
	return set, nil
}

func decode(data []byte, file *types.PatternFile) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return json.Unmarshal(trimmed, file)
	}
	return yaml.Unmarshal(trimmed, file)
}

func validateRecord(record types.PatternRecord) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	missing := []string{}
	for _, fe := range verrs {
		missing = append(missing, fieldName(fe.Field()))
	}
	return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
}

func fieldName(field string) string {
	switch field {
	case "Regex":
		return "regexx"
	default:
		return strings.ToLower(field)
	}
}

// FilterByConfidence keeps only patterns whose confidence is in filter.
// An empty filter keeps everything.
func FilterByConfidence(set *types.PatternSet, filter []string) *types.PatternSet {
	if len(filter) == 0 || set == nil {
		return set
	}

	log.Debug().Str("filter", strings.Join(filter, ",")).Msg("Applying confidence filter")
	filtered := &types.PatternSet{}
	for _, p := range set.Patterns {
		if slices.Contains(filter, p.Confidence) {
			filtered.Patterns = append(filtered.Patterns, p)
		}
	}

	if filtered.Len() == 0 {
		log.Warn().Int("count", 0).Msg("Your confidence filter removed all rules, are you sure?")
	}
	return filtered
}
