package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/oakmere/invoiceparse/internal/common"
)

// rulesSchema validates the operator-edited rules document before it is
// trusted. Unknown keys are rejected so typos fail loudly.
const rulesSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rules"],
  "additionalProperties": false,
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "text_pattern", "priority", "is_active"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "format": "uuid"},
          "text_pattern": {"type": "string", "minLength": 1},
          "supplier_id": {"type": ["string", "null"]},
          "default_category_id": {"type": ["string", "null"]},
          "default_site_id": {"type": ["string", "null"]},
          "site_name_replacements": {
            "type": "array",
            "items": {"type": "string"}
          },
          "priority": {"type": "integer"},
          "is_active": {"type": "boolean"}
        }
      }
    }
  }
}`

var compiledRulesSchema = jsonschema.MustCompileString("rules.schema.json", rulesSchema)

type rulesDocument struct {
	Rules []Rule `json:"rules"`
}

// FileStore reads rules from a JSON document. The file is re-read on every
// call so operator edits take effect without a restart.
type FileStore struct {
	path   string
	logger *slog.Logger
}

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) ListActiveRules(_ context.Context) ([]Rule, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrRuleStore, s.path, err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrRuleStore, s.path, err)
	}
	if err := compiledRulesSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s failed schema validation: %v", common.ErrRuleStore, s.path, err)
	}

	var parsed rulesDocument
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", common.ErrRuleStore, s.path, err)
	}

	active := make([]Rule, 0, len(parsed.Rules))
	for _, r := range parsed.Rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	s.logger.Debug("rules.file.loaded", "path", s.path, "total", len(parsed.Rules), "active", len(active))
	return active, nil
}
