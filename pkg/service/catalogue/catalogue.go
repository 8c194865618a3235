package catalogue

import (
	"bytes"
	"os"
	"sort"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/bnra/pkg/domain/model"
	"github.com/secmon-lab/bnra/pkg/domain/types"
)

// ErrInvalidSnapshotFile is returned when a snapshot file cannot be turned into a catalogue
var ErrInvalidSnapshotFile = goerr.New("invalid snapshot file")

// File is the TOML representation of a catalogue snapshot. The order of the
// entries is kept and becomes the stable order of the aggregation.
type File struct {
	RiskFiles []RiskFileEntry `toml:"risk"`
	Cascades  []CascadeEntry  `toml:"cascade"`
}

type RiskFileEntry struct {
	ID       string `toml:"id"`
	HazardID string `toml:"hazard_id,omitempty"`
	Title    string `toml:"title"`
	Type     string `toml:"type"`
	Category string `toml:"category,omitempty"`
	// Quantitative values may be written as TOML numbers or as the raw text
	// entered by experts
	Quantitative map[string]any    `toml:"quantitative,omitempty"`
	Qualitative  map[string]string `toml:"qualitative,omitempty"`
}

type CascadeEntry struct {
	ID       string          `toml:"id"`
	Cause    string          `toml:"cause"`
	Effect   string          `toml:"effect"`
	Kind     string          `toml:"kind,omitempty"`
	Analyses []AnalysisEntry `toml:"analysis"`
}

type AnalysisEntry struct {
	Expert string         `toml:"expert,omitempty"`
	Matrix map[string]any `toml:"matrix"`
}

// Load reads a snapshot file
func Load(path string) (*model.Snapshot, error) {
	// #nosec G304 - path is provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read snapshot file", goerr.V("path", path))
	}

	snapshot, err := Decode(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load snapshot file", goerr.V("path", path))
	}
	return snapshot, nil
}

// Decode parses a TOML snapshot. Unknown quantitative keys are rejected since
// a misspelled field would otherwise silently read as 0.
func Decode(data []byte) (*model.Snapshot, error) {
	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshotFile, err.Error())
	}

	snapshot := &model.Snapshot{
		RiskFiles: make([]*model.RiskFile, 0, len(file.RiskFiles)),
		Cascades:  make([]*model.Cascade, 0, len(file.Cascades)),
	}

	for i, entry := range file.RiskFiles {
		f, err := entry.toModel()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid risk entry", goerr.V("index", i), goerr.V("id", entry.ID))
		}
		snapshot.RiskFiles = append(snapshot.RiskFiles, f)
	}

	for i, entry := range file.Cascades {
		c, err := entry.toModel()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid cascade entry", goerr.V("index", i), goerr.V("id", entry.ID))
		}
		snapshot.Cascades = append(snapshot.Cascades, c)
	}

	return snapshot, nil
}

// Encode writes a snapshot in the format read by Decode. Raw values are
// written as text so nothing entered by experts is lost.
func Encode(snapshot *model.Snapshot) ([]byte, error) {
	var file File
	for _, f := range snapshot.RiskFiles {
		entry := RiskFileEntry{
			ID:          string(f.ID),
			HazardID:    f.HazardID,
			Title:       f.Title,
			Type:        string(f.RiskType),
			Category:    f.RiskCategory,
			Qualitative: f.Qualitative,
		}
		if fields := f.QuantitativeFields(); len(fields) > 0 {
			entry.Quantitative = toAny(fields)
		}
		file.RiskFiles = append(file.RiskFiles, entry)
	}
	for _, c := range snapshot.Cascades {
		entry := CascadeEntry{
			ID:     string(c.ID),
			Cause:  string(c.CauseID),
			Effect: string(c.EffectID),
			Kind:   string(c.Kind),
		}
		for _, a := range c.Analyses {
			entry.Analyses = append(entry.Analyses, AnalysisEntry{
				Expert: a.Expert,
				Matrix: toAny(a.Matrix.MatrixFields()),
			})
		}
		file.Cascades = append(file.Cascades, entry)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(file); err != nil {
		return nil, goerr.Wrap(err, "failed to encode snapshot")
	}
	return buf.Bytes(), nil
}

func (x *RiskFileEntry) toModel() (*model.RiskFile, error) {
	riskType, err := types.ParseRiskType(x.Type)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshotFile, err.Error())
	}

	f := &model.RiskFile{
		ID:           types.RiskFileID(x.ID),
		HazardID:     x.HazardID,
		Title:        x.Title,
		RiskType:     riskType,
		RiskCategory: x.Category,
		Qualitative:  x.Qualitative,
	}

	raw, err := rawValues(x.Quantitative)
	if err != nil {
		return nil, err
	}
	if unknown := f.SetQuantitativeFields(raw); len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, goerr.Wrap(ErrInvalidSnapshotFile, "unknown quantitative field", goerr.V("fields", unknown))
	}

	if err := f.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshotFile, err.Error())
	}
	return f, nil
}

func (x *CascadeEntry) toModel() (*model.Cascade, error) {
	kind, err := types.ParseCascadeKind(x.Kind)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshotFile, err.Error())
	}

	id := x.ID
	if id == "" {
		id = x.Cause + "-" + x.Effect
	}
	c := &model.Cascade{
		ID:       types.CascadeID(id),
		CauseID:  types.RiskFileID(x.Cause),
		EffectID: types.RiskFileID(x.Effect),
		Kind:     kind,
	}

	for _, a := range x.Analyses {
		raw, err := rawValues(a.Matrix)
		if err != nil {
			return nil, err
		}
		matrix, unknown := model.RawMatrixFromFields(raw)
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return nil, goerr.Wrap(ErrInvalidSnapshotFile, "unknown matrix entry", goerr.V("fields", unknown))
		}
		c.Analyses = append(c.Analyses, model.CascadeAnalysis{Expert: a.Expert, Matrix: matrix})
	}

	if err := c.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidSnapshotFile, err.Error())
	}
	return c, nil
}

// rawValues turns TOML values into the raw text form of the model
func rawValues(values map[string]any) (map[string]string, error) {
	raw := make(map[string]string, len(values))
	for k, v := range values {
		switch x := v.(type) {
		case string:
			raw[k] = x
		case int64:
			raw[k] = strconv.FormatInt(x, 10)
		case float64:
			raw[k] = strconv.FormatFloat(x, 'g', -1, 64)
		default:
			return nil, goerr.Wrap(ErrInvalidSnapshotFile, "value must be a number or a string", goerr.V("field", k))
		}
	}
	return raw, nil
}

func toAny(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
