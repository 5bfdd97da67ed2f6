// Package forest хранит и исполняет сериализованный ансамбль деревьев решений,
// которым является обученный классификатор риска.
package forest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/Krimson/heart-risk/internal/features"
	"github.com/Krimson/heart-risk/internal/scoring"
)

const (
	Format  = "heart-risk/forest"
	Version = 1
)

var ErrInvalidArtifact = errors.New("invalid model artifact")

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

var (
	_ scoring.Classifier = (*Forest)(nil)
	_ scoring.Predictor  = (*Forest)(nil)
)

// Node узел дерева: либо разбиение, либо лист с распределением по классам.
// Разбиение: x[Feature] <= Threshold идёт влево.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     []float64
}

// Split создаёт узел разбиения.
func Split(feature int, threshold float64, left, right int) Node {
	return Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
}

// Leaf создаёт лист.
func Leaf(value ...float64) Node {
	return Node{Value: value}
}

// IsLeaf true для листа.
func (n Node) IsLeaf() bool { return n.Value != nil }

type splitJSON struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

type leafJSON struct {
	Value []float64 `json:"value"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	if n.IsLeaf() {
		return json.Marshal(leafJSON{Value: n.Value})
	}
	return json.Marshal(splitJSON{Feature: n.Feature, Threshold: n.Threshold, Left: n.Left, Right: n.Right})
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		splitJSON
		Value []float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Node{
		Feature:   raw.Feature,
		Threshold: raw.Threshold,
		Left:      raw.Left,
		Right:     raw.Right,
		Value:     raw.Value,
	}
	return nil
}

// Tree одно дерево; корень в Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest ансамбль деревьев. После Decode только читается.
type Forest struct {
	Format       string         `json:"format"`
	Version      int            `json:"version"`
	FeatureNames []string       `json:"feature_names"`
	Classes      []int          `json:"classes"`
	Trees        []Tree         `json:"trees"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// New собирает лес со стандартной раскладкой признаков.
func New(trees []Tree, metadata map[string]any) (*Forest, error) {
	f := &Forest{
		Format:       Format,
		Version:      Version,
		FeatureNames: append([]string(nil), features.Columns[:]...),
		Classes:      []int{0, 1},
		Trees:        trees,
		Metadata:     metadata,
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse artifact schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://forest.json", doc); err != nil {
			schemaErr = fmt.Errorf("add artifact schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("schema://forest.json")
	})
	return schema, schemaErr
}

// Decode читает артефакт, проверяет его по JSON Schema, структуру деревьев и
// совпадение раскладки признаков с features.Columns.
func Decode(r io.Reader) (*Forest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}

	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Encode записывает артефакт в JSON.
func (f *Forest) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

func (f *Forest) validate() error {
	if err := features.CheckLayout(f.FeatureNames); err != nil {
		return fmt.Errorf("%w: artifact has %d columns %v", err, len(f.FeatureNames), f.FeatureNames)
	}
	if len(f.Classes) != 2 || f.Classes[0] != 0 || f.Classes[1] != 1 {
		return fmt.Errorf("%w: classes must be [0 1], got %v", ErrInvalidArtifact, f.Classes)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidArtifact)
	}

	for t, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidArtifact, t)
		}
		for i, n := range tree.Nodes {
			if n.IsLeaf() {
				if len(n.Value) != len(f.Classes) {
					return fmt.Errorf("%w: tree %d node %d: leaf has %d values", ErrInvalidArtifact, t, i, len(n.Value))
				}
				sum := 0.0
				for _, v := range n.Value {
					if v < 0 {
						return fmt.Errorf("%w: tree %d node %d: negative leaf value", ErrInvalidArtifact, t, i)
					}
					sum += v
				}
				if sum == 0 {
					return fmt.Errorf("%w: tree %d node %d: empty leaf", ErrInvalidArtifact, t, i)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= features.Width {
				return fmt.Errorf("%w: tree %d node %d: feature %d out of range", ErrInvalidArtifact, t, i, n.Feature)
			}
			// дочерние узлы всегда правее родителя: циклов нет, обход конечен
			for _, child := range []int{n.Left, n.Right} {
				if child <= i || child >= len(tree.Nodes) {
					return fmt.Errorf("%w: tree %d node %d: bad child index %d", ErrInvalidArtifact, t, i, child)
				}
			}
		}
	}
	return nil
}

// Distribution среднее по деревьям нормированное распределение классов.
func (f *Forest) Distribution(v features.Vector) []float64 {
	dist := make([]float64, len(f.Classes))
	for _, tree := range f.Trees {
		leaf := tree.leaf(v)
		sum := 0.0
		for _, x := range leaf.Value {
			sum += x
		}
		for c, x := range leaf.Value {
			dist[c] += x / sum
		}
	}
	for c := range dist {
		dist[c] /= float64(len(f.Trees))
	}
	return dist
}

func (t Tree) leaf(v features.Vector) Node {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n
		}
		if v[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Predict метка (argmax, при равенстве класс 0) и вероятность класса 1.
func (f *Forest) Predict(ctx context.Context, v features.Vector) (scoring.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Prediction{}, err
	}
	dist := f.Distribution(v)
	label := 0
	if dist[1] > dist[0] {
		label = 1
	}
	return scoring.Prediction{Label: label, Probability: dist[1]}, nil
}

func (f *Forest) PredictLabel(ctx context.Context, v features.Vector) (int, error) {
	p, err := f.Predict(ctx, v)
	return p.Label, err
}

func (f *Forest) PredictProbability(ctx context.Context, v features.Vector) (float64, error) {
	p, err := f.Predict(ctx, v)
	return p.Probability, err
}
