package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Krimson/heart-risk/internal/clinical"
)

// TargetColumn колонка метки в исходном наборе.
const TargetColumn = "target"

// RawColumns колонки набора UCI Cleveland без метки.
var RawColumns = []string{
	"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
	"thalach", "exang", "oldpeak", "slope", "ca", "thal",
}

// DummyColumns категориальные колонки, разворачиваемые в one-hot, в порядке разворота.
var DummyColumns = []string{"cp", "thal", "slope"}

var ErrEmptyDataset = errors.New("dataset has no records")

// Dataset сырой набор данных для обучения и оценки.
// В Labels метка уже инвертирована: 1 означает наличие болезни.
type Dataset struct {
	Header []string
	Rows   [][]float64
	Labels []int

	index map[string]int
}

// Design матрица признаков после get_dummies(drop_first=True).
type Design struct {
	Columns []string
	Rows    []Vector
}

// LoadDatasetFile открывает CSV и загружает набор.
func LoadDatasetFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	return LoadDataset(file)
}

// LoadDataset читает CSV с заголовком. Порядок колонок в файле произвольный.
func LoadDataset(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyDataset
	}

	header := make([]string, len(records[0]))
	index := make(map[string]int, len(header))
	for i, name := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
		index[header[i]] = i
	}
	for _, col := range append(append([]string(nil), RawColumns...), TargetColumn) {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("dataset is missing column %q", col)
		}
	}

	ds := &Dataset{
		Header: header,
		Rows:   make([][]float64, 0, len(records)-1),
		Labels: make([]int, 0, len(records)-1),
		index:  index,
	}

	for i, record := range records[1:] {
		row := make([]float64, len(header))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value at line %d: %w", header[j], i+2, err)
			}
			row[j] = v
		}

		// В исходном наборе 1 = здоров, 0 = болен; модель обучается на обратной полярности.
		raw := row[index[TargetColumn]]
		if raw != 0 && raw != 1 {
			return nil, fmt.Errorf("invalid target value at line %d: %v", i+2, raw)
		}

		ds.Rows = append(ds.Rows, row)
		ds.Labels = append(ds.Labels, 1-int(raw))
	}

	return ds, nil
}

// Len число строк.
func (d *Dataset) Len() int { return len(d.Rows) }

func (d *Dataset) value(row []float64, col string) float64 {
	return row[d.index[col]]
}

// Design разворачивает категориальные колонки так же, как при обучении:
// категории берутся из данных, первая отбрасывается, dummy-колонки идут в конец.
// Если итоговая раскладка не совпадает с Columns, возвращается ErrLayoutMismatch
// вместе с построенной матрицей.
func (d *Dataset) Design() (*Design, error) {
	if d.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	isDummy := make(map[string]bool, len(DummyColumns))
	for _, col := range DummyColumns {
		isDummy[col] = true
	}

	type column struct {
		name  string
		src   int
		match float64
		dummy bool
	}
	var cols []column
	for i, name := range d.Header {
		if name == TargetColumn || isDummy[name] {
			continue
		}
		cols = append(cols, column{name: name, src: i})
	}
	for _, name := range DummyColumns {
		src := d.index[name]
		for _, cat := range d.categories(src)[1:] {
			cols = append(cols, column{
				name:  name + "_" + strconv.FormatFloat(cat, 'f', -1, 64),
				src:   src,
				match: cat,
				dummy: true,
			})
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	if err := CheckLayout(names); err != nil {
		return &Design{Columns: names}, fmt.Errorf("%w: dataset produces %v", err, names)
	}

	design := &Design{Columns: names, Rows: make([]Vector, len(d.Rows))}
	for r, row := range d.Rows {
		var v Vector
		for i, c := range cols {
			switch {
			case !c.dummy:
				v[i] = row[c.src]
			case row[c.src] == c.match:
				v[i] = 1
			}
		}
		design.Rows[r] = v
	}

	return design, nil
}

func (d *Dataset) categories(src int) []float64 {
	seen := make(map[float64]struct{})
	for _, row := range d.Rows {
		seen[row[src]] = struct{}{}
	}
	cats := make([]float64, 0, len(seen))
	for v := range seen {
		cats = append(cats, v)
	}
	sort.Float64s(cats)
	return cats
}

// Codes коды строки в терминах пакета clinical.
func (d *Dataset) Codes(i int) clinical.Codes {
	row := d.Rows[i]
	return clinical.Codes{
		Age:      d.value(row, "age"),
		Sex:      d.value(row, "sex"),
		CP:       d.value(row, "cp"),
		Trestbps: d.value(row, "trestbps"),
		Chol:     d.value(row, "chol"),
		FBS:      d.value(row, "fbs"),
		RestECG:  d.value(row, "restecg"),
		Thalach:  d.value(row, "thalach"),
		Exang:    d.value(row, "exang"),
		Oldpeak:  d.value(row, "oldpeak"),
		Slope:    d.value(row, "slope"),
		CA:       d.value(row, "ca"),
		Thal:     d.value(row, "thal"),
	}
}

// Observations переводит строки в наблюдения.
func (d *Dataset) Observations() ([]clinical.Observation, error) {
	out := make([]clinical.Observation, d.Len())
	for i := range d.Rows {
		o, err := clinical.FromCodes(d.Codes(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = o
	}
	return out, nil
}

// DiseaseRate доля больных среди строк, удовлетворяющих условию.
func (d *Dataset) DiseaseRate(match func(clinical.Codes) bool) (rate float64, n int) {
	sick := 0
	for i := range d.Rows {
		if !match(d.Codes(i)) {
			continue
		}
		n++
		sick += d.Labels[i]
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sick) / float64(n), n
}
