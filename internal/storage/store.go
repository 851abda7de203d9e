package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/aksharpad/internal/classify"
)

// ErrNotFound indicates a model ID with no directory under the store.
var ErrNotFound = errors.New("storage: model not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type ModelMetadata struct {
	ID          string    `json:"id"`
	Dataset     string    `json:"dataset"`
	Timestamp   time.Time `json:"timestamp"`
	InputSize   int       `json:"input_size"`
	Temperature float64   `json:"temperature"`
	Inverted    bool      `json:"inverted"`
	Labels      []string  `json:"labels"`
	Samples     []int     `json:"samples"`
}

// Classes is the number of labels in the model.
func (m ModelMetadata) Classes() int { return len(m.Labels) }

// Total is the number of training images across all classes.
func (m ModelMetadata) Total() int {
	n := 0
	for _, v := range m.Samples {
		n += v
	}
	return n
}

// Save writes m as <id>/metadata.json and <id>/templates.csv, one template
// per row, and returns the new ID.
func (s *Store) Save(dataset string, inverted bool, m *classify.TemplateModel) (string, error) {
	now := time.Now()
	id := fmt.Sprintf("model_%d", now.UnixNano())
	dir := filepath.Join(s.baseDir, id)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create model dir")
	}

	meta := ModelMetadata{
		ID:          id,
		Dataset:     dataset,
		Timestamp:   now,
		InputSize:   m.Size,
		Temperature: m.Temperature,
		Inverted:    inverted,
		Labels:      m.Names,
		Samples:     m.Samples,
	}

	metaFile, err := os.Create(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return "", errors.Wrap(err, "create metadata")
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", errors.Wrap(err, "encode metadata")
	}

	csvFile, err := os.Create(filepath.Join(dir, "templates.csv"))
	if err != nil {
		return "", errors.Wrap(err, "create templates")
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	header := make([]string, 0, m.Size*m.Size+1)
	header = append(header, "label")
	for i := 0; i < m.Size*m.Size; i++ {
		header = append(header, fmt.Sprintf("p%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", errors.Wrap(err, "write templates")
	}

	for i, tmpl := range m.Templates {
		row := make([]string, 0, len(tmpl)+1)
		row = append(row, m.Names[i])
		for _, v := range tmpl {
			row = append(row, strconv.FormatFloat(float64(v), 'f', 6, 32))
		}
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "write templates")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flush templates")
	}

	return id, nil
}

// List returns the stored models, newest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]ModelMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ModelMetadata{}, nil
		}
		return nil, err
	}

	models := make([]ModelMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		models = append(models, *meta)
	}

	sort.Slice(models, func(i, j int) bool {
		return models[i].Timestamp.After(models[j].Timestamp)
	})
	return models, nil
}

func (s *Store) Load(id string) (*ModelMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, id)
		}
		return nil, err
	}

	var meta ModelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode %s metadata", id)
	}
	return &meta, nil
}

// Latest returns the ID of the newest stored model.
func (s *Store) Latest() (string, error) {
	models, err := s.List()
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", errors.Wrap(ErrNotFound, "store is empty")
	}
	return models[0].ID, nil
}

// LoadModel reads a model back into a classifier.
func (s *Store) LoadModel(id string) (*classify.TemplateModel, *ModelMetadata, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, id, "templates.csv"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "open templates")
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "read templates")
	}

	want := meta.InputSize * meta.InputSize
	m := &classify.TemplateModel{
		Size:        meta.InputSize,
		Temperature: meta.Temperature,
		Samples:     meta.Samples,
	}
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) != want+1 {
			return nil, nil, errors.Wrapf(classify.ErrDimension, "templates.csv row %d has %d values", i, len(rec)-1)
		}
		tmpl := make([]float32, want)
		for j, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "templates.csv row %d", i)
			}
			tmpl[j] = float32(v)
		}
		m.Names = append(m.Names, rec[0])
		m.Templates = append(m.Templates, tmpl)
	}

	if len(m.Templates) != len(meta.Labels) {
		return nil, nil, errors.Errorf("%s: %d templates for %d labels", id, len(m.Templates), len(meta.Labels))
	}
	return m, meta, nil
}
