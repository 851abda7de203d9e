package classify

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// TrainConfig controls how a dataset directory is read.
type TrainConfig struct {
	Size        int
	Invert      bool
	Temperature float64
	Workers     int
}

// withDefaults fills zero fields. Zero workers means one per CPU.
func (c TrainConfig) withDefaults() TrainConfig {
	if c.Size <= 0 {
		c.Size = DefaultInputSize
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

// Train builds a TemplateModel from dir/<class>/*.{png,jpg}. Classes are
// the sorted subdirectory names; each template is the mean of its class.
func Train(ctx context.Context, dir string, cfg TrainConfig) (*TemplateModel, error) {
	cfg = cfg.withDefaults()

	classes, err := classDirs(dir)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, errors.Wrapf(ErrEmptyDataset, "%s has no class directories", dir)
	}

	m := &TemplateModel{
		Names:       labelsFor(classes),
		Size:        cfg.Size,
		Temperature: cfg.Temperature,
		Templates:   make([][]float32, len(classes)),
		Samples:     make([]int, len(classes)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, class := range classes {
		i, class := i, class
		g.Go(func() error {
			tmpl, n, err := meanImage(ctx, filepath.Join(dir, class), cfg)
			if err != nil {
				return errors.Wrapf(err, "class %s", class)
			}
			m.Templates[i] = tmpl
			m.Samples[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, n := range m.Samples {
		total += n
	}
	if total == 0 {
		return nil, errors.Wrapf(ErrEmptyDataset, "%s", dir)
	}
	return m, nil
}

func classDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read dataset")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func meanImage(ctx context.Context, dir string, cfg TrainConfig) ([]float32, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, errors.Wrap(err, "read class")
	}

	sum := make([]float64, cfg.Size*cfg.Size)
	n := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		img, err := LoadImage(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, 0, err
		}
		for j, v := range Preprocess(img, cfg.Size, cfg.Invert) {
			sum[j] += float64(v)
		}
		n++
	}

	mean := make([]float32, len(sum))
	if n > 0 {
		for j, v := range sum {
			mean[j] = float32(v / float64(n))
		}
	}
	return mean, n, nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// LoadImage decodes a PNG or JPEG file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return img, nil
}
