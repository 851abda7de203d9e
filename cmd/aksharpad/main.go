package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/aksharpad/internal/applog"
	"github.com/san-kum/aksharpad/internal/classify"
	"github.com/san-kum/aksharpad/internal/config"
	"github.com/san-kum/aksharpad/internal/gui"
	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/rain"
	"github.com/san-kum/aksharpad/internal/server"
	"github.com/san-kum/aksharpad/internal/session"
	"github.com/san-kum/aksharpad/internal/storage"
	"github.com/san-kum/aksharpad/internal/surface"
	"github.com/san-kum/aksharpad/internal/tui"
	"github.com/san-kum/aksharpad/internal/viz"
)

const endpointEnv = "AKSHARPAD_ENDPOINT"

var (
	configFile string
	dataDir    string
	endpoint   string
	logLevel   string
	logFile    string
	preset     string
	theme      string
	noRain     bool
	// serve
	addr    string
	modelID string
	// train
	inputSize   int
	trainInvert bool
	temperature float64
	workers     int
	// classify
	rawInput bool
	// config
	force bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aksharpad",
		Short:         "handwritten Devanagari drawing pad and classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", ".aksharpad", "data directory")
	pf.StringVar(&endpoint, "endpoint", config.DefaultEndpoint, "prediction endpoint (env "+endpointEnv+")")
	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "log file path")

	addPadFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&preset, "preset", "", "canvas preset ("+strings.Join(config.ListPresets(), ", ")+")")
		cmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
		cmd.Flags().BoolVar(&noRain, "no-rain", false, "disable the falling glyph background")
	}
	addPadFlags(rootCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "terminal drawing pad",
		Args:  cobra.NoArgs,
		RunE:  runTUI,
	}
	addPadFlags(tuiCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "windowed drawing pad",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addPadFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the classifier HTTP service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringVar(&modelID, "model", "", "model id (default: newest)")

	trainCmd := &cobra.Command{
		Use:   "train [dataset-dir]",
		Short: "build a template model from <dir>/<class>/ images",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrain,
	}
	trainCmd.Flags().IntVar(&inputSize, "size", config.DefaultInputSize, "model input size")
	trainCmd.Flags().BoolVar(&trainInvert, "invert", false, "invert images while training (dark ink on light paper)")
	trainCmd.Flags().Float64Var(&temperature, "temperature", classify.DefaultTemperature, "softmax temperature")
	trainCmd.Flags().IntVar(&workers, "workers", 0, "parallel class loaders (0 = one per CPU)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list saved models",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	classifyCmd := &cobra.Command{
		Use:   "classify [image]",
		Short: "classify an image with a saved model",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
	}
	classifyCmd.Flags().StringVar(&modelID, "model", "", "model id (default: newest)")
	classifyCmd.Flags().BoolVar(&rawInput, "raw", false, "image is already light ink on dark paper")

	submitCmd := &cobra.Command{
		Use:   "submit [image]",
		Short: "send an image to the prediction endpoint",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubmit,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	configCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list canvas presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %dx%d brush %.0f\n", name, p.Width, p.Height, p.BrushRadius)
			}
			return nil
		},
	}

	rootCmd.AddCommand(tuiCmd, guiCmd, serveCmd, trainCmd, modelsCmd, classifyCmd, submitCmd, configCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies a preset, then lets explicit
// flags and the endpoint environment variable override file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("endpoint"):
		cfg.Endpoint = endpoint
	case os.Getenv(endpointEnv) != "":
		cfg.Endpoint = os.Getenv(endpointEnv)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("no-rain") {
		cfg.Rain.Enabled = !noRain
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("model") {
		cfg.Server.Model = modelID
	}
	if flags.Changed("size") {
		cfg.Server.InputSize = inputSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLog opens the configured log. When the terminal pad owns the screen
// and no file is set, logs go to the data directory instead of stderr.
func openLog(cfg *config.Config, ownsTerminal bool) (*log.Logger, io.Closer, error) {
	path := cfg.Log.File
	if path == "" && ownsTerminal {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dataDir, "aksharpad.log")
	}
	return applog.Open(path, cfg.Log.Level)
}

func newSurface(cfg *config.Config) *surface.Surface {
	c := cfg.Canvas
	return surface.New(c.Width, c.Height,
		surface.WithRadius(c.BrushRadius),
		surface.WithInk(viz.ParseHex(c.Ink)),
		surface.WithPaper(viz.ParseHex(c.Paper)),
	)
}

func newRain(cfg *config.Config) *rain.Rain {
	if !cfg.Rain.Enabled {
		return nil
	}
	opts := []rain.Option{
		rain.WithInterval(cfg.SpawnInterval()),
		rain.WithLifetime(cfg.GlyphLifetime()),
		rain.WithAlphabet(rain.ParseAlphabet(cfg.Rain.Alphabet)),
	}
	if cfg.Rain.Seed != 0 {
		opts = append(opts, rain.WithSeed(cfg.Rain.Seed))
	}
	return rain.New(opts...)
}

func newClient(cfg *config.Config, logger *log.Logger) *predict.Client {
	return predict.NewClient(cfg.Endpoint,
		predict.WithTimeout(cfg.Timeout()),
		predict.WithLogger(logger),
	)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLog(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting terminal pad", "endpoint", cfg.Endpoint, "canvas", fmt.Sprintf("%dx%d", cfg.Canvas.Width, cfg.Canvas.Height))
	return tui.Run(cmd.Context(), tui.Options{
		Surface:   newSurface(cfg),
		Predictor: newClient(cfg, logger),
		Rain:      newRain(cfg),
		Theme:     cfg.Theme,
		Logger:    logger,
	})
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLog(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("starting window pad", "endpoint", cfg.Endpoint)
	return gui.Run(cmd.Context(), gui.Options{
		Session: session.New(newSurface(cfg), newClient(cfg, logger), logger.WithPrefix("gui")),
		Rain:    newRain(cfg),
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
		Font:    cfg.Window.Font,
		Theme:   cfg.Theme,
		Logger:  logger,
	})
}

// loadModel opens a stored model by id, or the newest one when id is empty.
func loadModel(st *storage.Store, id string) (*classify.TemplateModel, *storage.ModelMetadata, error) {
	if id == "" {
		latest, err := st.Latest()
		if err != nil {
			return nil, nil, err
		}
		id = latest
	}
	return st.LoadModel(id)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLog(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	// A nil *TemplateModel must not reach the server as a non-nil interface.
	var m classify.Model
	st := storage.New(dataDir)
	tm, meta, err := loadModel(st, cfg.Server.Model)
	switch {
	case err == nil:
		m = tm
		logger.Info("model loaded", "id", meta.ID, "classes", meta.Classes(), "samples", meta.Total())
	case errors.Is(err, storage.ErrNotFound):
		logger.Warn("no model available; /predict will answer 500", "data", st.Dir(), "err", err)
	default:
		return err
	}

	srv := server.New(m, server.Config{
		InputSize:   cfg.Server.InputSize,
		MaxInflight: cfg.Server.MaxInflight,
		MaxSide:     cfg.Server.MaxSide,
	}, logger)
	return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLog(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	dir := args[0]
	start := time.Now()
	m, err := classify.Train(cmd.Context(), dir, classify.TrainConfig{
		Size:        cfg.Server.InputSize,
		Invert:      trainInvert,
		Temperature: temperature,
		Workers:     workers,
	})
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(filepath.Base(filepath.Clean(dir)), trainInvert, m)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range m.Samples {
		total += n
	}
	logger.Info("model trained", "id", id, "data", st.Dir(), "classes", len(m.Names), "samples", total, "elapsed", time.Since(start).Round(time.Millisecond))
	fmt.Printf("saved: %s\n", id)
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	models, err := st.List()
	if err != nil {
		return err
	}

	if len(models) == 0 {
		fmt.Printf("no models found in %s\n", st.Dir())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATASET\tTIME\tCLASSES\tSAMPLES\tSIZE\tTEMP")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%dx%d\t%.1f\n",
			m.ID,
			m.Dataset,
			m.Timestamp.Format("2006-01-02 15:04:05"),
			m.Classes(),
			m.Total(),
			m.InputSize, m.InputSize,
			m.Temperature,
		)
	}
	return w.Flush()
}

func runClassify(cmd *cobra.Command, args []string) error {
	m, meta, err := loadModel(storage.New(dataDir), modelID)
	if err != nil {
		return err
	}
	img, err := classify.LoadImage(args[0])
	if err != nil {
		return err
	}

	x := classify.Preprocess(img, m.InputSize(), !rawInput)
	scores, err := m.Scores(x)
	if err != nil {
		return err
	}
	pred, err := classify.Predict(m, x, server.TopN)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", meta.ID)
	fmt.Printf("prediction: %s (confidence %s)\n\n", pred.Label, classify.FormatConfidence(pred.Confidence))
	for i, c := range pred.Top {
		fmt.Printf("  %d. %-4s %s\n", i+1, c.Label, classify.FormatConfidence(c.Score))
	}
	fmt.Println()

	width := min(max(len(scores)*2, 30), 100)
	fmt.Println(asciigraph.Plot(scores,
		asciigraph.Height(8),
		asciigraph.Width(width),
		asciigraph.Caption("class scores (training order)"),
	))
	return nil
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := openLog(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	img, err := classify.LoadImage(args[0])
	if err != nil {
		return err
	}
	resp, err := newClient(cfg, logger).PredictImage(cmd.Context(), img)
	if err != nil {
		return err
	}
	text, err := resp.Text()
	if err != nil {
		return err
	}
	fmt.Println(text)
	for _, c := range resp.Top {
		fmt.Printf("  %-4s %s\n", c.Label, c.Confidence)
	}
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	path := "aksharpad.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
