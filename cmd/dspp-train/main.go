package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"go-ml.dev/pkg/dspp/dataset"
	"go-ml.dev/pkg/dspp/dspp"
	"go-ml.dev/pkg/dspp/fu"
	"go-ml.dev/pkg/dspp/model"
	"go-ml.dev/pkg/dspp/store"
)

type config struct {
	Data         string  `json:"data"`
	Label        string  `json:"label"`
	TestFraction float64 `json:"test_fraction"`
	BatchSize    int     `json:"batch_size"`
	Iterations   int     `json:"iterations"`
	Hidden       int     `json:"hidden"`
	Sites        int     `json:"sites"`
	Inducing     int     `json:"inducing"`
	LearningRate float64 `json:"learning_rate"`
	LinearMean   bool    `json:"linear_mean"`
	Seed         int64   `json:"seed"`
	ModelFile    string  `json:"-"`
	RunsDB       string  `json:"-"`
	Quiet        bool    `json:"-"`
}

func (c *config) validate() error {
	if c.Data == "" {
		return fmt.Errorf("a dataset file is required (-data)")
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0,1), got %v", c.TestFraction)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0, got %d", c.BatchSize)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be > 0, got %d", c.Iterations)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be > 0, got %v", c.LearningRate)
	}
	return nil
}

func main() {
	cfg := config{}
	flag.StringVar(&cfg.Data, "data", "", "Path to a CSV or CSV.xz dataset")
	flag.StringVar(&cfg.Label, "label", "", "Label column name (default: last column)")
	flag.Float64Var(&cfg.TestFraction, "test-fraction", 0.2, "Fraction of examples held out for testing")
	flag.IntVar(&cfg.BatchSize, "batch-size", 128, "Minibatch size")
	flag.IntVar(&cfg.Iterations, "iterations", 20, "Maximum training iterations (epochs)")
	flag.IntVar(&cfg.Hidden, "hidden", 3, "Hidden layer width")
	flag.IntVar(&cfg.Sites, "sites", 8, "Quadrature sites Q")
	flag.IntVar(&cfg.Inducing, "inducing", 32, "Inducing points per hidden unit")
	flag.Float64Var(&cfg.LearningRate, "rate", 0.01, "Adam learning rate")
	flag.BoolVar(&cfg.LinearMean, "linear-mean", false, "Use a linear hidden mean function")
	flag.Int64Var(&cfg.Seed, "seed", 1, "PRNG seed")
	flag.StringVar(&cfg.ModelFile, "model-file", "", "File to store the best model parameters")
	flag.StringVar(&cfg.RunsDB, "runs-db", fu.ModelPath("runs.db"), "Run-history SQLite database (empty disables)")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "Suppress per-iteration output")
	flag.Parse()

	if err := cfg.validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ds, err := dataset.LoadCSV(cfg.Data, cfg.Label)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	log.Printf("dataset %s: %d examples, %d features", cfg.Data, ds.Len(), ds.Dim())

	train, test := ds.Split(cfg.TestFraction, cfg.Seed)
	scaler := dataset.Fit(train)
	train = scaler.Apply(train)
	test = scaler.Apply(test)
	log.Printf("split: %d train / %d test", train.Len(), test.Len())

	var verbose interface{}
	if !cfg.Quiet {
		verbose = func(s string) { log.Print(s) }
	}

	linear := 0
	if cfg.LinearMean {
		linear = 1
	}
	fat := dspp.DSPP{
		Hidden:       cfg.Hidden,
		Sites:        cfg.Sites,
		Inducing:     cfg.Inducing,
		LearningRate: cfg.LearningRate,
		LinearMean:   linear,
		Seed:         cfg.Seed,
	}.Feed(model.Dataset{
		Train:     train,
		Test:      test,
		BatchSize: cfg.BatchSize,
		Seed:      cfg.Seed,
	})

	report, err := fat.Train(model.Training{
		Iterations: cfg.Iterations,
		ModelFile:  cfg.ModelFile,
		Verbose:    verbose,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	log.Printf("best iteration %d: rmse=%.5f loglik=%.5f",
		report.TheBest, report.Test.RMSE, report.Test.LogLik)

	if cfg.RunsDB != "" {
		if err := record(cfg, report); err != nil {
			log.Printf("run not recorded: %v", err)
		}
	}
}

func record(cfg config, report *model.Report) error {
	runs, err := store.Open(cfg.RunsDB)
	if err != nil {
		return err
	}
	defer runs.Close()
	blob, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	id, err := runs.Save(store.Run{
		Dataset:    cfg.Data,
		Config:     string(blob),
		Iterations: report.TheBest + 1,
		RMSE:       report.Test.RMSE,
		LogLik:     report.Test.LogLik,
	})
	if err != nil {
		return err
	}
	log.Printf("recorded run %d in %s", id, cfg.RunsDB)
	return nil
}
