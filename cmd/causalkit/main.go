package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"causalkit/adapters/excel"
	"causalkit/adapters/stats/fit"
	"causalkit/app"
	"causalkit/domain/dataset"
	"causalkit/domain/graph"
	"causalkit/domain/identify"
	"causalkit/internal"
	"causalkit/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "causalkit",
		Short: "Causal effect estimation from observational and experimental data",
	}

	rootCmd.AddCommand(
		newIdentifyCmd(),
		newEstimateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseEdges turns "cause->effect" strings into a validated graph.
func parseEdges(edges []string) (*graph.DAG, error) {
	g := graph.New()
	for _, spec := range edges {
		parts := strings.Split(spec, "->")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid edge %q (expected cause->effect)", spec)
		}
		cause := strings.TrimSpace(parts[0])
		effect := strings.TrimSpace(parts[1])
		if err := g.Causes(cause, effect); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func loadDataset(path string) (*dataset.Dataset, error) {
	return excel.NewDataReader(path).ReadDataset()
}

func newIdentifyCmd() *cobra.Command {
	var edges []string
	var dataFile string

	cmd := &cobra.Command{
		Use:   "identify [treatment] [outcome]",
		Short: "Compute the backdoor adjustment set for a treatment/outcome pair",
		Long: `Compute which variables must be controlled for, given the causal graph.

Example: causalkit identify education income --edge "ability->education" --edge "ability->income" --edge "education->income" --data study.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			treatment, outcome := args[0], args[1]

			g, err := parseEdges(edges)
			if err != nil {
				return err
			}
			ds, err := loadDataset(dataFile)
			if err != nil {
				return err
			}

			ident := identify.Identify(g, treatment, outcome, ds.Has)
			fmt.Printf("Adjustment set: %v\n", ident.Adjustment)
			if len(ident.Missing) > 0 {
				fmt.Printf("Declared but unmeasured: %v\n", ident.Missing)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&edges, "edge", nil, "causal edge as cause->effect (repeatable)")
	cmd.Flags().StringVar(&dataFile, "data", "", "dataset file (.csv or .xlsx)")
	_ = cmd.MarkFlagRequired("edge")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newEstimateCmd() *cobra.Command {
	var edges []string
	var dataFile, method, instrument, group, timeVar string
	var runRefute bool

	cmd := &cobra.Command{
		Use:   "estimate [treatment] [outcome]",
		Short: "Estimate a causal effect and optionally refute it",
		Long: `Estimate the causal effect of a treatment on an outcome.

Methods: ols (observational regression), iv (two-stage least squares),
rct (randomized trial), did (difference-in-differences), matching
(propensity-score matching).

Example: causalkit estimate education income --method ols --edge "ability->education" --edge "ability->income" --edge "education->income" --data study.csv --refute`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			treatment, outcome := args[0], args[1]

			g, err := parseEdges(edges)
			if err != nil {
				return err
			}
			ds, err := loadDataset(dataFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := internal.NewLogger(internal.ParseLevel(cfg.LogLevel))
			fitter := fit.NewEngine()
			opts := []app.Option{app.WithConfig(*cfg), app.WithLogger(log)}

			return runEstimate(method, g, ds, fitter, opts, estimateArgs{
				treatment:  treatment,
				outcome:    outcome,
				instrument: instrument,
				group:      group,
				timeVar:    timeVar,
				refute:     runRefute,
			})
		},
	}

	cmd.Flags().StringArrayVar(&edges, "edge", nil, "causal edge as cause->effect (repeatable)")
	cmd.Flags().StringVar(&dataFile, "data", "", "dataset file (.csv or .xlsx)")
	cmd.Flags().StringVar(&method, "method", "ols", "estimation method: ols, iv, rct, did, matching")
	cmd.Flags().StringVar(&instrument, "instrument", "", "instrument variable (iv only)")
	cmd.Flags().StringVar(&group, "group", "", "group indicator column (did only)")
	cmd.Flags().StringVar(&timeVar, "time", "", "time indicator column (did only)")
	cmd.Flags().BoolVar(&runRefute, "refute", false, "run refutation checks after estimation")
	_ = cmd.MarkFlagRequired("edge")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

type estimateArgs struct {
	treatment  string
	outcome    string
	instrument string
	group      string
	timeVar    string
	refute     bool
}

func runEstimate(method string, g *graph.DAG, ds *dataset.Dataset, fitter *fit.Engine, opts []app.Option, a estimateArgs) error {
	switch method {
	case "ols":
		est, err := app.NewOLS(g, a.treatment, a.outcome, fitter, opts...)
		if err != nil {
			return err
		}
		res, err := est.Fit(ds)
		if err != nil {
			return err
		}
		fmt.Print(res.Summary())
		if a.refute {
			fmt.Print(res.Refute(ds).Summary())
		}
	case "iv":
		if a.instrument == "" {
			return fmt.Errorf("--instrument is required for method iv")
		}
		est, err := app.NewIV(g, a.treatment, a.outcome, a.instrument, fitter, opts...)
		if err != nil {
			return err
		}
		res, err := est.Fit(ds)
		if err != nil {
			return err
		}
		fmt.Print(res.Summary())
		if a.refute {
			fmt.Print(res.Refute(ds).Summary())
		}
	case "rct":
		est, err := app.NewRCT(g, a.treatment, a.outcome, fitter, opts...)
		if err != nil {
			return err
		}
		res, err := est.Fit(ds)
		if err != nil {
			return err
		}
		fmt.Print(res.Summary())
		if a.refute {
			fmt.Print(res.Refute(ds).Summary())
		}
	case "did":
		if a.group == "" || a.timeVar == "" {
			return fmt.Errorf("--group and --time are required for method did")
		}
		est, err := app.NewDiD(g, a.outcome, a.group, a.timeVar, fitter, opts...)
		if err != nil {
			return err
		}
		res, err := est.Fit(ds)
		if err != nil {
			return err
		}
		fmt.Print(res.Summary())
		if a.refute {
			fmt.Print(res.Refute(ds).Summary())
		}
	case "matching":
		est, err := app.NewMatching(g, a.treatment, a.outcome, fitter, opts...)
		if err != nil {
			return err
		}
		res, err := est.Fit(ds)
		if err != nil {
			return err
		}
		fmt.Print(res.Summary())
		if a.refute {
			fmt.Print(res.Refute(ds).Summary())
		}
	default:
		return fmt.Errorf("unknown method %q (want ols, iv, rct, did, or matching)", method)
	}
	return nil
}
