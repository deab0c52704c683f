package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/tether"
	"github.com/aretw0/tether/internal/logging"
	"github.com/aretw0/tether/pkg/adapters/memory"
	"github.com/aretw0/tether/pkg/domain"
	"github.com/aretw0/tether/pkg/scope"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Run a tag event scenario against a registry",
	Long:  `Loads a YAML scenario of entities and add/remove events, drives them through an in-memory tag source, and reports the registry's lifecycle activity.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return runSimulate(args[0], verbose)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

// simObject is the managed object the simulate command builds for every
// tracked entity.
type simObject struct {
	Entity domain.Entity
	GUID   string
	Pokes  int
}

func runSimulate(path string, verbose bool) error {
	sc, err := LoadScenario(path)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(level)

	source := memory.NewSource()
	store := memory.NewStore()

	for _, ent := range sc.Entities {
		if ent.Parent != "" {
			source.SetParent(ent.ID, ent.Parent)
		}
		for _, tag := range ent.Tags {
			source.AddTag(ent.ID, domain.Tag(tag))
		}
	}

	class := &domain.Class{
		Name: sc.Tag,
		Construct: func(e domain.Entity, s *scope.Scope, guid string) (any, error) {
			obj := &simObject{Entity: e, GUID: guid}
			s.AddFunc(func() {
				logger.Debug("scope released", "entity", e)
			})
			return obj, nil
		},
		Destroy: func(obj any) error {
			return nil
		},
		Methods: map[string]domain.Method{
			"Poke": func(obj any, args ...any) (any, error) {
				sim := obj.(*simObject)
				sim.Pokes++
				return sim.Pokes, nil
			},
		},
	}

	opts := []tether.Option{
		tether.WithLogger(logger),
		tether.WithLogging(true),
		tether.WithDebug(verbose),
		tether.WithMetadataStore(store),
	}
	if sc.GUIDPrefix != "" {
		opts = append(opts, tether.WithGUID(sc.GUIDPrefix))
	}

	reg, err := tether.New(class, domain.Tag(sc.Tag), source, opts...)
	if err != nil {
		return fmt.Errorf("failed to create registry: %w", err)
	}
	defer reg.Destroy()

	waitForReplay(reg, source, domain.Tag(sc.Tag))

	for _, ev := range sc.Events {
		switch ev.Action {
		case "add":
			source.AddTag(ev.Entity, domain.Tag(sc.Tag))
		case "remove":
			source.RemoveTag(ev.Entity, domain.Tag(sc.Tag))
		case "call":
			reg.CallAll(ev.Method)
		}
	}

	fmt.Fprintf(os.Stdout, "tracked objects: %d\n", reg.Len())
	for e, obj := range reg.GetAll() {
		fmt.Fprintf(os.Stdout, "  %v -> %+v\n", e, obj)
	}
	return nil
}

// waitForReplay blocks until the registry has caught up with the
// entities that carried the tag before it attached. Replay dispatch is
// asynchronous, so the script must not start before it lands.
func waitForReplay(reg *tether.Registry, source *memory.Source, tag domain.Tag) {
	want := len(source.Tagged(tag, nil))
	deadline := time.Now().Add(2 * time.Second)
	for reg.Len() < want && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
}
