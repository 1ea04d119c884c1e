package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/database"
	"loadshape_toolkit/internal/publisher"
)

var publishAll bool

var publishCmd = &cobra.Command{
	Use:   "publish [run-id]...",
	Short: "Publish stored runs to MQTT",
	Long: `Publishes the loadshape and, for projections, the peak summary of stored
runs as retained MQTT messages. With --all every unpublished run is sent.`,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "publish every run not yet published")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !publishAll {
		return fmt.Errorf("give one or more run IDs or --all")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ids := append([]string(nil), args...)
	if publishAll {
		runs, err := db.ListRuns(0)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		for _, run := range runs {
			if !run.Published {
				ids = append(ids, run.ID)
			}
		}
	}
	if len(ids) == 0 {
		fmt.Println("Nothing to publish")
		return nil
	}

	pub, err := publisher.New(cfg.MQTT, cfg.GetTopicPrefix())
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	published := 0
	for _, id := range ids {
		run, err := db.GetRun(id)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", id, err)
		}
		if run == nil {
			return fmt.Errorf("run %s not found", id)
		}
		if err := publishRun(pub, run); err != nil {
			return fmt.Errorf("publishing run %s: %w", id, err)
		}
		if err := db.MarkPublished(id); err != nil {
			return fmt.Errorf("marking run %s published: %w", id, err)
		}
		log.Printf("Published run %s (%s)", id, run.Dataset)
		published++
	}

	fmt.Printf("Published %d runs\n", published)
	return nil
}

func publishRun(pub *publisher.Publisher, run *database.Run) error {
	if run.Summary != nil {
		if err := pub.PublishSummary(run.Dataset, *run.Summary); err != nil {
			return err
		}
	}
	return pub.PublishLoadshape(run.Dataset, run.Loadshape())
}
